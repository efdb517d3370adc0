package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gofiber/fiber/v2"

	"github.com/nsrz/intranet/internal/domain"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

const (
	readOnly  = "^(GET|HEAD)$"
	readWrite = "^(GET|HEAD|POST|PUT|PATCH|DELETE)$"
)

// readable by every authenticated role; each entry covers the collection and its children.
var userReadable = []string{
	"/api/news",
	"/api/structure",
	"/api/departments",
	"/api/employees",
	"/api/positions",
	"/api/phonebook",
}

var hrWritable = []string{
	"/api/employees",
	"/api/positions",
}

// Authorizer answers role/route/method questions with a casbin enforcer.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer builds the enforcer with the built-in policy: admin inherits hr, hr inherits user.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}

	policies := [][]string{
		{string(domain.RoleUser), "/api/auth/*", readWrite},
		{string(domain.RoleAdmin), "/api/*", readWrite},
	}
	for _, path := range userReadable {
		policies = append(policies,
			[]string{string(domain.RoleUser), path, readOnly},
			[]string{string(domain.RoleUser), path + "/*", readOnly},
		)
	}
	for _, path := range hrWritable {
		policies = append(policies,
			[]string{string(domain.RoleHR), path, readWrite},
			[]string{string(domain.RoleHR), path + "/*", readWrite},
		)
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("rbac policies: %w", err)
	}

	groupings := [][]string{
		{string(domain.RoleHR), string(domain.RoleUser)},
		{string(domain.RoleAdmin), string(domain.RoleHR)},
	}
	if _, err := enforcer.AddGroupingPolicies(groupings); err != nil {
		return nil, fmt.Errorf("rbac roles: %w", err)
	}

	return &Authorizer{enforcer: enforcer}, nil
}

// Allowed reports whether role may perform method on path.
func (a *Authorizer) Allowed(role domain.Role, path, method string) (bool, error) {
	return a.enforcer.Enforce(string(role), path, method)
}

// RequirePermission rejects callers whose role may not use the current route.
func RequirePermission(a *Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		allowed, err := a.Allowed(principal.Role(), c.Path(), c.Method())
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if !allowed {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
