package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsrz/intranet/internal/domain"
)

func TestAuthorizer(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	cases := []struct {
		role   domain.Role
		path   string
		method string
		want   bool
	}{
		{domain.RoleUser, "/api/news", http.MethodGet, true},
		{domain.RoleUser, "/api/news/3", http.MethodGet, true},
		{domain.RoleUser, "/api/news", http.MethodPost, false},
		{domain.RoleUser, "/api/departments/hierarchy", http.MethodGet, true},
		{domain.RoleUser, "/api/departments/4", http.MethodDelete, false},
		{domain.RoleUser, "/api/users", http.MethodGet, false},
		{domain.RoleUser, "/api/auth/logout", http.MethodPost, true},
		{domain.RoleHR, "/api/employees", http.MethodPost, true},
		{domain.RoleHR, "/api/positions/2", http.MethodDelete, true},
		{domain.RoleHR, "/api/structure", http.MethodGet, true},
		{domain.RoleHR, "/api/departments", http.MethodPost, false},
		{domain.RoleHR, "/api/users/1", http.MethodPut, false},
		{domain.RoleAdmin, "/api/users/1", http.MethodPut, true},
		{domain.RoleAdmin, "/api/news/1/publish", http.MethodPatch, true},
		{domain.RoleAdmin, "/api/departments/1/parent", http.MethodPut, true},
		{domain.Role("guest"), "/api/news", http.MethodGet, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.role)+" "+tc.method+" "+tc.path, func(t *testing.T) {
			ok, err := a.Allowed(tc.role, tc.path, tc.method)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}
