package http

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/orgtree"
	"github.com/nsrz/intranet/internal/repository"
	"github.com/nsrz/intranet/internal/service"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

type stubDepartments struct {
	items     map[int64]*domain.Department
	nextID    int64
	deleteErr error
	moved     map[int64]*int64
}

func newStubDepartments() *stubDepartments {
	return &stubDepartments{items: map[int64]*domain.Department{}, nextID: 1, moved: map[int64]*int64{}}
}

func (s *stubDepartments) Create(_ context.Context, in service.DepartmentCreateInput) (*domain.Department, error) {
	if in.ParentID != nil {
		if _, ok := s.items[*in.ParentID]; !ok {
			return nil, apperrors.NewNotFound("parent department", map[string]any{"id": *in.ParentID})
		}
	}
	d := &domain.Department{ID: s.nextID, Name: in.Name, Fullname: in.Fullname, CodeZup: in.CodeZup, Organization: in.Organization, ParentID: in.ParentID}
	s.items[d.ID] = d
	s.nextID++
	return d, nil
}

func (s *stubDepartments) List(context.Context) ([]domain.Department, error) {
	out := make([]domain.Department, 0, len(s.items))
	for _, d := range s.items {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubDepartments) Get(_ context.Context, id int64) (*domain.Department, error) {
	d, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *stubDepartments) Update(_ context.Context, id int64, in service.DepartmentUpdateInput) (bool, error) {
	d, ok := s.items[id]
	if !ok {
		return false, nil
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.ParentIDSet {
		d.ParentID = in.ParentID
	}
	return true, nil
}

func (s *stubDepartments) Move(_ context.Context, id int64, parentID *int64) (bool, error) {
	d, ok := s.items[id]
	if !ok {
		return false, nil
	}
	if parentID != nil && *parentID == id {
		return false, apperrors.NewValidationError("department cannot be its own parent", nil)
	}
	s.moved[id] = parentID
	d.ParentID = parentID
	return true, nil
}

func (s *stubDepartments) Delete(_ context.Context, id int64) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *stubDepartments) Usage(_ context.Context, id int64) (*domain.DepartmentUsage, error) {
	if _, ok := s.items[id]; !ok {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": id})
	}
	return &domain.DepartmentUsage{Children: 1}, nil
}

func (s *stubDepartments) Hierarchy(context.Context) ([]domain.HierarchyEntry, error) {
	nodes := make([]orgtree.Node, 0, len(s.items))
	for _, d := range s.items {
		nodes = append(nodes, orgtree.Node{ID: d.ID, Name: d.Name, ParentID: d.ParentID})
	}
	return orgtree.Levels(nodes), nil
}

func (s *stubDepartments) Tree(ctx context.Context) ([]*orgtree.TreeNode, error) {
	entries, _ := s.Hierarchy(ctx)
	return orgtree.Nest(entries), nil
}

func (s *stubDepartments) WithEmployees(context.Context) ([]domain.DepartmentWithEmployees, error) {
	return []domain.DepartmentWithEmployees{}, nil
}

func (s *stubDepartments) Structure(ctx context.Context) (*service.Structure, error) {
	return &service.Structure{Name: "НСРЗ", Departments: []domain.DepartmentWithEmployees{}}, nil
}

// stubUsers doubles as the auth middleware's user loader.
type stubUsers struct {
	items map[int64]*domain.User
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubUsers) Create(_ context.Context, in service.UserCreateInput) (*domain.User, error) {
	u := &domain.User{ID: int64(len(s.items) + 1), Email: in.Email, PasswordHash: "hash", Role: in.Role, Status: domain.UserStatusActive, DepartmentID: in.DepartmentID}
	s.items[u.ID] = u
	return u, nil
}

func (s *stubUsers) Get(_ context.Context, id int64) (*domain.User, error) {
	return s.items[id], nil
}

func (s *stubUsers) List(context.Context) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range s.items {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubUsers) Update(_ context.Context, id int64, in service.UserUpdateInput) (bool, error) {
	u, ok := s.items[id]
	if !ok {
		return false, nil
	}
	if in.Lastname != nil {
		u.Lastname = *in.Lastname
	}
	return true, nil
}

func (s *stubUsers) Delete(_ context.Context, id int64) (bool, error) {
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

type stubPositions struct{}

func (stubPositions) Create(_ context.Context, name string, departmentID int64) (*domain.Position, error) {
	return &domain.Position{ID: 1, Name: name, DepartmentID: departmentID}, nil
}
func (stubPositions) Get(context.Context, int64) (*domain.Position, error) { return nil, nil }
func (stubPositions) List(context.Context, *int64) ([]domain.Position, error) {
	return []domain.Position{}, nil
}
func (stubPositions) Update(context.Context, int64, service.PositionInput) (bool, error) {
	return false, nil
}
func (stubPositions) Delete(context.Context, int64) (bool, error) {
	return false, apperrors.NewConflict("position is in use", map[string]any{"employees": 2})
}

type stubEmployees struct {
	lastFilter repository.EmployeeFilter
	created    *service.EmployeeCreateInput
}

func (s *stubEmployees) Create(_ context.Context, in service.EmployeeCreateInput) (*domain.Employee, error) {
	s.created = &in
	return &domain.Employee{ID: 5, Lastname: in.Lastname, Firstname: in.Firstname, DepartmentID: in.DepartmentID, PositionID: in.PositionID, BirthDate: in.BirthDate, HireDate: in.HireDate}, nil
}
func (s *stubEmployees) Get(context.Context, int64) (*domain.Employee, error) { return nil, nil }
func (s *stubEmployees) List(_ context.Context, f repository.EmployeeFilter) ([]domain.Employee, error) {
	s.lastFilter = f
	return []domain.Employee{}, nil
}
func (s *stubEmployees) Update(context.Context, int64, service.EmployeeUpdateInput) (bool, error) {
	return false, nil
}
func (s *stubEmployees) Delete(context.Context, int64) (bool, error) { return true, nil }

type stubPhonebook struct{}

func (stubPhonebook) Search(_ context.Context, q string, _ *int64) ([]service.PhonebookEntry, error) {
	return []service.PhonebookEntry{{EmployeeID: 1, Name: "Ivanov Ivan", Department: "IT", Position: q}}, nil
}
func (stubPhonebook) Export(entries []service.PhonebookEntry) ([]byte, error) {
	return []byte("PK-xlsx"), nil
}

type stubNews struct {
	publishedOnly *bool
	items         map[int64]*domain.News
}

func (s *stubNews) Create(_ context.Context, authorID int64, in service.NewsCreateInput) (*domain.News, error) {
	n := &domain.News{ID: 10, Title: in.Title, Content: in.Content, Published: in.Published, AuthorID: &authorID, CreatedAt: time.Now()}
	s.items[n.ID] = n
	return n, nil
}
func (s *stubNews) Get(_ context.Context, id int64) (*domain.News, error) { return s.items[id], nil }
func (s *stubNews) List(_ context.Context, publishedOnly bool, _ int) ([]domain.News, error) {
	s.publishedOnly = &publishedOnly
	return []domain.News{}, nil
}
func (s *stubNews) Update(_ context.Context, id int64, in service.NewsUpdateInput) (*domain.News, error) {
	n, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.Image != nil {
		n.Image = nil
		if *in.Image != "" {
			pic := *in.Image
			n.Image = &pic
		}
	}
	return n, nil
}
func (s *stubNews) Publish(_ context.Context, id int64, published bool) (*domain.News, error) {
	n, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	n.Published = published
	return n, nil
}
func (s *stubNews) Delete(_ context.Context, id int64) (bool, error) {
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

type stubImages struct {
	saved   int
	removed []string
}

func (s *stubImages) Remove(url string) error {
	s.removed = append(s.removed, url)
	return nil
}

func (s *stubImages) Save(r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	if len(data) == 0 {
		return "", apperrors.NewValidationError("empty upload", nil)
	}
	s.saved++
	return "/uploads/pic.png", nil
}

type stubAuth struct {
	users     *stubUsers
	tokens    interface {
		GenerateToken(*domain.User) (string, domain.Token, error)
	}
	loggedOut []string
}

func (s *stubAuth) Login(_ context.Context, email, password string) (*service.LoginResult, error) {
	for _, u := range s.users.items {
		if u.Email == email && password == "secret" {
			raw, tok, err := s.tokens.GenerateToken(u)
			if err != nil {
				return nil, err
			}
			return &service.LoginResult{User: u, AccessToken: raw, Token: tok}, nil
		}
	}
	return nil, apperrors.NewUnauthorized("invalid credentials")
}

func (s *stubAuth) Logout(_ context.Context, token domain.Token) error {
	s.loggedOut = append(s.loggedOut, token.ID)
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
