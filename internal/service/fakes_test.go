package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/orgtree"
	"github.com/nsrz/intranet/internal/repository"
)

// fakeStore is an in-memory database shared by the fake repositories.
type fakeStore struct {
	departments map[int64]domain.Department
	users       map[int64]domain.User
	positions   map[int64]domain.Position
	employees   map[int64]domain.Employee
	news        map[int64]domain.News
	nextID      map[string]int64
	clock       time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		departments: map[int64]domain.Department{},
		users:       map[int64]domain.User{},
		positions:   map[int64]domain.Position{},
		employees:   map[int64]domain.Employee{},
		news:        map[int64]domain.News{},
		nextID:      map[string]int64{},
		clock:       time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *fakeStore) now() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func copyMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *fakeStore) snapshot() fakeStore {
	next := make(map[string]int64, len(s.nextID))
	for k, v := range s.nextID {
		next[k] = v
	}
	return fakeStore{
		departments: copyMap(s.departments),
		users:       copyMap(s.users),
		positions:   copyMap(s.positions),
		employees:   copyMap(s.employees),
		news:        copyMap(s.news),
		nextID:      next,
		clock:       s.clock,
	}
}

func (s *fakeStore) restore(snap fakeStore) {
	*s = snap
}

// fakeTx restores the store when fn fails, like a rolled back transaction.
type fakeTx struct {
	store     *fakeStore
	commits   int
	rollbacks int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeDepartmentRepo struct{ s *fakeStore }

func (r fakeDepartmentRepo) Create(_ context.Context, d *domain.Department) error {
	d.ID = r.s.id("departments")
	d.CreatedAt = r.s.now()
	d.UpdatedAt = d.CreatedAt
	r.s.departments[d.ID] = *d
	return nil
}

func (r fakeDepartmentRepo) Update(_ context.Context, d *domain.Department) error {
	if _, ok := r.s.departments[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	d.UpdatedAt = r.s.now()
	r.s.departments[d.ID] = *d
	return nil
}

func (r fakeDepartmentRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.s.departments[id]; !ok {
		return false, nil
	}
	delete(r.s.departments, id)
	return true, nil
}

func (r fakeDepartmentRepo) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	d, ok := r.s.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &d, nil
}

func (r fakeDepartmentRepo) List(context.Context) ([]domain.Department, error) {
	out := make([]domain.Department, 0, len(r.s.departments))
	for _, d := range r.s.departments {
		out = append(out, d)
	}
	return out, nil
}

func (r fakeDepartmentRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := r.s.departments[id]
	return ok, nil
}

func (r fakeDepartmentRepo) ParentOf(_ context.Context, id int64) (*int64, bool, error) {
	d, ok := r.s.departments[id]
	if !ok {
		return nil, false, nil
	}
	return d.ParentID, true, nil
}

func (r fakeDepartmentRepo) CodeTaken(_ context.Context, org, code string, excludeID int64) (bool, error) {
	for _, d := range r.s.departments {
		if d.Organization == org && d.CodeZup == code && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeDepartmentRepo) Usage(_ context.Context, id int64) (domain.DepartmentUsage, error) {
	var u domain.DepartmentUsage
	for _, x := range r.s.users {
		if x.DepartmentID == id {
			u.Users++
		}
	}
	for _, x := range r.s.employees {
		if x.DepartmentID == id {
			u.Employees++
		}
	}
	for _, x := range r.s.positions {
		if x.DepartmentID == id {
			u.Positions++
		}
	}
	for _, x := range r.s.departments {
		if x.ParentID != nil && *x.ParentID == id {
			u.Children++
		}
	}
	return u, nil
}

func (r fakeDepartmentRepo) Hierarchy(context.Context) ([]domain.HierarchyEntry, error) {
	nodes := make([]orgtree.Node, 0, len(r.s.departments))
	for _, d := range r.s.departments {
		nodes = append(nodes, orgtree.Node{ID: d.ID, Name: d.Name, ParentID: d.ParentID})
	}
	return orgtree.Levels(nodes), nil
}

func (r fakeDepartmentRepo) ListWithEmployees(ctx context.Context) ([]domain.DepartmentWithEmployees, error) {
	depts, _ := r.List(ctx)
	sort.Slice(depts, func(i, j int) bool {
		if depts[i].Name != depts[j].Name {
			return depts[i].Name < depts[j].Name
		}
		return depts[i].ID < depts[j].ID
	})
	emps := sortedEmployees(r.s)
	out := make([]domain.DepartmentWithEmployees, 0, len(depts))
	for _, d := range depts {
		entry := domain.DepartmentWithEmployees{
			ID: d.ID, Name: d.Name, Fullname: d.Fullname, CodeZup: d.CodeZup,
			Organization: d.Organization, ParentID: d.ParentID, Employees: []domain.DepartmentEmployee{},
		}
		for _, e := range emps {
			if e.DepartmentID != d.ID {
				continue
			}
			var posName *string
			if p, ok := r.s.positions[e.PositionID]; ok {
				name := p.Name
				posName = &name
			}
			entry.Employees = append(entry.Employees, domain.DepartmentEmployee{
				ID: e.ID, Lastname: e.Lastname, Firstname: e.Firstname, Middlename: e.Middlename,
				PositionID: e.PositionID, PositionName: posName,
			})
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r fakeDepartmentRepo) LockHierarchy(context.Context) error { return nil }

type fakeUserRepo struct {
	s      *fakeStore
	getErr error
}

func (r fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	u.ID = r.s.id("users")
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.s.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	u.UpdatedAt = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r fakeUserRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.s.users[id]; !ok {
		return false, nil
	}
	delete(r.s.users, id)
	return true, nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeUserRepo) List(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeUserRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakePositionRepo struct{ s *fakeStore }

func (r fakePositionRepo) Create(_ context.Context, p *domain.Position) error {
	p.ID = r.s.id("positions")
	r.s.positions[p.ID] = *p
	return nil
}

func (r fakePositionRepo) Update(_ context.Context, p *domain.Position) error {
	if _, ok := r.s.positions[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.positions[p.ID] = *p
	return nil
}

func (r fakePositionRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.s.positions[id]; !ok {
		return false, nil
	}
	delete(r.s.positions, id)
	return true, nil
}

func (r fakePositionRepo) GetByID(_ context.Context, id int64) (*domain.Position, error) {
	p, ok := r.s.positions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p.DepartmentName = r.s.departments[p.DepartmentID].Name
	return &p, nil
}

func (r fakePositionRepo) List(_ context.Context, departmentID *int64) ([]domain.Position, error) {
	out := make([]domain.Position, 0)
	for _, p := range r.s.positions {
		if departmentID != nil && p.DepartmentID != *departmentID {
			continue
		}
		p.DepartmentName = r.s.departments[p.DepartmentID].Name
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakePositionRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := r.s.positions[id]
	return ok, nil
}

func (r fakePositionRepo) CountEmployees(_ context.Context, id int64) (int, error) {
	n := 0
	for _, e := range r.s.employees {
		if e.PositionID == id {
			n++
		}
	}
	return n, nil
}

type fakeEmployeeRepo struct{ s *fakeStore }

func sortedEmployees(s *fakeStore) []domain.Employee {
	out := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		e.DepartmentName = s.departments[e.DepartmentID].Name
		e.PositionName = s.positions[e.PositionID].Name
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lastname != out[j].Lastname {
			return out[i].Lastname < out[j].Lastname
		}
		if out[i].Firstname != out[j].Firstname {
			return out[i].Firstname < out[j].Firstname
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r fakeEmployeeRepo) Create(_ context.Context, e *domain.Employee) error {
	e.ID = r.s.id("employees")
	r.s.employees[e.ID] = *e
	return nil
}

func (r fakeEmployeeRepo) Update(_ context.Context, e *domain.Employee) error {
	if _, ok := r.s.employees[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.employees[e.ID] = *e
	return nil
}

func (r fakeEmployeeRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.s.employees[id]; !ok {
		return false, nil
	}
	delete(r.s.employees, id)
	return true, nil
}

func (r fakeEmployeeRepo) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	for _, e := range sortedEmployees(r.s) {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeEmployeeRepo) List(_ context.Context, f repository.EmployeeFilter) ([]domain.Employee, error) {
	out := make([]domain.Employee, 0)
	for _, e := range sortedEmployees(r.s) {
		if f.DepartmentID != nil && e.DepartmentID != *f.DepartmentID {
			continue
		}
		if !f.IncludeDismissed && e.DismissalDate != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r fakeEmployeeRepo) Count(context.Context) (int, error) {
	return len(r.s.employees), nil
}

type fakeNewsRepo struct{ s *fakeStore }

func (r fakeNewsRepo) Create(_ context.Context, n *domain.News) error {
	n.ID = r.s.id("news")
	n.CreatedAt = r.s.now()
	if n.Published {
		ts := n.CreatedAt
		n.PublishDate = &ts
	}
	r.s.news[n.ID] = *n
	return nil
}

func (r fakeNewsRepo) Update(_ context.Context, n *domain.News) error {
	stored, ok := r.s.news[n.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title, stored.Content, stored.Image = n.Title, n.Content, n.Image
	r.s.news[n.ID] = stored
	*n = stored
	return nil
}

func (r fakeNewsRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.s.news[id]; !ok {
		return false, nil
	}
	delete(r.s.news, id)
	return true, nil
}

func (r fakeNewsRepo) GetByID(_ context.Context, id int64) (*domain.News, error) {
	n, ok := r.s.news[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &n, nil
}

func newsSortKey(n domain.News) time.Time {
	if n.PublishDate != nil {
		return *n.PublishDate
	}
	return n.CreatedAt
}

func (r fakeNewsRepo) List(_ context.Context, publishedOnly bool, limit int) ([]domain.News, error) {
	out := make([]domain.News, 0)
	for _, n := range r.s.news {
		if publishedOnly && !n.Published {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := newsSortKey(out[i]), newsSortKey(out[j])
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeNewsRepo) SetPublished(_ context.Context, id int64, published bool) (*domain.News, error) {
	n, ok := r.s.news[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	n.Published = published
	n.PublishDate = nil
	if published {
		ts := r.s.now()
		n.PublishDate = &ts
	}
	r.s.news[id] = n
	return &n, nil
}

// fakeSessions is an in-memory auth.SessionStore.
type fakeSessions struct {
	revoked  map[string]time.Time
	failures map[string]int64
	err      error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{revoked: map[string]time.Time{}, failures: map[string]int64{}}
}

func (f *fakeSessions) Revoke(_ context.Context, id string, until time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.revoked[id] = until
	return nil
}

func (f *fakeSessions) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := f.revoked[id]
	return ok, f.err
}

func (f *fakeSessions) RegisterFailure(_ context.Context, email string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.failures[email]++
	return f.failures[email], nil
}

func (f *fakeSessions) Failures(_ context.Context, email string) (int64, error) {
	return f.failures[email], f.err
}

func (f *fakeSessions) ResetFailures(_ context.Context, email string) error {
	delete(f.failures, email)
	return f.err
}

var errStoreDown = errors.New("connection refused")

// env wires every service over one fake store.
type env struct {
	store       *fakeStore
	tx          *fakeTx
	dispatcher  *recordingDispatcher
	departments *DepartmentService
	users       *UserService
	positions   *PositionService
	employees   *EmployeeService
	news        *NewsService
	phonebook   *PhonebookService
}

func newEnv() *env {
	store := newFakeStore()
	tx := &fakeTx{store: store}
	dispatcher := &recordingDispatcher{}
	deptRepo := fakeDepartmentRepo{s: store}
	posRepo := fakePositionRepo{s: store}
	empRepo := fakeEmployeeRepo{s: store}

	return &env{
		store:      store,
		tx:         tx,
		dispatcher: dispatcher,
		departments: NewDepartmentService(DepartmentDependencies{
			DepartmentRepo: deptRepo, TxManager: tx, Dispatcher: dispatcher, OrganizationName: "НСРЗ",
		}),
		users: NewUserService(UserDependencies{
			UserRepo: fakeUserRepo{s: store}, DepartmentRepo: deptRepo, TxManager: tx, Dispatcher: dispatcher, BcryptCost: 4,
		}),
		positions: NewPositionService(PositionDependencies{
			PositionRepo: posRepo, DepartmentRepo: deptRepo, TxManager: tx,
		}),
		employees: NewEmployeeService(EmployeeDependencies{
			EmployeeRepo: empRepo, PositionRepo: posRepo, DepartmentRepo: deptRepo, TxManager: tx,
		}),
		news:      NewNewsService(NewsDependencies{NewsRepo: fakeNewsRepo{s: store}, Dispatcher: dispatcher}),
		phonebook: NewPhonebookService(empRepo),
	}
}

type rowCounts struct {
	departments, users, positions, employees int
}

func (e *env) counts() rowCounts {
	return rowCounts{
		departments: len(e.store.departments),
		users:       len(e.store.users),
		positions:   len(e.store.positions),
		employees:   len(e.store.employees),
	}
}

func int64p(v int64) *int64 { return &v }
func strp(s string) *string { return &s }

func date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// depth returns the number of parent hops from id to a root, or -1 if id is unknown or
// its chain never reaches a root.
func depth(id int64, parents map[int64]*int64) int {
	hops := 0
	seen := make(map[int64]struct{})
	for {
		parentID, ok := parents[id]
		if !ok {
			return -1
		}
		if parentID == nil {
			return hops
		}
		if _, loop := seen[id]; loop {
			return -1
		}
		seen[id] = struct{}{}
		id = *parentID
		hops++
	}
}
