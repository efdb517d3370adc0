package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

func seedPosition(t *testing.T, e *env) (deptID, posID int64) {
	t.Helper()
	deptID = createDept(t, e, "Plant", nil)
	pos, err := e.positions.Create(context.Background(), "Welder", deptID)
	require.NoError(t, err)
	return deptID, pos.ID
}

func TestPositionCreate_UnknownDepartment(t *testing.T) {
	e := newEnv()
	_, err := e.positions.Create(context.Background(), "Welder", 12)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, e.store.positions)

	_, err = e.positions.Create(context.Background(), " ", 1)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPositionDelete_BlockedByEmployees(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	dept, pos := seedPosition(t, e)
	_, err := e.employees.Create(ctx, EmployeeCreateInput{
		Lastname: "Kuznetsov", Firstname: "Oleg", DepartmentID: dept, PositionID: pos,
		BirthDate: date("1980-02-02"), HireDate: date("2001-09-01"),
	})
	require.NoError(t, err)

	ok, err := e.positions.Delete(ctx, pos)
	assert.False(t, ok)
	assert.True(t, apperrors.IsConflict(err))
	assert.Len(t, e.store.positions, 1)
}

func TestPositionUpdateAndList(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	dept, pos := seedPosition(t, e)
	other := createDept(t, e, "Office", nil)

	ok, err := e.positions.Update(ctx, pos, PositionInput{DepartmentID: &other})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Welder", e.store.positions[pos].Name)

	list, err := e.positions.List(ctx, &dept)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = e.positions.List(ctx, &other)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Office", list[0].DepartmentName)

	ok, err = e.positions.Update(ctx, 99, PositionInput{Name: strp("X")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmployeeCreate(t *testing.T) {
	e := newEnv()
	dept, pos := seedPosition(t, e)

	emp, err := e.employees.Create(context.Background(), EmployeeCreateInput{
		Lastname: " Kuznetsov ", Firstname: "Oleg", Middlename: "Petrovich", DepartmentID: dept, PositionID: pos,
		BirthDate: date("1980-02-02"), HireDate: date("2001-09-01"), Phone: strp(" 1234 "), Email: strp(""),
	})
	require.NoError(t, err)

	assert.Equal(t, "Kuznetsov", emp.Lastname)
	assert.Equal(t, "Plant", emp.DepartmentName)
	assert.Equal(t, "Welder", emp.PositionName)
	assert.Equal(t, "1234", *emp.Phone)
	assert.Nil(t, emp.Email)
	assert.Equal(t, "Kuznetsov Oleg Petrovich", emp.FullName())
}

func TestEmployeeCreate_References(t *testing.T) {
	e := newEnv()
	dept, pos := seedPosition(t, e)
	base := EmployeeCreateInput{
		Lastname: "A", Firstname: "B", BirthDate: date("1990-01-01"), HireDate: date("2015-01-01"),
	}

	in := base
	in.DepartmentID, in.PositionID = 999, pos
	_, err := e.employees.Create(context.Background(), in)
	assert.True(t, apperrors.IsNotFound(err))

	in = base
	in.DepartmentID, in.PositionID = dept, 999
	_, err = e.employees.Create(context.Background(), in)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, e.store.employees)
}

func TestEmployeeCreate_DismissalBeforeHire(t *testing.T) {
	e := newEnv()
	dept, pos := seedPosition(t, e)
	dismissed := date("2000-01-01")

	_, err := e.employees.Create(context.Background(), EmployeeCreateInput{
		Lastname: "A", Firstname: "B", DepartmentID: dept, PositionID: pos,
		BirthDate: date("1980-01-01"), HireDate: date("2001-01-01"), DismissalDate: &dismissed,
	})

	require.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.ToDomainError(err).Details, "dismissal_date")
}

func TestEmployeeUpdate(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	dept, pos := seedPosition(t, e)
	emp, err := e.employees.Create(ctx, EmployeeCreateInput{
		Lastname: "A", Firstname: "B", DepartmentID: dept, PositionID: pos, Phone: strp("100"),
		BirthDate: date("1980-01-01"), HireDate: date("2001-01-01"),
	})
	require.NoError(t, err)

	dismissed := date("2023-06-30")
	ok, err := e.employees.Update(ctx, emp.ID, EmployeeUpdateInput{DismissalDate: &dismissed, Phone: strp("")})
	require.NoError(t, err)
	require.True(t, ok)
	stored := e.store.employees[emp.ID]
	assert.Equal(t, "A", stored.Lastname)
	assert.Nil(t, stored.Phone)
	assert.True(t, stored.Dismissed())

	current, err := e.employees.List(ctx, repository.EmployeeFilter{})
	require.NoError(t, err)
	assert.Empty(t, current)
	all, err := e.employees.List(ctx, repository.EmployeeFilter{IncludeDismissed: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ok, err = e.employees.Update(ctx, emp.ID, EmployeeUpdateInput{ClearDismissal: true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, e.store.employees[emp.ID].Dismissed())

	_, err = e.employees.Update(ctx, emp.ID, EmployeeUpdateInput{PositionID: int64p(55), Lastname: strp("Z")})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "A", e.store.employees[emp.ID].Lastname)

	ok, err = e.employees.Update(ctx, 404, EmployeeUpdateInput{Lastname: strp("Z")})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.employees.Delete(ctx, emp.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
