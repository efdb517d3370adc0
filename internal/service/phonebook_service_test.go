package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedPhonebook(t *testing.T, e *env) (plant, office int64) {
	t.Helper()
	ctx := context.Background()
	plant = createDept(t, e, "Plant", nil)
	office = createDept(t, e, "Office", nil)
	welder, err := e.positions.Create(ctx, "Welder", plant)
	require.NoError(t, err)
	clerk, err := e.positions.Create(ctx, "Accountant", office)
	require.NoError(t, err)

	people := []EmployeeCreateInput{
		{Lastname: "Ivanov", Firstname: "Ivan", DepartmentID: plant, PositionID: welder.ID, Phone: strp("101")},
		{Lastname: "Petrova", Firstname: "Maria", DepartmentID: office, PositionID: clerk.ID, Phone: strp("202")},
		{Lastname: "Sidorov", Firstname: "Petr", DepartmentID: plant, PositionID: welder.ID},
	}
	for _, p := range people {
		p.BirthDate, p.HireDate = date("1980-01-01"), date("2010-01-01")
		_, err := e.employees.Create(ctx, p)
		require.NoError(t, err)
	}
	gone := date("2015-01-01")
	_, err = e.employees.Create(ctx, EmployeeCreateInput{
		Lastname: "Ivanova", Firstname: "Olga", DepartmentID: plant, PositionID: welder.ID,
		BirthDate: date("1980-01-01"), HireDate: date("2010-01-01"), DismissalDate: &gone,
	})
	require.NoError(t, err)
	return plant, office
}

func TestPhonebookSearch(t *testing.T) {
	e := newEnv()
	plant, _ := seedPhonebook(t, e)
	ctx := context.Background()

	all, err := e.phonebook.Search(ctx, "", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3, "dismissed employees are left out")

	byDept, err := e.phonebook.Search(ctx, "", &plant)
	require.NoError(t, err)
	assert.Len(t, byDept, 2)

	hits, err := e.phonebook.Search(ctx, "ivanov", nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Ivanov Ivan", hits[0].Name)

	hits, err = e.phonebook.Search(ctx, "accnt", nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Petrova Maria", hits[0].Name)

	hits, err = e.phonebook.Search(ctx, "zzzz", nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPhonebookExport(t *testing.T) {
	e := newEnv()
	seedPhonebook(t, e)
	entries, err := e.phonebook.Search(context.Background(), "", nil)
	require.NoError(t, err)

	data, err := e.phonebook.Export(entries)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Phonebook")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "ФИО", rows[0][0])
	assert.Equal(t, "Ivanov Ivan", rows[1][0])
	assert.Equal(t, "101", rows[1][3])
}
