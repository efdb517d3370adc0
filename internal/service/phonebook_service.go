package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/xuri/excelize/v2"

	"github.com/nsrz/intranet/internal/domain"
	"github.com/nsrz/intranet/internal/repository"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

// PhonebookEntry is one line of the company phone directory.
type PhonebookEntry struct {
	EmployeeID   int64   `json:"employee_id"`
	Name         string  `json:"name"`
	DepartmentID int64   `json:"department_id"`
	Department   string  `json:"department"`
	Position     string  `json:"position"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
}

func (e PhonebookEntry) searchText() string {
	return e.Name + " " + e.Position + " " + e.Department
}

// PhonebookService builds the directory of current employees.
type PhonebookService struct {
	employees repository.EmployeeRepository
}

func NewPhonebookService(employees repository.EmployeeRepository) *PhonebookService {
	return &PhonebookService{employees: employees}
}

// Search lists current employees, optionally limited to one department. A non-empty query
// keeps fuzzy matches only, best match first.
func (s *PhonebookService) Search(ctx context.Context, query string, departmentID *int64) ([]PhonebookEntry, error) {
	employees, err := s.employees.List(ctx, repository.EmployeeFilter{DepartmentID: departmentID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries := make([]PhonebookEntry, 0, len(employees))
	for _, emp := range employees {
		if emp.Dismissed() {
			continue
		}
		entries = append(entries, toPhonebookEntry(emp))
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return entries, nil
	}

	targets := make([]string, len(entries))
	for i, e := range entries {
		targets[i] = e.searchText()
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	matched := make([]PhonebookEntry, 0, len(ranks))
	for _, r := range ranks {
		matched = append(matched, entries[r.OriginalIndex])
	}
	return matched, nil
}

var phonebookHeader = []string{"ФИО", "Подразделение", "Должность", "Телефон", "Email"}

// Export renders entries as an XLSX workbook.
func (s *PhonebookService) Export(entries []PhonebookEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Phonebook"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range phonebookHeader {
		if err := setCell(f, sheet, col+1, 1, title); err != nil {
			return nil, err
		}
	}
	for i, e := range entries {
		row := i + 2
		values := []any{e.Name, e.Department, e.Position, derefOr(e.Phone), derefOr(e.Email)}
		for col, v := range values {
			if err := setCell(f, sheet, col+1, row, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

func toPhonebookEntry(emp domain.Employee) PhonebookEntry {
	return PhonebookEntry{
		EmployeeID:   emp.ID,
		Name:         emp.FullName(),
		DepartmentID: emp.DepartmentID,
		Department:   emp.DepartmentName,
		Position:     emp.PositionName,
		Phone:        emp.Phone,
		Email:        emp.Email,
	}
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
