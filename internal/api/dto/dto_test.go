package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsrz/intranet/internal/domain"
	apperrors "github.com/nsrz/intranet/pkg/util"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(DepartmentCreateRequest{Name: "IT"})
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))

	details := apperrors.ToDomainError(err).Details
	assert.Equal(t, "required", details["fullname"])
	assert.Equal(t, "required", details["code_zup"])
	assert.Equal(t, "required", details["organization"])
	assert.NotContains(t, details, "name")
}

func TestValidateAcceptsCompletePayload(t *testing.T) {
	parent := int64(3)
	req := DepartmentCreateRequest{Name: "IT", Fullname: "Information technology", CodeZup: "0001", Organization: "НСРЗ", ParentID: &parent}
	require.NoError(t, Validate(req))

	zero := int64(0)
	req.ParentID = &zero
	err := Validate(req)
	require.Error(t, err)
	assert.Equal(t, "gt=0", apperrors.ToDomainError(err).Details["parent_id"])
}

func TestDepartmentUpdateDistinguishesNullFromAbsent(t *testing.T) {
	var absent DepartmentUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ops"}`), &absent))
	in := absent.Input()
	assert.False(t, in.ParentIDSet)
	require.NotNil(t, in.Name)
	assert.Equal(t, "Ops", *in.Name)

	var null DepartmentUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"parent_id":null}`), &null))
	in = null.Input()
	assert.True(t, in.ParentIDSet)
	assert.Nil(t, in.ParentID)

	var set DepartmentUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"parent_id":7}`), &set))
	in = set.Input()
	assert.True(t, in.ParentIDSet)
	require.NotNil(t, in.ParentID)
	assert.Equal(t, int64(7), *in.ParentID)
}

func TestUserCreateRequestRules(t *testing.T) {
	req := UserCreateRequest{Email: "not-an-email", Password: "x", Lastname: "Ivanov", Firstname: "Ivan", Role: "root", DepartmentID: 1}
	err := Validate(req)
	require.Error(t, err)
	details := apperrors.ToDomainError(err).Details
	assert.Equal(t, "email", details["email"])
	assert.Equal(t, "oneof=admin user hr", details["role"])

	req.Email = "ivan@example.com"
	req.Role = "hr"
	require.NoError(t, Validate(req))
	assert.Equal(t, domain.RoleHR, req.Input().Role)
}

func TestUserResponseOmitsPasswordHash(t *testing.T) {
	resp := NewUserResponse(&domain.User{ID: 1, Email: "a@b.c", PasswordHash: "secret-hash", Role: domain.RoleUser})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash")
	assert.NotContains(t, string(raw), "password")
}

func TestEmployeeCreateRequestParsesDates(t *testing.T) {
	dismissed := "2024-03-01"
	req := EmployeeCreateRequest{
		Lastname: "Petrov", Firstname: "Petr", DepartmentID: 1, PositionID: 2,
		BirthDate: "1990-05-17", HireDate: "2015-01-10", DismissalDate: &dismissed,
	}
	require.NoError(t, Validate(req))
	in, err := req.Input()
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), in.BirthDate)
	require.NotNil(t, in.DismissalDate)
	assert.Equal(t, 2024, in.DismissalDate.Year())

	req.HireDate = "10.01.2015"
	err = Validate(req)
	require.Error(t, err)
	assert.Contains(t, apperrors.ToDomainError(err).Details, "hire_date")
}

func TestEmployeeUpdateRequestDismissal(t *testing.T) {
	var reinstate EmployeeUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dismissal_date":null}`), &reinstate))
	in, err := reinstate.Input()
	require.NoError(t, err)
	assert.True(t, in.ClearDismissal)
	assert.Nil(t, in.DismissalDate)

	var dismiss EmployeeUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dismissal_date":"2025-12-31"}`), &dismiss))
	in, err = dismiss.Input()
	require.NoError(t, err)
	assert.False(t, in.ClearDismissal)
	require.NotNil(t, in.DismissalDate)

	var bad EmployeeUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dismissal_date":"31/12/2025"}`), &bad))
	_, err = bad.Input()
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEmployeeResponseFormatsDates(t *testing.T) {
	resp := NewEmployeeResponse(&domain.Employee{
		ID: 4, Lastname: "Sidorova",
		BirthDate: time.Date(1985, 11, 2, 0, 0, 0, 0, time.UTC),
		HireDate:  time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "1985-11-02", resp.BirthDate)
	assert.Equal(t, "2010-06-01", resp.HireDate)
	assert.Nil(t, resp.DismissalDate)
}

func TestNewsPublishRequestRequiresFlag(t *testing.T) {
	require.Error(t, Validate(NewsPublishRequest{}))
	off := false
	require.NoError(t, Validate(NewsPublishRequest{Published: &off}))
}
