package dto

import "github.com/nsrz/intranet/internal/service"

// DepartmentCreateRequest payload for POST /departments.
type DepartmentCreateRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Fullname     string `json:"fullname" validate:"required,max=512"`
	CodeZup      string `json:"code_zup" validate:"required,max=64"`
	Organization string `json:"organization" validate:"required,max=255"`
	ParentID     *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

func (r DepartmentCreateRequest) Input() service.DepartmentCreateInput {
	return service.DepartmentCreateInput{
		Name:         r.Name,
		Fullname:     r.Fullname,
		CodeZup:      r.CodeZup,
		Organization: r.Organization,
		ParentID:     r.ParentID,
	}
}

// DepartmentUpdateRequest is a partial update. "parent_id": null makes the department a root.
type DepartmentUpdateRequest struct {
	Name         *string         `json:"name" validate:"omitempty,max=255"`
	Fullname     *string         `json:"fullname" validate:"omitempty,max=512"`
	CodeZup      *string         `json:"code_zup" validate:"omitempty,max=64"`
	Organization *string         `json:"organization" validate:"omitempty,max=255"`
	ParentID     Optional[int64] `json:"parent_id"`
}

func (r DepartmentUpdateRequest) Input() service.DepartmentUpdateInput {
	return service.DepartmentUpdateInput{
		Name:         r.Name,
		Fullname:     r.Fullname,
		CodeZup:      r.CodeZup,
		Organization: r.Organization,
		ParentID:     r.ParentID.Value,
		ParentIDSet:  r.ParentID.Set,
	}
}

// DepartmentParentRequest payload for PUT /departments/:id/parent.
type DepartmentParentRequest struct {
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}
