package dto

import (
	"strings"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/schools/classes/model"
)

type CreateClassRequest struct {
	ClassName      string `json:"class_name" validate:"notblank,max=80"`
	ClassCode      string `json:"class_code" validate:"notblank,max=32"`
	ClassSortOrder *int   `json:"class_sort_order" validate:"omitempty,min=0"`
}

// Normalize trims and upper-cases the code so "p1" and "P1 " collide.
func (r *CreateClassRequest) Normalize() {
	r.ClassName = strings.TrimSpace(r.ClassName)
	r.ClassCode = strings.ToUpper(strings.TrimSpace(r.ClassCode))
}

func (r *CreateClassRequest) ToModel(schoolID uuid.UUID) *model.ClassModel {
	m := &model.ClassModel{
		ClassSchoolID: schoolID,
		ClassName:     r.ClassName,
		ClassCode:     r.ClassCode,
	}
	if r.ClassSortOrder != nil {
		m.ClassSortOrder = *r.ClassSortOrder
	}
	return m
}

type UpdateClassRequest struct {
	ClassName      *string `json:"class_name" validate:"omitempty,max=80"`
	ClassCode      *string `json:"class_code" validate:"omitempty,max=32"`
	ClassSortOrder *int    `json:"class_sort_order" validate:"omitempty,min=0"`
}

func (r *UpdateClassRequest) Normalize() {
	if r.ClassName != nil {
		v := strings.TrimSpace(*r.ClassName)
		r.ClassName = &v
	}
	if r.ClassCode != nil {
		v := strings.ToUpper(strings.TrimSpace(*r.ClassCode))
		r.ClassCode = &v
	}
}

// Blank reports a field that was sent but is empty after trimming.
func (r *UpdateClassRequest) Blank() string {
	if r.ClassName != nil && *r.ClassName == "" {
		return "class_name"
	}
	if r.ClassCode != nil && *r.ClassCode == "" {
		return "class_code"
	}
	return ""
}

func (r *UpdateClassRequest) ApplyToModel(m *model.ClassModel) {
	if r.ClassName != nil {
		m.ClassName = *r.ClassName
	}
	if r.ClassCode != nil {
		m.ClassCode = *r.ClassCode
	}
	if r.ClassSortOrder != nil {
		m.ClassSortOrder = *r.ClassSortOrder
	}
}

type ClassResponse struct {
	ClassID        uuid.UUID `json:"class_id"`
	ClassName      string    `json:"class_name"`
	ClassCode      string    `json:"class_code"`
	ClassSortOrder int       `json:"class_sort_order"`
	StudentCount   int64     `json:"student_count"`
}

func ToClassResponse(m *model.ClassModel, students int64) ClassResponse {
	return ClassResponse{
		ClassID:        m.ClassID,
		ClassName:      m.ClassName,
		ClassCode:      m.ClassCode,
		ClassSortOrder: m.ClassSortOrder,
		StudentCount:   students,
	}
}
