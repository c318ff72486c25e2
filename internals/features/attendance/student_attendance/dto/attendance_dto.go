package dto

import (
	"github.com/google/uuid"

	"schoolku_backend/internals/features/attendance/student_attendance/service"
)

type BulkMarkEntry struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"omitempty,max=10"`
	Notes     string `json:"notes" validate:"max=500"`
}

type BulkMarkRequest struct {
	ClassID string          `json:"class_id" validate:"omitempty,uuid"`
	Entries []BulkMarkEntry `json:"entries" validate:"required,min=1,max=500,dive"`
}

// ToInput assumes the request passed validation.
func (r *BulkMarkRequest) ToInput() service.BulkInput {
	in := service.BulkInput{Entries: make([]service.BulkEntry, 0, len(r.Entries))}
	if id, err := uuid.Parse(r.ClassID); err == nil {
		in.ClassID = &id
	}
	for _, e := range r.Entries {
		in.Entries = append(in.Entries, service.BulkEntry{
			StudentID: uuid.MustParse(e.StudentID),
			Status:    e.Status,
			Notes:     e.Notes,
		})
	}
	return in
}

type QuickMarkRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required"`
	Notes     string `json:"notes" validate:"max=500"`
}

func (r *QuickMarkRequest) ToInput() service.QuickInput {
	return service.QuickInput{StudentID: uuid.MustParse(r.StudentID), Status: r.Status, Notes: r.Notes}
}
