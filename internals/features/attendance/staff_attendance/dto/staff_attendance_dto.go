package dto

import (
	"strings"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/attendance/staff_attendance/service"
)

// PinRequest is what the kiosk keypad sends.
type PinRequest struct {
	PIN string `json:"pin" form:"pin"`
}

func (r *PinRequest) Normalize() string {
	return strings.TrimSpace(r.PIN)
}

type RecordRequest struct {
	StaffID string `json:"staff_id" validate:"required,uuid"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks" validate:"max=500"`
}

// ToInput assumes the request passed validation.
func (r *RecordRequest) ToInput() service.RecordInput {
	return service.RecordInput{
		StaffID: uuid.MustParse(r.StaffID),
		Date:    strings.TrimSpace(r.Date),
		Status:  r.Status,
		Remarks: r.Remarks,
	}
}

// GeneralSettingsResponse flattens the stored row for the settings screen.
type GeneralSettingsResponse struct {
	LateTime string   `json:"late_time"`
	OffDays  []string `json:"off_days"`
}

func ToGeneralSettingsResponse(lateTime string, offDays []string) GeneralSettingsResponse {
	if offDays == nil {
		offDays = []string{}
	}
	return GeneralSettingsResponse{LateTime: lateTime, OffDays: offDays}
}
