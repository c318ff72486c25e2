package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/students/students/model"
	helper "schoolku_backend/internals/helpers"
)

const MsgRequiredFields = "Please fill required fields: First Name, Last Name, Class."

/* =========================================================
   CREATE
   ========================================================= */

type CreateStudentRequest struct {
	StudentFirstName          string   `json:"student_first_name" form:"student_first_name"`
	StudentMiddleName         string   `json:"student_middle_name" form:"student_middle_name"`
	StudentLastName           string   `json:"student_last_name" form:"student_last_name"`
	StudentGender             string   `json:"student_gender" form:"student_gender"`
	StudentDateOfBirth        string   `json:"student_date_of_birth" form:"student_date_of_birth"`
	StudentClassID            string   `json:"student_class_id" form:"student_class_id"`
	StudentRegistrationNumber string   `json:"student_registration_number" form:"student_registration_number"`
	StudentGuardianPhone      string   `json:"student_guardian_phone" form:"student_guardian_phone"`
	StudentStatus             string   `json:"student_status" form:"student_status"`
	StudentFeeBalance         *float64 `json:"student_fee_balance" form:"student_fee_balance"`
}

// ToModel validates the request and builds the row. The message is user facing.
func (r *CreateStudentRequest) ToModel(schoolID, actor uuid.UUID) (*model.StudentModel, string) {
	first := strings.TrimSpace(r.StudentFirstName)
	last := strings.TrimSpace(r.StudentLastName)
	classID, err := uuid.Parse(strings.TrimSpace(r.StudentClassID))
	if first == "" || last == "" || err != nil {
		return nil, MsgRequiredFields
	}

	m := &model.StudentModel{
		StudentSchoolID:           schoolID,
		StudentClassID:            classID,
		StudentFirstName:          first,
		StudentMiddleName:         helper.StrPtr(r.StudentMiddleName),
		StudentLastName:           last,
		StudentRegistrationNumber: helper.StrPtr(r.StudentRegistrationNumber),
		StudentGuardianPhone:      helper.StrPtr(r.StudentGuardianPhone),
		StudentStatus:             model.StudentActive,
		StudentCreatedBy:          &actor,
		StudentUpdatedBy:          &actor,
	}
	if msg := applyEnums(m, r.StudentGender, r.StudentStatus, r.StudentDateOfBirth); msg != "" {
		return nil, msg
	}
	if r.StudentFeeBalance != nil {
		m.StudentFeeBalance = *r.StudentFeeBalance
	}
	return m, ""
}

func applyEnums(m *model.StudentModel, gender, status, dob string) string {
	if g := strings.TrimSpace(gender); g != "" {
		v, err := model.ParseGender(g)
		if err != nil {
			return "Gender must be Male, Female or Other."
		}
		m.StudentGender = &v
	}
	if s := strings.TrimSpace(status); s != "" {
		v, err := model.ParseStudentStatus(s)
		if err != nil {
			return "Status must be Active, Inactive, Graduated or Withdrawn."
		}
		m.StudentStatus = v
	}
	if d := strings.TrimSpace(dob); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return "Date of birth must be in YYYY-MM-DD format."
		}
		m.StudentDateOfBirth = &t
	}
	return ""
}

/* =========================================================
   UPDATE (partial)
   ========================================================= */

type UpdateStudentRequest struct {
	StudentFirstName          *string  `json:"student_first_name"`
	StudentMiddleName         *string  `json:"student_middle_name"`
	StudentLastName           *string  `json:"student_last_name"`
	StudentGender             *string  `json:"student_gender"`
	StudentDateOfBirth        *string  `json:"student_date_of_birth"`
	StudentClassID            *string  `json:"student_class_id"`
	StudentRegistrationNumber *string  `json:"student_registration_number"`
	StudentGuardianPhone      *string  `json:"student_guardian_phone"`
	StudentStatus             *string  `json:"student_status"`
	StudentFeeBalance         *float64 `json:"student_fee_balance"`
}

// ApplyToModel mutates m; it returns a user facing message on invalid input.
func (r *UpdateStudentRequest) ApplyToModel(m *model.StudentModel, actor uuid.UUID) string {
	if r.StudentFirstName != nil {
		if m.StudentFirstName = strings.TrimSpace(*r.StudentFirstName); m.StudentFirstName == "" {
			return MsgRequiredFields
		}
	}
	if r.StudentLastName != nil {
		if m.StudentLastName = strings.TrimSpace(*r.StudentLastName); m.StudentLastName == "" {
			return MsgRequiredFields
		}
	}
	if r.StudentClassID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*r.StudentClassID))
		if err != nil {
			return MsgRequiredFields
		}
		m.StudentClassID = id
	}
	if r.StudentMiddleName != nil {
		m.StudentMiddleName = helper.TrimPtr(r.StudentMiddleName)
	}
	if r.StudentRegistrationNumber != nil {
		m.StudentRegistrationNumber = helper.TrimPtr(r.StudentRegistrationNumber)
	}
	if r.StudentGuardianPhone != nil {
		m.StudentGuardianPhone = helper.TrimPtr(r.StudentGuardianPhone)
	}
	var gender, status, dob string
	if r.StudentGender != nil {
		if gender = *r.StudentGender; strings.TrimSpace(gender) == "" {
			m.StudentGender = nil
		}
	}
	if r.StudentStatus != nil {
		status = *r.StudentStatus
	}
	if r.StudentDateOfBirth != nil {
		if dob = *r.StudentDateOfBirth; strings.TrimSpace(dob) == "" {
			m.StudentDateOfBirth = nil
		}
	}
	if msg := applyEnums(m, gender, status, dob); msg != "" {
		return msg
	}
	if r.StudentFeeBalance != nil {
		m.StudentFeeBalance = *r.StudentFeeBalance
	}
	m.StudentUpdatedBy = &actor
	return ""
}

/* =========================================================
   RESPONSE
   ========================================================= */

type StudentResponse struct {
	model.StudentModel
	StudentFullName string `json:"student_full_name"`
	ClassName       string `json:"class_name,omitempty"`
}

func ToStudentResponse(m *model.StudentModel, className string) StudentResponse {
	return StudentResponse{StudentModel: *m, StudentFullName: m.FullName(), ClassName: className}
}
