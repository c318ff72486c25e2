package dto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/features/students/students/model"
)

func TestCreateStudentRequest_ToModel(t *testing.T) {
	school, actor, class := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name    string
		req     CreateStudentRequest
		wantMsg string
	}{
		{"missing first name", CreateStudentRequest{StudentLastName: "Okello", StudentClassID: class.String()}, MsgRequiredFields},
		{"missing class", CreateStudentRequest{StudentFirstName: "Brian", StudentLastName: "Okello"}, MsgRequiredFields},
		{"bad class id", CreateStudentRequest{StudentFirstName: "Brian", StudentLastName: "Okello", StudentClassID: "p1"}, MsgRequiredFields},
		{"bad gender", CreateStudentRequest{StudentFirstName: "Brian", StudentLastName: "Okello", StudentClassID: class.String(), StudentGender: "x"}, "Gender must be Male, Female or Other."},
		{"bad dob", CreateStudentRequest{StudentFirstName: "Brian", StudentLastName: "Okello", StudentClassID: class.String(), StudentDateOfBirth: "01/02/2015"}, "Date of birth must be in YYYY-MM-DD format."},
		{"ok", CreateStudentRequest{StudentFirstName: " Brian ", StudentLastName: "Okello", StudentClassID: class.String(), StudentGender: "male", StudentStatus: "graduated", StudentMiddleName: "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, msg := tt.req.ToModel(school, actor)
			assert.Equal(t, tt.wantMsg, msg)
			if tt.wantMsg != "" {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, "Brian", m.StudentFirstName)
			assert.Nil(t, m.StudentMiddleName)
			assert.Equal(t, model.StudentGraduated, m.StudentStatus)
			require.NotNil(t, m.StudentGender)
			assert.Equal(t, model.GenderMale, *m.StudentGender)
			assert.Equal(t, "Brian Okello", m.FullName())
		})
	}
}

func TestCreateStudentRequest_DefaultsActive(t *testing.T) {
	m, msg := (&CreateStudentRequest{StudentFirstName: "A", StudentLastName: "B", StudentClassID: uuid.NewString()}).ToModel(uuid.New(), uuid.New())
	require.Empty(t, msg)
	assert.Equal(t, model.StudentActive, m.StudentStatus)
}

func TestUpdateStudentRequest_ApplyToModel(t *testing.T) {
	g := model.GenderFemale
	m := &model.StudentModel{StudentFirstName: "Amina", StudentLastName: "Nakato", StudentStatus: model.StudentActive, StudentGender: &g}
	actor := uuid.New()

	status, blank := "INACTIVE", ""
	msg := (&UpdateStudentRequest{StudentStatus: &status, StudentGender: &blank}).ApplyToModel(m, actor)
	assert.Empty(t, msg)
	assert.Equal(t, model.StudentInactive, m.StudentStatus)
	assert.Nil(t, m.StudentGender)
	assert.Equal(t, actor, *m.StudentUpdatedBy)

	empty := "  "
	assert.Equal(t, MsgRequiredFields, (&UpdateStudentRequest{StudentLastName: &empty}).ApplyToModel(m, actor))
}
