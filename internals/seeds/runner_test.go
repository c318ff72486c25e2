package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	staffDTO "schoolku_backend/internals/features/hr/staff/dto"
	"schoolku_backend/internals/features/schools/classes/seed"
	schoolModel "schoolku_backend/internals/features/schools/schools/model"
)

func TestDemoFixtureIsUsable(t *testing.T) {
	d, err := loadDemo()
	require.NoError(t, err)
	assert.NotEmpty(t, d.Admin.Email)
	assert.NotEmpty(t, d.Students)

	level, ok := schoolModel.ParseSchoolLevel(d.School.Level)
	require.True(t, ok)
	classes, err := seed.DefaultClasses(level)
	require.NoError(t, err)
	codes := map[string]bool{}
	for _, c := range classes {
		codes[c.Code] = true
	}
	for _, s := range d.Students {
		assert.True(t, codes[s.Class], "class %s of %s is not seeded", s.Class, s.FirstName)
	}
	for _, s := range d.Staff {
		req := staffDTO.StaffRequest{
			StaffName: s.Name, StaffPosition: s.Position, StaffDepartment: s.Department,
			StaffSalary: staffDTO.Amount(s.Salary), StaffEmail: s.Email, StaffNINNumber: s.NINNumber,
		}
		assert.Nil(t, req.Validate(), s.Name)
	}
}
