package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffStatus(t *testing.T) {
	tests := []struct {
		in       string
		want     StaffStatus
		signedIn bool
		wantErr  bool
	}{
		{in: "present", want: StaffPresent, signedIn: true},
		{in: " LATE ", want: StaffLate, signedIn: true},
		{in: "Absent", want: StaffAbsent, signedIn: false},
		{in: "sick", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStaffStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.signedIn, got.SignedIn())
			assert.Equal(t, tt.signedIn, contains(SignedInStatuses, got))
		})
	}
}

func contains(list []StaffStatus, s StaffStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
