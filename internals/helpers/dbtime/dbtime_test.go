package dbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kampala = time.FixedZone("EAT", 3*60*60)

func TestCivilDateKeepsLocalDay(t *testing.T) {
	// 00:30 in Kampala is still the previous day in UTC
	local := time.Date(2026, 10, 14, 0, 30, 0, 0, kampala)
	got := CivilDate(local)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, kampala), TodayIn(kampala, local.UTC()))
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		month     string
		wantFirst string
		wantLast  string
	}{
		{"2026-10", "2026-10-01", "2026-10-31"},
		{"2024-02", "2024-02-01", "2024-02-29"},
		{" 2026-04 ", "2026-04-01", "2026-04-30"},
	}
	for _, tt := range tests {
		first, last, err := MonthRange(tt.month, kampala)
		require.NoError(t, err, tt.month)
		assert.Equal(t, tt.wantFirst, first.Format("2006-01-02"))
		assert.Equal(t, tt.wantLast, last.Format("2006-01-02"))
	}
	_, _, err := MonthRange("2026-13", kampala)
	assert.Error(t, err)
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"monday": time.Monday, "Sat": time.Saturday, " FRIDAY ": time.Friday} {
		got, ok := ParseWeekday(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "mo", "funday", "mond"} {
		_, ok := ParseWeekday(in)
		assert.False(t, ok, in)
	}
}

func TestTod(t *testing.T) {
	late := MustParse("09:00")
	tests := []struct {
		at    string
		after bool
	}{
		{"08:59", false},
		{"09:00", false},
		{"09:00:59", false},
		{"09:01", true},
		{"10:00", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.after, MustParse(tt.at).After(late), tt.at)
	}

	_, err := Parse("9am")
	assert.Error(t, err)

	var scanned Tod
	require.NoError(t, scanned.Scan([]byte("17:30:00")))
	assert.Equal(t, "17:30", scanned.String())
	v, _ := scanned.Value()
	assert.Equal(t, "17:30:00", v)

	b, err := scanned.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"17:30"`, string(b))
	var back Tod
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, scanned.String(), back.String())
}
