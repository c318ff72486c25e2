package exportx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVBytes(t *testing.T) {
	c := NewCSV([]string{"Date", "Student Name", "Class", "Status", "Notes"}, 1, 2, 4)
	c.Add("2026-10-14", `Amina "Mimi" Nakato`, "P1", "Present", "")
	c.Add("2026-10-14", "Brian Okello", "P1", "Late", "bus,\nlate")

	want := "Date,Student Name,Class,Status,Notes\n" +
		`2026-10-14,"Amina ""Mimi"" Nakato","P1",Present,""` + "\n" +
		`2026-10-14,"Brian Okello","P1",Late,"bus, late"`
	assert.Equal(t, want, string(c.Bytes()))
	assert.Equal(t, 2, c.Len())
	assert.Len(t, strings.Split(string(c.Bytes()), "\n"), 3)
	assert.Equal(t, c.Bytes(), c.Bytes())
}

func TestCSVUnquotedColumnGetsQuotedWhenNeeded(t *testing.T) {
	c := NewCSV([]string{"a", "b"})
	c.Add("x,y", "plain")
	assert.Equal(t, "a,b\n\"x,y\",plain", string(c.Bytes()))
}

func sample() Report {
	return Report{
		Title:    "Kampala Demo Primary School",
		Subtitle: []string{"Staff Attendance Report", "October 2026"},
		Summary:  [][2]string{{"Total Working Days", "22"}, {"Days Present", "18"}},
		Header:   []string{"Date", "Status"},
		Widths:   []float64{40, 40},
		Rows:     [][]string{{"14/10/2026", "present"}, {"13/10/2026", "<late>"}},
		Footer:   "Generated 14/10/2026 10:00",
	}
}

func TestReportPDF(t *testing.T) {
	b, err := sample().PDF()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestReportPDF_ManyRowsPaginates(t *testing.T) {
	r := sample()
	for i := 0; i < 300; i++ {
		r.Rows = append(r.Rows, []string{"01/10/2026", "present"})
	}
	small, err := sample().PDF()
	require.NoError(t, err)
	b, err := r.PDF()
	require.NoError(t, err)
	assert.Greater(t, len(b), len(small))
}

func TestReportHTML(t *testing.T) {
	b, err := sample().HTML()
	require.NoError(t, err)
	html := string(b)
	assert.Contains(t, html, "<h1>Kampala Demo Primary School</h1>")
	assert.Contains(t, html, "<td class=\"k\">Total Working Days</td>")
	assert.Contains(t, html, "&lt;late&gt;")
	assert.Contains(t, html, "Generated 14/10/2026 10:00")
}
