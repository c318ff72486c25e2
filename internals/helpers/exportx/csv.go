package exportx

import (
	"strings"
)

// CSV builds RFC 4180 text where selected columns are always quoted.
// Lines are joined by "\n" with no trailing newline, so a file with n rows
// has exactly n+1 lines.
type CSV struct {
	Header []string
	// Quoted marks column indexes that are always wrapped in quotes.
	Quoted map[int]bool
	rows   [][]string
}

func NewCSV(header []string, quotedCols ...int) *CSV {
	q := make(map[int]bool, len(quotedCols))
	for _, i := range quotedCols {
		q[i] = true
	}
	return &CSV{Header: header, Quoted: q}
}

func (c *CSV) Add(fields ...string) {
	c.rows = append(c.rows, fields)
}

func (c *CSV) Len() int { return len(c.rows) }

func (c *CSV) Bytes() []byte {
	var b strings.Builder
	b.WriteString(strings.Join(c.Header, ","))
	for _, row := range c.rows {
		b.WriteByte('\n')
		for i, f := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(c.field(i, f))
		}
	}
	return []byte(b.String())
}

func (c *CSV) field(i int, f string) string {
	if c.Quoted[i] || strings.ContainsAny(f, ",\"\n\r") {
		return Quote(f)
	}
	return f
}

// Quote wraps s in double quotes, doubling inner quotes. Newlines are
// flattened so a record never spans lines.
func Quote(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// DateLayout is the DD/MM/YYYY format used on printed reports.
const DateLayout = "02/01/2006"
