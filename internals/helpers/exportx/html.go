package exportx

import (
	"bytes"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	engineOnce sync.Once
	engine     *html.Engine
)

// Engine is shared by fiber (app Views) and RenderHTML.
func Engine() *html.Engine {
	engineOnce.Do(func() {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			log.Fatalf("[EXPORT] templates: %v", err)
		}
		engine = html.NewFileSystem(http.FS(sub), ".html")
		engine.AddFunc("date", func(t time.Time) string { return t.Format(DateLayout) })
		engine.AddFunc("upper", strings.ToUpper)
		if err := engine.Load(); err != nil {
			log.Fatalf("[EXPORT] load templates: %v", err)
		}
	})
	return engine
}

// RenderHTML renders a report template to bytes.
func RenderHTML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Engine().Render(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HTML renders the report with the shared "report" template.
func (r Report) HTML() ([]byte, error) {
	return RenderHTML("report", r)
}
