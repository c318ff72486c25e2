package helper

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, path string, h fiber.Handler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/x", h)
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestJsonFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{"coded", NewCodedError(409, "ALREADY_MARKED", "Attendance already marked"), 409, "ALREADY_MARKED", "Attendance already marked"},
		{"wrapped coded", errors.Join(errors.New("ctx"), NewCodedError(404, "INVALID_PIN", "Invalid PIN")), 404, "INVALID_PIN", "Invalid PIN"},
		{"fiber", fiber.NewError(fiber.StatusForbidden, "nope"), 403, "FORBIDDEN", "nope"},
		{"plain", errors.New("boom"), 500, "INTERNAL_ERROR", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, "/x", func(c *fiber.Ctx) error { return JsonFromError(c, tt.err) })
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantErr, body["error_code"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestJsonValidationError_SingleFieldSurfaces(t *testing.T) {
	code, body := call(t, "/x", func(c *fiber.Ctx) error {
		return JsonValidationError(c, map[string][]string{"pin": {"PIN must be a 4-digit number"}})
	})
	assert.Equal(t, 422, code)
	assert.Equal(t, "PIN must be a 4-digit number", body["message"])
	assert.Equal(t, "VALIDATION_ERROR", body["error_code"])
}

func TestJsonListEx_Pagination(t *testing.T) {
	code, body := call(t, "/x?page=2&per_page=2", func(c *fiber.Ctx) error {
		pg := ResolvePaging(c, 20, 100)
		items := []int{1, 2, 3, 4, 5}
		lo, hi := pg.Window(len(items))
		p := BuildPaginationFromOffset(int64(len(items)), pg.Offset, pg.Limit)
		return JsonListEx(c, "", items[lo:hi], &p, fiber.Map{"stats": 1})
	})
	require.Equal(t, 200, code)
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, []any{float64(3), float64(4)}, body["data"])
	p := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), p["page"])
	assert.Equal(t, float64(3), p["total_pages"])
	assert.Equal(t, float64(2), p["count"])
	assert.Equal(t, true, p["has_next"])
	assert.NotNil(t, body["includes"])
}

func TestResolvePaging(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", 1, 50, 0},
		{"?page=0&per_page=-3", 1, 50, 0},
		{"?page=3&limit=10", 3, 10, 20},
		{"?per_page=9999", 1, 500, 0},
	}
	for _, tt := range tests {
		app := fiber.New()
		var got Paging
		app.Get("/x", func(c *fiber.Ctx) error { got = ResolvePaging(c, 50, 500); return nil })
		_, err := app.Test(httptest.NewRequest("GET", "/x"+tt.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.wantPage, got.Page, tt.query)
		assert.Equal(t, tt.wantLimit, got.Limit, tt.query)
		assert.Equal(t, tt.wantOffset, got.Offset, tt.query)
	}
}

func TestPagingWindowPastEnd(t *testing.T) {
	lo, hi := Paging{Offset: 40, Limit: 20}.Window(25)
	assert.Equal(t, 25, lo)
	assert.Equal(t, 25, hi)
}
