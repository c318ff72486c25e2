package helper

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceFile(t *testing.T) {
	old := "https://cdn.example.ug/schools/a/logo/old.webp"
	blank := "  "

	tests := []struct {
		name      string
		oldURL    *string
		uploadURL string
		uploadErr error
		spamErr   error
		wantURL   string
		wantErr   bool
		wantSpam  []string
	}{
		{name: "first upload", oldURL: nil, uploadURL: "https://cdn/new.webp", wantURL: "https://cdn/new.webp"},
		{name: "blank previous", oldURL: &blank, uploadURL: "https://cdn/new.webp", wantURL: "https://cdn/new.webp"},
		{name: "replaces old", oldURL: &old, uploadURL: "https://cdn/new.webp", wantURL: "https://cdn/new.webp", wantSpam: []string{old}},
		{name: "same url kept", oldURL: &old, uploadURL: old, wantURL: old},
		{name: "spam failure still returns new url", oldURL: &old, uploadURL: "https://cdn/new.webp", spamErr: errors.New("oss down"), wantURL: "https://cdn/new.webp", wantSpam: []string{old}},
		{name: "upload failure leaves old alone", oldURL: &old, uploadErr: fiber.NewError(fiber.StatusBadGateway, "boom"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spammed []string
			blob := &MockBlobService{
				MoveToSpamFn: func(_ context.Context, u string) (string, error) {
					spammed = append(spammed, u)
					return "https://cdn/spam/x", tt.spamErr
				},
			}
			got, err := ReplaceFile(context.Background(), blob, tt.oldURL, func() (string, error) {
				return tt.uploadURL, tt.uploadErr
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, spammed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got)
			assert.Equal(t, tt.wantSpam, spammed)
		})
	}
}

func TestCheckUpload(t *testing.T) {
	school := uuid.New()
	tests := []struct {
		name     string
		school   uuid.UUID
		fh       *multipart.FileHeader
		wantCode int
	}{
		{name: "missing file", school: school, fh: nil, wantCode: fiber.StatusBadRequest},
		{name: "no school", school: uuid.Nil, fh: &multipart.FileHeader{Size: 10}, wantCode: fiber.StatusBadRequest},
		{name: "too large", school: school, fh: &multipart.FileHeader{Size: MaxUploadSize + 1}, wantCode: fiber.StatusRequestEntityTooLarge},
		{name: "at limit", school: school, fh: &multipart.FileHeader{Size: MaxUploadSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkUpload(tt.school, tt.fh)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			var fe *fiber.Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantCode, fe.Code)
		})
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestGetImageFile(t *testing.T) {
	prev := MaxUploadSize
	MaxUploadSize = 16
	t.Cleanup(func() { MaxUploadSize = prev })

	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		fh, err := GetImageFile(c, "photo", "file")
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).SendString(fe.Message)
			}
			return err
		}
		if fh == nil {
			return c.SendString("none")
		}
		return c.SendString(fh.Filename)
	})

	tests := []struct {
		name     string
		field    string
		content  string
		json     bool
		wantCode int
		wantBody string
	}{
		{name: "not multipart", json: true, wantCode: 400},
		{name: "fallback field", field: "file", content: "tiny", wantCode: 200, wantBody: "a.png"},
		{name: "unknown field", field: "avatar", content: "tiny", wantCode: 200, wantBody: "none"},
		{name: "oversized", field: "photo", content: strings.Repeat("x", 17), wantCode: 413},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			if !tt.json {
				body, ct := multipartBody(t, tt.field, "a.png", []byte(tt.content))
				req = httptest.NewRequest("POST", "/", body)
				req.Header.Set("Content-Type", ct)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantBody != "" {
				raw := new(bytes.Buffer)
				_, _ = raw.ReadFrom(resp.Body)
				assert.Equal(t, tt.wantBody, raw.String())
			}
		})
	}
}
