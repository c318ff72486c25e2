package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/schools/schools/model"
	"schoolku_backend/internals/features/schools/schools/service"
	helper "schoolku_backend/internals/helpers"
	ossHelper "schoolku_backend/internals/helpers/oss"
)

// logoStore backs only what the logo upload reads and writes.
type logoStore struct {
	service.Store

	mu      sync.Mutex
	schools map[uuid.UUID]*model.SchoolModel
	saved   []string
}

func (s *logoStore) FindSchool(_ context.Context, id uuid.UUID) (*model.SchoolModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.schools[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *logoStore) SaveSchool(_ context.Context, m *model.SchoolModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.schools[m.SchoolID] = &cp
	if m.SchoolLogoURL != nil {
		s.saved = append(s.saved, *m.SchoolLogoURL)
	}
	return nil
}

func TestUploadLogo(t *testing.T) {
	prev := ossHelper.MaxUploadSize
	ossHelper.MaxUploadSize = 64
	t.Cleanup(func() { ossHelper.MaxUploadSize = prev })

	oldLogo := "https://cdn.example.ug/schools/old/logo/old.webp"
	newLogo := "https://cdn.example.ug/schools/old/logo/new.webp"

	tests := []struct {
		name        string
		noBlob      bool
		unknown     bool
		current     *string
		fileSize    int
		wantCode    int
		wantSaved   []string
		wantSpam    []string
		wantUploads int
	}{
		{name: "storage not configured", noBlob: true, fileSize: 8, wantCode: 503},
		{name: "unknown school", unknown: true, fileSize: 8, wantCode: 404, wantUploads: 0},
		{name: "first logo", fileSize: 8, wantCode: 200, wantSaved: []string{newLogo}, wantUploads: 1},
		{name: "replaces old logo", current: &oldLogo, fileSize: 8, wantCode: 200, wantSaved: []string{newLogo}, wantSpam: []string{oldLogo}, wantUploads: 1},
		{name: "oversized file", current: &oldLogo, fileSize: 65, wantCode: 413},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schoolID := uuid.New()
			store := &logoStore{schools: map[uuid.UUID]*model.SchoolModel{}}
			if !tt.unknown {
				store.schools[schoolID] = &model.SchoolModel{SchoolID: schoolID, SchoolName: "Kampala Hill", SchoolLogoURL: tt.current}
			}

			var (
				uploads int
				spammed []string
			)
			mock := &ossHelper.MockBlobService{
				UploadImageFn: func(_ context.Context, sid uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
					uploads++
					assert.Equal(t, schoolID, sid)
					assert.Equal(t, ossHelper.SlotSchoolLogo, slot)
					assert.Equal(t, "logo.png", fh.Filename)
					return newLogo, nil
				},
				MoveToSpamFn: func(_ context.Context, u string) (string, error) {
					spammed = append(spammed, u)
					return "https://cdn.example.ug/spam/old.webp", nil
				},
			}
			ctl := &SchoolController{Svc: service.New(store), Blob: mock}
			if tt.noBlob {
				ctl.Blob = nil
			}

			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				c.Locals(helper.LocSchoolID, schoolID)
				return c.Next()
			})
			app.Post("/school/logo", ctl.UploadLogo)

			var body bytes.Buffer
			w := multipart.NewWriter(&body)
			part, err := w.CreateFormFile("logo", "logo.png")
			require.NoError(t, err)
			_, err = part.Write([]byte(strings.Repeat("p", tt.fileSize)))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			req := httptest.NewRequest("POST", "/school/logo", &body)
			req.Header.Set("Content-Type", w.FormDataContentType())
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			assert.Equal(t, tt.wantUploads, uploads)
			assert.Equal(t, tt.wantSaved, store.saved)
			assert.Equal(t, tt.wantSpam, spammed)

			if tt.wantCode == 200 {
				raw, _ := io.ReadAll(resp.Body)
				var out struct {
					Data map[string]any `json:"data"`
				}
				require.NoError(t, json.Unmarshal(raw, &out), string(raw))
				assert.Equal(t, newLogo, out.Data["school_logo_url"])
			}
		})
	}
}
