package helper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/*
BlobService is the single upload/delete facade controllers depend on.
Objects for a school always live under schools/{school_id}/{slot}/...
*/
type BlobService interface {
	// UploadImage re-encodes to WebP.
	UploadImage(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (publicURL string, err error)
	// UploadDocument keeps PDFs raw and re-encodes images.
	UploadDocument(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (publicURL string, err error)
	DeleteByPublicURL(ctx context.Context, publicURL string) error
	// MoveToSpam parks a replaced object under spam/ for the reaper.
	MoveToSpam(ctx context.Context, publicURL string) (spamURL string, err error)
}

// Upload slots
const (
	SlotSchoolLogo    = "logo"
	SlotStudentPhotos = "student_photos"
	SlotStaff         = "staff"
)

// SchoolDir: schools/{school_id}/{slot}
func SchoolDir(schoolID uuid.UUID, slot string) string {
	slot = strings.Trim(strings.ToLower(strings.TrimSpace(slot)), "/")
	if slot == "" {
		slot = "misc"
	}
	return fmt.Sprintf("schools/%s/%s", schoolID.String(), slot)
}

// --------------------------------------------------
// Aliyun OSS implementation
// --------------------------------------------------

type OSSBlobService struct {
	svc *OSSService
}

// NewOSSBlobService shares one client with the trash reaper.
func NewOSSBlobService(s *OSSService) *OSSBlobService { return &OSSBlobService{svc: s} }

func (b *OSSBlobService) UploadImage(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if err := checkUpload(schoolID, fh); err != nil {
		return "", err
	}
	opt := DefaultWebPOptions()
	if slot != SlotSchoolLogo {
		opt = AvatarWebPOptions()
	}
	key, err := b.svc.UploadAsWebP(ctx, fh, SchoolDir(schoolID, slot), opt)
	if err != nil {
		return "", asUploadError(err)
	}
	return b.svc.PublicURL(key), nil
}

func (b *OSSBlobService) UploadDocument(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if err := checkUpload(schoolID, fh); err != nil {
		return "", err
	}
	if !IsPDF(fh) {
		return b.UploadImage(ctx, schoolID, slot, fh)
	}
	key, _, err := b.svc.UploadRaw(ctx, fh, SchoolDir(schoolID, slot))
	if err != nil {
		return "", asUploadError(err)
	}
	return b.svc.PublicURL(key), nil
}

func (b *OSSBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	if strings.TrimSpace(publicURL) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Empty URL")
	}
	if err := b.svc.DeleteByPublicURL(ctx, publicURL); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("Failed to delete object: %v", err))
	}
	return nil
}

func (b *OSSBlobService) MoveToSpam(ctx context.Context, publicURL string) (string, error) {
	if strings.TrimSpace(publicURL) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Empty URL")
	}
	spamURL, err := b.svc.MoveToSpam(ctx, publicURL, time.Now())
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("Failed to move object to spam: %v", err))
	}
	return spamURL, nil
}

func checkUpload(schoolID uuid.UUID, fh *multipart.FileHeader) error {
	if fh == nil {
		return fiber.NewError(fiber.StatusBadRequest, "File not found")
	}
	if schoolID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid school_id")
	}
	return checkSize(fh)
}

func checkSize(fh *multipart.FileHeader) error {
	if fh.Size > MaxUploadSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("File too large (max %d MB)", MaxUploadSize>>20))
	}
	return nil
}

func asUploadError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	log.Printf("[OSS] upload failed: %v", err)
	return fiber.NewError(fiber.StatusBadGateway, "Failed to upload to storage")
}

// ReplaceFile uploads the new file, then parks the old one in spam.
// A failed move is logged only; the new URL is already stored by the caller.
func ReplaceFile(ctx context.Context, blob BlobService, oldURL *string, upload func() (string, error)) (string, error) {
	newURL, err := upload()
	if err != nil {
		return "", err
	}
	if oldURL != nil && strings.TrimSpace(*oldURL) != "" && *oldURL != newURL {
		if _, err := blob.MoveToSpam(ctx, *oldURL); err != nil {
			log.Printf("[OSS] move old object to spam failed url=%s err=%v", *oldURL, err)
		}
	}
	return newURL, nil
}

// --------------------------------------------------
// Multipart helpers
// --------------------------------------------------

func IsMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	return strings.HasPrefix(ct, "multipart/form-data")
}

func IsPDF(fh *multipart.FileHeader) bool {
	if fh == nil {
		return false
	}
	if strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return true
	}
	return strings.Contains(strings.ToLower(fh.Header.Get("Content-Type")), "pdf")
}

var defaultImageFields = []string{"image", "file", "photo", "logo"}

// GetImageFile returns the first file found under fieldNames, or (nil, nil).
// A file over MaxUploadSize is rejected with 413 before anything is uploaded.
func GetImageFile(c *fiber.Ctx, fieldNames ...string) (*multipart.FileHeader, error) {
	if !IsMultipart(c) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Use multipart/form-data")
	}
	names := fieldNames
	if len(names) == 0 {
		names = defaultImageFields
	}
	for _, fn := range names {
		if fh, err := c.FormFile(fn); err == nil && fh != nil {
			if err := checkSize(fh); err != nil {
				return nil, err
			}
			return fh, nil
		}
	}
	return nil, nil
}

// --------------------------------------------------
// Mock for unit tests
// --------------------------------------------------

type MockBlobService struct {
	UploadImageFn       func(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error)
	UploadDocumentFn    func(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error)
	DeleteByPublicURLFn func(ctx context.Context, publicURL string) error
	MoveToSpamFn        func(ctx context.Context, publicURL string) (string, error)
}

func (m *MockBlobService) UploadImage(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if m.UploadImageFn == nil {
		return "", errors.New("not implemented")
	}
	return m.UploadImageFn(ctx, schoolID, slot, fh)
}

func (m *MockBlobService) UploadDocument(ctx context.Context, schoolID uuid.UUID, slot string, fh *multipart.FileHeader) (string, error) {
	if m.UploadDocumentFn == nil {
		return "", errors.New("not implemented")
	}
	return m.UploadDocumentFn(ctx, schoolID, slot, fh)
}

func (m *MockBlobService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	if m.DeleteByPublicURLFn == nil {
		return errors.New("not implemented")
	}
	return m.DeleteByPublicURLFn(ctx, publicURL)
}

func (m *MockBlobService) MoveToSpam(ctx context.Context, publicURL string) (string, error) {
	if m.MoveToSpamFn == nil {
		return "", errors.New("not implemented")
	}
	return m.MoveToSpamFn(ctx, publicURL)
}
