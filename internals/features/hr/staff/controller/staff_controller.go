package controller

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/hr/staff/dto"
	"schoolku_backend/internals/features/hr/staff/model"
	"schoolku_backend/internals/features/hr/staff/service"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	ossHelper "schoolku_backend/internals/helpers/oss"
)

type StaffController struct {
	DB   *gorm.DB
	Blob ossHelper.BlobService
}

func NewStaffController(db *gorm.DB, blob ossHelper.BlobService) *StaffController {
	return &StaffController{DB: db, Blob: blob}
}

func (ctl *StaffController) find(c *fiber.Ctx) (*model.StaffModel, error) {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid staff id")
	}
	var m model.StaffModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("staff_id = ? AND staff_school_id = ?", id, schoolID).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Staff member not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load staff member")
	}
	return &m, nil
}

// search applies ?q= and ?department= in SQL.
func (ctl *StaffController) search(c *fiber.Ctx, schoolID uuid.UUID) ([]model.StaffModel, error) {
	tx := ctl.DB.WithContext(c.UserContext()).Where("staff_school_id = ?", schoolID)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("(staff_name ILIKE ? OR staff_position ILIKE ? OR staff_department ILIKE ? OR staff_email ILIKE ?)",
			like, like, like, like)
	}
	if d := strings.TrimSpace(c.Query("department")); d != "" {
		tx = tx.Where("staff_department = ?", d)
	}
	var list []model.StaffModel
	if err := tx.Order("staff_name ASC").Find(&list).Error; err != nil {
		log.Printf("[STAFF] list failed school=%s: %v", schoolID, err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load staff")
	}
	return list, nil
}

/* =========================================================
   LIST / GET / STATS
   ========================================================= */

// GET /api/a/:school_id/staff
func (ctl *StaffController) List(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	list, err := ctl.search(c, schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	paging := helper.ResolvePaging(c, 20, 200)
	lo, hi := paging.Window(len(list))
	pg := helper.BuildPaginationFromOffset(int64(len(list)), paging.Offset, paging.Limit)
	return helper.JsonList(c, "ok", list[lo:hi], &pg)
}

// GET /api/a/:school_id/staff/:id
func (ctl *StaffController) Get(c *fiber.Ctx) error {
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// GET /api/a/:school_id/staff/stats
func (ctl *StaffController) Stats(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	var list []model.StaffModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Select("staff_id", "staff_department", "staff_salary").
		Where("staff_school_id = ?", schoolID).
		Find(&list).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load staff stats")
	}
	return helper.JsonOK(c, "ok", service.Summarize(list))
}

/* =========================================================
   CREATE / UPDATE / DELETE
   ========================================================= */

// POST /api/a/:school_id/staff (json or multipart with optional "photo" and "id_attachment")
func (ctl *StaffController) Create(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := req.Validate(); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	m := req.ToModel(schoolID)
	ctx := c.UserContext()
	if err := ctl.DB.WithContext(ctx).Create(m).Error; err != nil {
		log.Printf("[STAFF] create failed school=%s: %v", schoolID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to add staff member")
	}

	if ossHelper.IsMultipart(c) && ctl.Blob != nil {
		if fh, _ := ossHelper.GetImageFile(c, "photo"); fh != nil {
			if url, err := ctl.Blob.UploadImage(ctx, schoolID, ossHelper.SlotStaff, fh); err != nil {
				log.Printf("[STAFF] photo upload failed staff=%s: %v", m.StaffID, err)
			} else if ctl.saveURL(c, m, "staff_photo_url", url) == nil {
				m.StaffPhotoURL = &url
			}
		}
		if fh, _ := ossHelper.GetImageFile(c, "id_attachment"); fh != nil {
			if url, err := ctl.Blob.UploadDocument(ctx, schoolID, ossHelper.SlotStaff, fh); err != nil {
				log.Printf("[STAFF] id attachment upload failed staff=%s: %v", m.StaffID, err)
			} else if ctl.saveURL(c, m, "staff_id_attachment_url", url) == nil {
				m.StaffIDAttachmentURL = &url
			}
		}
	}
	return helper.JsonCreated(c, "Staff member added successfully", m)
}

// PUT /api/a/:school_id/staff/:id
func (ctl *StaffController) Update(c *fiber.Ctx) error {
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := req.Validate(); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	req.ApplyToModel(m)
	if err := ctl.DB.WithContext(c.UserContext()).Save(m).Error; err != nil {
		log.Printf("[STAFF] update failed staff=%s: %v", m.StaffID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update staff member")
	}
	return helper.JsonUpdated(c, "Staff member updated successfully", m)
}

// DELETE /api/a/:school_id/staff/:id (soft delete)
func (ctl *StaffController) Delete(c *fiber.Ctx) error {
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	ctx := c.UserContext()
	if err := ctl.DB.WithContext(ctx).Delete(m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete staff member")
	}
	if ctl.Blob != nil {
		for _, u := range []*string{m.StaffPhotoURL, m.StaffIDAttachmentURL} {
			if u == nil {
				continue
			}
			if _, err := ctl.Blob.MoveToSpam(ctx, *u); err != nil {
				log.Printf("[STAFF] move file to spam failed staff=%s: %v", m.StaffID, err)
			}
		}
	}
	return helper.JsonDeleted(c, "Staff member deleted", fiber.Map{"staff_id": m.StaffID})
}

/* =========================================================
   FILES
   ========================================================= */

func (ctl *StaffController) saveURL(c *fiber.Ctx, m *model.StaffModel, col, url string) error {
	err := ctl.DB.WithContext(c.UserContext()).Model(m).Update(col, url).Error
	if err != nil {
		log.Printf("[STAFF] save %s failed staff=%s: %v", col, m.StaffID, err)
	}
	return err
}

type uploadFn func(fh *multipart.FileHeader, m *model.StaffModel) (string, error)

func (ctl *StaffController) replace(c *fiber.Ctx, col string, current func(*model.StaffModel) **string, fields []string, up uploadFn) error {
	if ctl.Blob == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "File storage is not configured")
	}
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	fh, err := ossHelper.GetImageFile(c, fields...)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if fh == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "File not found")
	}
	slot := current(m)
	url, err := ossHelper.ReplaceFile(c.UserContext(), ctl.Blob, *slot, func() (string, error) { return up(fh, m) })
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := ctl.saveURL(c, m, col, url); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to save file")
	}
	*slot = &url
	return helper.JsonUpdated(c, "File uploaded", fiber.Map{col: url})
}

// POST /api/a/:school_id/staff/:id/photo
func (ctl *StaffController) UploadPhoto(c *fiber.Ctx) error {
	return ctl.replace(c, "staff_photo_url",
		func(m *model.StaffModel) **string { return &m.StaffPhotoURL },
		[]string{"photo", "file", "image"},
		func(fh *multipart.FileHeader, m *model.StaffModel) (string, error) {
			return ctl.Blob.UploadImage(c.UserContext(), m.StaffSchoolID, ossHelper.SlotStaff, fh)
		})
}

// POST /api/a/:school_id/staff/:id/id-attachment (image or PDF)
func (ctl *StaffController) UploadIDAttachment(c *fiber.Ctx) error {
	return ctl.replace(c, "staff_id_attachment_url",
		func(m *model.StaffModel) **string { return &m.StaffIDAttachmentURL },
		[]string{"id_attachment", "file"},
		func(fh *multipart.FileHeader, m *model.StaffModel) (string, error) {
			return ctl.Blob.UploadDocument(c.UserContext(), m.StaffSchoolID, ossHelper.SlotStaff, fh)
		})
}

// GET /api/a/:school_id/staff/export.csv
func (ctl *StaffController) ExportCSV(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	list, err := ctl.search(c, schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="staff_%s.csv"`, dbtime.NowInSchool(c).Format("20060102")))
	return c.Send(service.ExportCSV(list))
}
