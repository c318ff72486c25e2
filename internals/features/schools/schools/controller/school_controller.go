package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/schools/schools/dto"
	"schoolku_backend/internals/features/schools/schools/service"
	helper "schoolku_backend/internals/helpers"
	ossHelper "schoolku_backend/internals/helpers/oss"
	schoolCtx "schoolku_backend/internals/middlewares/school"
)

type SchoolController struct {
	Svc *service.SchoolService
	// Blob is nil when object storage is not configured.
	Blob ossHelper.BlobService
}

func NewSchoolController(db *gorm.DB, blob ossHelper.BlobService) *SchoolController {
	return &SchoolController{Svc: service.New(service.NewGormStore(db)), Blob: blob}
}

// POST /api/u/schools (json or multipart with optional "logo")
func (sc *SchoolController) CreateSchool(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req dto.CreateSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := sc.Svc.CreateSchool(c.UserContext(), userID, &req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	if ossHelper.IsMultipart(c) && sc.Blob != nil {
		if fh, _ := ossHelper.GetImageFile(c, "logo", "school_logo"); fh != nil {
			url, upErr := sc.Blob.UploadImage(c.UserContext(), res.School.SchoolID, ossHelper.SlotSchoolLogo, fh)
			if upErr != nil {
				// the school exists already; the logo can be uploaded again later
				log.Printf("[SCHOOL] logo upload failed school=%s: %v", res.School.SchoolID, upErr)
			} else if m, err := sc.Svc.SetLogo(c.UserContext(), res.School.SchoolID, url); err == nil {
				res.School = m
			}
		}
	}

	schoolCtx.SetActiveSchoolCookie(c, res.School.SchoolID)
	return helper.JsonCreated(c, "School registered successfully", fiber.Map{
		"school":         res.School,
		"member":         res.Member,
		"seeded_classes": res.SeededClasses,
	})
}

// GET /api/u/schools
func (sc *SchoolController) ListMySchools(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	list, err := sc.Svc.ListMySchools(c.UserContext(), userID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", list)
}

// POST /api/u/schools/:school_id/select
func (sc *SchoolController) SelectSchool(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	schoolID, err := helper.ParseUUIDParam(c, "school_id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school_id")
	}
	sum, err := sc.Svc.SelectSchool(c.UserContext(), userID, schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	schoolCtx.SetActiveSchoolCookie(c, schoolID)
	return helper.JsonOK(c, "Active school updated", sum)
}

// GET /api/a/:school_id/school
func (sc *SchoolController) GetSchool(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	m, err := sc.Svc.GetSchool(c.UserContext(), schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// PATCH /api/a/:school_id/school
func (sc *SchoolController) UpdateSchool(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	var req dto.UpdateSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	m, err := sc.Svc.UpdateSchool(c.UserContext(), schoolID, &req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "School updated", m)
}

// POST /api/a/:school_id/school/logo
func (sc *SchoolController) UploadLogo(c *fiber.Ctx) error {
	if sc.Blob == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "File storage is not configured")
	}
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	fh, err := ossHelper.GetImageFile(c, "logo", "file", "image")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if fh == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "File not found")
	}

	ctx := c.UserContext()
	current, err := sc.Svc.GetSchool(ctx, schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	url, err := ossHelper.ReplaceFile(ctx, sc.Blob, current.SchoolLogoURL, func() (string, error) {
		return sc.Blob.UploadImage(ctx, schoolID, ossHelper.SlotSchoolLogo, fh)
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	m, err := sc.Svc.SetLogo(ctx, schoolID, url)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Logo uploaded", m)
}

// POST /api/a/:school_id/school/admins
func (sc *SchoolController) AddAdmin(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	var req dto.AddAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := helper.ValidateStruct(&req, nil); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	member, added, err := sc.Svc.AddAdmin(c.UserContext(), schoolID, &req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if !added {
		return helper.JsonOK(c, "User is already a member of this school", member)
	}
	return helper.JsonCreated(c, "Member added", member)
}
