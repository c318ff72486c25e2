package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/schools/classes/dto"
	"schoolku_backend/internals/features/schools/classes/model"
	studentModel "schoolku_backend/internals/features/students/students/model"
	helper "schoolku_backend/internals/helpers"
)

type ClassController struct {
	DB *gorm.DB
}

func NewClassController(db *gorm.DB) *ClassController {
	return &ClassController{DB: db}
}

/* =========================================================
   LIST
   ========================================================= */

// GET /api/a/:school_id/classes
func (ctl *ClassController) List(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	ctx := c.UserContext()

	var rows []model.ClassModel
	if err := ctl.DB.WithContext(ctx).
		Where("class_school_id = ?", schoolID).
		Order("class_sort_order ASC, class_name ASC").
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load classes")
	}

	type countRow struct {
		ClassID uuid.UUID
		N       int64
	}
	var counts []countRow
	if err := ctl.DB.WithContext(ctx).Model(&studentModel.StudentModel{}).
		Select("student_class_id AS class_id, COUNT(*) AS n").
		Where("student_school_id = ?", schoolID).
		Group("student_class_id").
		Scan(&counts).Error; err != nil {
		log.Printf("[CLASS] count students failed school=%s: %v", schoolID, err)
	}
	byClass := make(map[uuid.UUID]int64, len(counts))
	for _, r := range counts {
		byClass[r.ClassID] = r.N
	}

	out := make([]dto.ClassResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToClassResponse(&rows[i], byClass[rows[i].ClassID]))
	}
	return helper.JsonOK(c, "ok", out)
}

/* =========================================================
   CREATE
   ========================================================= */

// POST /api/a/:school_id/classes
func (ctl *ClassController) Create(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	var req dto.CreateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if errs := helper.ValidateStruct(&req, nil); errs != nil {
		return helper.JsonValidationError(c, errs)
	}

	m := req.ToModel(schoolID)
	if err := ctl.DB.WithContext(c.UserContext()).Create(m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "A class with this code already exists")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create class")
	}
	return helper.JsonCreated(c, "Class created", dto.ToClassResponse(m, 0))
}

/* =========================================================
   UPDATE / DELETE
   ========================================================= */

func (ctl *ClassController) findClass(c *fiber.Ctx) (*model.ClassModel, error) {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid class id")
	}
	var m model.ClassModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("class_id = ? AND class_school_id = ?", id, schoolID).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Class not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load class")
	}
	return &m, nil
}

// PATCH /api/a/:school_id/classes/:id
func (ctl *ClassController) Update(c *fiber.Ctx) error {
	m, err := ctl.findClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.UpdateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if f := req.Blank(); f != "" {
		return helper.JsonValidationError(c, map[string][]string{f: {f + " cannot be blank"}})
	}
	if errs := helper.ValidateStruct(&req, nil); errs != nil {
		return helper.JsonValidationError(c, errs)
	}
	req.ApplyToModel(m)
	if err := ctl.DB.WithContext(c.UserContext()).Save(m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "A class with this code already exists")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update class")
	}
	return helper.JsonUpdated(c, "Class updated", dto.ToClassResponse(m, 0))
}

// DELETE /api/a/:school_id/classes/:id refuses while students are still assigned.
func (ctl *ClassController) Delete(c *fiber.Ctx) error {
	m, err := ctl.findClass(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	ctx := c.UserContext()

	var n int64
	if err := ctl.DB.WithContext(ctx).Model(&studentModel.StudentModel{}).
		Where("student_school_id = ? AND student_class_id = ?", m.ClassSchoolID, m.ClassID).
		Count(&n).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to check class usage")
	}
	if n > 0 {
		return helper.JsonError(c, fiber.StatusConflict, "Move or remove the students of this class first")
	}
	if err := ctl.DB.WithContext(ctx).Delete(m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete class")
	}
	return helper.JsonDeleted(c, "Class deleted", fiber.Map{"class_id": m.ClassID})
}
