package controller

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	attendanceModel "schoolku_backend/internals/features/attendance/student_attendance/model"
	classModel "schoolku_backend/internals/features/schools/classes/model"
	schoolModel "schoolku_backend/internals/features/schools/schools/model"
	"schoolku_backend/internals/features/students/students/dto"
	"schoolku_backend/internals/features/students/students/model"
	"schoolku_backend/internals/features/students/students/service"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	ossHelper "schoolku_backend/internals/helpers/oss"
)

type StudentController struct {
	DB   *gorm.DB
	Blob ossHelper.BlobService
}

func NewStudentController(db *gorm.DB, blob ossHelper.BlobService) *StudentController {
	return &StudentController{DB: db, Blob: blob}
}

/* =========================================================
   Loading helpers
   ========================================================= */

func (ctl *StudentController) classNames(c *fiber.Ctx, schoolID uuid.UUID) (map[uuid.UUID]string, error) {
	var rows []classModel.ClassModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Select("class_id, class_name").
		Where("class_school_id = ?", schoolID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, r := range rows {
		out[r.ClassID] = r.ClassName
	}
	return out, nil
}

// filtered loads every student of the school once, then filters, sorts in memory.
func (ctl *StudentController) filtered(c *fiber.Ctx, schoolID uuid.UUID) ([]model.StudentModel, error) {
	cr, err := criteriaFromQuery(c)
	if err != nil {
		return nil, err
	}
	var all []model.StudentModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("student_school_id = ?", schoolID).
		Order("student_created_at ASC").
		Find(&all).Error; err != nil {
		log.Printf("[STUDENT] load failed school=%s: %v", schoolID, err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load students")
	}
	list := service.Filter(all, cr)
	key, desc := service.ParseSort(c.Query("sort"), c.Query("order"))
	service.Sort(list, key, desc)
	return list, nil
}

func (ctl *StudentController) find(c *fiber.Ctx) (*model.StudentModel, error) {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid student id")
	}
	var m model.StudentModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("student_id = ? AND student_school_id = ?", id, schoolID).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Student not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load student")
	}
	return &m, nil
}

func (ctl *StudentController) ensureClass(c *fiber.Ctx, schoolID, classID uuid.UUID) (string, error) {
	var cl classModel.ClassModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("class_id = ? AND class_school_id = ?", classID, schoolID).
		Take(&cl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fiber.NewError(fiber.StatusBadRequest, "Class not found in this school")
		}
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to load class")
	}
	return cl.ClassName, nil
}

func uniqueOrInternal(err error, action string) error {
	if helper.IsUniqueViolation(err) {
		return fiber.NewError(fiber.StatusConflict, "Registration number already used in this school")
	}
	log.Printf("[STUDENT] %s failed: %v", action, err)
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to "+action+" student")
}

/* =========================================================
   LIST / GET
   ========================================================= */

// GET /api/a/:school_id/students
func (ctl *StudentController) List(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	list, err := ctl.filtered(c, schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	names, err := ctl.classNames(c, schoolID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load classes")
	}

	paging := helper.ResolvePaging(c, 20, 200)
	lo, hi := paging.Window(len(list))
	out := make([]dto.StudentResponse, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, dto.ToStudentResponse(&list[i], names[list[i].StudentClassID]))
	}
	pg := helper.BuildPaginationFromOffset(int64(len(list)), paging.Offset, paging.Limit)
	counts := service.StatusCounts(list)
	return helper.JsonListEx(c, "ok", out, &pg, fiber.Map{"status_counts": counts})
}

// GET /api/a/:school_id/students/:id
func (ctl *StudentController) Get(c *fiber.Ctx) error {
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	names, _ := ctl.classNames(c, m.StudentSchoolID)
	return helper.JsonOK(c, "ok", dto.ToStudentResponse(m, names[m.StudentClassID]))
}

/* =========================================================
   CREATE / UPDATE / DELETE
   ========================================================= */

// POST /api/a/:school_id/students (json or multipart with optional "photo")
func (ctl *StudentController) Create(c *fiber.Ctx) error {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	actor, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req dto.CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	m, msg := req.ToModel(schoolID, actor)
	if msg != "" {
		return helper.JsonError(c, fiber.StatusBadRequest, msg)
	}
	className, err := ctl.ensureClass(c, schoolID, m.StudentClassID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	ctx := c.UserContext()
	if err := ctl.DB.WithContext(ctx).Create(m).Error; err != nil {
		return helper.JsonFromError(c, uniqueOrInternal(err, "create"))
	}

	if ossHelper.IsMultipart(c) && ctl.Blob != nil {
		if fh, _ := ossHelper.GetImageFile(c, "photo", "student_photo"); fh != nil {
			url, upErr := ctl.Blob.UploadImage(ctx, schoolID, ossHelper.SlotStudentPhotos, fh)
			if upErr != nil {
				log.Printf("[STUDENT] photo upload failed student=%s: %v", m.StudentID, upErr)
			} else {
				m.StudentPhotoURL = &url
				if err := ctl.DB.WithContext(ctx).Model(m).Update("student_photo_url", url).Error; err != nil {
					log.Printf("[STUDENT] save photo url failed student=%s: %v", m.StudentID, err)
				}
			}
		}
	}
	return helper.JsonCreated(c, "Student added successfully", dto.ToStudentResponse(m, className))
}

// PATCH /api/a/:school_id/students/:id
func (ctl *StudentController) Update(c *fiber.Ctx) error {
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	actor, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req dto.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if msg := req.ApplyToModel(m, actor); msg != "" {
		return helper.JsonError(c, fiber.StatusBadRequest, msg)
	}
	className, err := ctl.ensureClass(c, m.StudentSchoolID, m.StudentClassID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := ctl.DB.WithContext(c.UserContext()).Save(m).Error; err != nil {
		return helper.JsonFromError(c, uniqueOrInternal(err, "update"))
	}
	return helper.JsonUpdated(c, "Student updated successfully", dto.ToStudentResponse(m, className))
}

// DELETE /api/a/:school_id/students/:id (soft delete)
func (ctl *StudentController) Delete(c *fiber.Ctx) error {
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := ctl.DB.WithContext(c.UserContext()).Delete(m).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete student")
	}
	if ctl.Blob != nil && m.StudentPhotoURL != nil {
		if _, err := ctl.Blob.MoveToSpam(c.UserContext(), *m.StudentPhotoURL); err != nil {
			log.Printf("[STUDENT] move photo to spam failed student=%s: %v", m.StudentID, err)
		}
	}
	return helper.JsonDeleted(c, "Student deleted", fiber.Map{"student_id": m.StudentID})
}

// POST /api/a/:school_id/students/:id/photo
func (ctl *StudentController) UploadPhoto(c *fiber.Ctx) error {
	if ctl.Blob == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "File storage is not configured")
	}
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	fh, err := ossHelper.GetImageFile(c, "photo", "file", "image")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if fh == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "File not found")
	}
	ctx := c.UserContext()
	url, err := ossHelper.ReplaceFile(ctx, ctl.Blob, m.StudentPhotoURL, func() (string, error) {
		return ctl.Blob.UploadImage(ctx, m.StudentSchoolID, ossHelper.SlotStudentPhotos, fh)
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := ctl.DB.WithContext(ctx).Model(m).Update("student_photo_url", url).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to save photo")
	}
	m.StudentPhotoURL = &url
	return helper.JsonUpdated(c, "Photo uploaded", fiber.Map{"student_photo_url": url})
}

/* =========================================================
   EXPORTS
   ========================================================= */

func (ctl *StudentController) exportData(c *fiber.Ctx) (uuid.UUID, []model.StudentModel, map[uuid.UUID]string, error) {
	schoolID, err := helper.GetSchoolID(c)
	if err != nil {
		return uuid.Nil, nil, nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	list, err := ctl.filtered(c, schoolID)
	if err != nil {
		return uuid.Nil, nil, nil, err
	}
	names, err := ctl.classNames(c, schoolID)
	if err != nil {
		return uuid.Nil, nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load classes")
	}
	return schoolID, list, names, nil
}

func (ctl *StudentController) schoolName(c *fiber.Ctx, schoolID uuid.UUID) string {
	var s schoolModel.SchoolModel
	if err := ctl.DB.WithContext(c.UserContext()).Select("school_name").
		Where("school_id = ?", schoolID).Take(&s).Error; err != nil {
		return "School"
	}
	return s.SchoolName
}

// GET /api/a/:school_id/students/export.csv
func (ctl *StudentController) ExportCSV(c *fiber.Ctx) error {
	_, list, names, err := ctl.exportData(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="students_%s.csv"`, dbtime.NowInSchool(c).Format("20060102")))
	return c.Send(service.ExportCSV(list, names))
}

// GET /api/a/:school_id/students/report.html
func (ctl *StudentController) ReportHTML(c *fiber.Ctx) error {
	schoolID, list, names, err := ctl.exportData(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rep := service.BuildReport(ctl.schoolName(c, schoolID), list, names, dbtime.NowInSchool(c))
	return c.Render("report", rep)
}

// GET /api/a/:school_id/students/report.pdf
func (ctl *StudentController) ReportPDF(c *fiber.Ctx) error {
	schoolID, list, names, err := ctl.exportData(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rep := service.BuildReport(ctl.schoolName(c, schoolID), list, names, dbtime.NowInSchool(c))
	pdf, err := rep.PDF()
	if err != nil {
		log.Printf("[STUDENT] pdf failed school=%s: %v", schoolID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to generate PDF")
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="students.pdf"`)
	return c.Send(pdf)
}

// GET /api/a/:school_id/students/:id/summary (text/plain)
func (ctl *StudentController) Summary(c *fiber.Ctx) error {
	m, err := ctl.find(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	names, _ := ctl.classNames(c, m.StudentSchoolID)

	var rows []struct {
		Status attendanceModel.AttendanceStatus
		N      int64
	}
	if err := ctl.DB.WithContext(c.UserContext()).Model(&attendanceModel.StudentAttendanceModel{}).
		Select("student_attendance_status AS status, COUNT(*) AS n").
		Where("student_attendance_school_id = ? AND student_attendance_student_id = ?", m.StudentSchoolID, m.StudentID).
		Group("student_attendance_status").
		Scan(&rows).Error; err != nil {
		log.Printf("[STUDENT] attendance summary failed student=%s: %v", m.StudentID, err)
	}
	var att service.AttendanceCounts
	for _, r := range rows {
		switch r.Status {
		case attendanceModel.StatusPresent:
			att.Present = r.N
		case attendanceModel.StatusAbsent:
			att.Absent = r.N
		case attendanceModel.StatusLate:
			att.Late = r.N
		case attendanceModel.StatusExcused:
			att.Excused = r.N
		}
	}

	text := service.SummaryText(m, names[m.StudentClassID], att)
	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
		return helper.JsonOK(c, "ok", fiber.Map{"text": text, "attendance": att})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}
