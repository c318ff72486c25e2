package database

import (
	"log"

	"gorm.io/gorm"

	staffAttendanceModel "schoolku_backend/internals/features/attendance/staff_attendance/model"
	studentAttendanceModel "schoolku_backend/internals/features/attendance/student_attendance/model"
	staffModel "schoolku_backend/internals/features/hr/staff/model"
	classModel "schoolku_backend/internals/features/schools/classes/model"
	schoolModel "schoolku_backend/internals/features/schools/schools/model"
	studentModel "schoolku_backend/internals/features/students/students/model"
	authModel "schoolku_backend/internals/features/users/auth/model"
)

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&authModel.UserModel{},
		&authModel.RefreshTokenModel{},
		&authModel.TokenBlacklistModel{},
		&schoolModel.SchoolModel{},
		&schoolModel.SchoolMemberModel{},
		&classModel.ClassModel{},
		&studentModel.StudentModel{},
		&studentAttendanceModel.StudentAttendanceModel{},
		&studentAttendanceModel.AuditLogModel{},
		&staffModel.StaffModel{},
		&staffAttendanceModel.AttendanceSettingsModel{},
		&staffAttendanceModel.EmployeeSettingsModel{},
		&staffAttendanceModel.StaffAttendanceModel{},
	}
}

// partial unique indexes AutoMigrate cannot express
var postMigrate = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_classes_school_code_alive
		ON classes (class_school_id, lower(class_code)) WHERE class_deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_students_school_regno_alive
		ON students (student_school_id, student_registration_number)
		WHERE student_deleted_at IS NULL AND student_registration_number IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_schools_admin_user_ids
		ON schools USING GIN (school_admin_user_ids)`,
}

func Migrate(db *gorm.DB) error {
	if err := db.Exec(postMigrate[0]).Error; err != nil {
		return err
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	for _, q := range postMigrate[1:] {
		if err := db.Exec(q).Error; err != nil {
			return err
		}
	}
	log.Println("✅ migrations applied")
	return nil
}
