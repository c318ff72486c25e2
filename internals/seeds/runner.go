package seeds

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	staffDTO "schoolku_backend/internals/features/hr/staff/dto"
	classModel "schoolku_backend/internals/features/schools/classes/model"
	schoolDTO "schoolku_backend/internals/features/schools/schools/dto"
	schoolService "schoolku_backend/internals/features/schools/schools/service"
	studentDTO "schoolku_backend/internals/features/students/students/dto"
	authHelper "schoolku_backend/internals/features/users/auth/helper"
	userModel "schoolku_backend/internals/features/users/auth/model"
)

//go:embed demo_school.yaml
var demoYAML []byte

type demoSeed struct {
	Admin struct {
		UserName string `yaml:"user_name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	School struct {
		Name      string `yaml:"name"`
		Level     string `yaml:"level"`
		District  string `yaml:"district"`
		Subcounty string `yaml:"subcounty"`
		Address   string `yaml:"address"`
		Phone     string `yaml:"phone"`
		Email     string `yaml:"email"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"school"`
	Students []struct {
		FirstName          string `yaml:"first_name"`
		MiddleName         string `yaml:"middle_name"`
		LastName           string `yaml:"last_name"`
		Gender             string `yaml:"gender"`
		Class              string `yaml:"class"`
		RegistrationNumber string `yaml:"registration_number"`
	} `yaml:"students"`
	Staff []struct {
		Name       string `yaml:"name"`
		Position   string `yaml:"position"`
		Department string `yaml:"department"`
		Salary     string `yaml:"salary"`
		Email      string `yaml:"email"`
		NINNumber  string `yaml:"nin_number"`
	} `yaml:"staff"`
}

func loadDemo() (*demoSeed, error) {
	var d demoSeed
	if err := yaml.Unmarshal(demoYAML, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RunAllSeeds loads the demo school once. Re-running is a no-op while the
// demo admin already has a school.
func RunAllSeeds(db *gorm.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	d, err := loadDemo()
	if err != nil {
		log.Printf("❌ [SEED] decode demo fixture: %v", err)
		return
	}

	user, err := seedAdmin(ctx, db, d)
	if err != nil {
		log.Printf("❌ [SEED] admin user: %v", err)
		return
	}
	if user.ActiveSchoolID != nil {
		log.Printf("ℹ️ [SEED] demo school already present for %s, skipped", user.Email)
		return
	}

	svc := schoolService.New(schoolService.NewGormStore(db))
	res, err := svc.CreateSchool(ctx, user.ID, &schoolDTO.CreateSchoolRequest{
		SchoolName:      d.School.Name,
		SchoolLevel:     d.School.Level,
		SchoolDistrict:  d.School.District,
		SchoolSubcounty: d.School.Subcounty,
		SchoolAddress:   d.School.Address,
		SchoolPhone:     d.School.Phone,
		SchoolEmail:     d.School.Email,
		SchoolTimezone:  d.School.Timezone,
	})
	if err != nil {
		log.Printf("❌ [SEED] create school: %v", err)
		return
	}
	schoolID := res.School.SchoolID
	log.Printf("✅ [SEED] school %q with %d classes", res.School.SchoolName, res.SeededClasses)

	var classes []classModel.ClassModel
	if err := db.WithContext(ctx).Where("class_school_id = ?", schoolID).Find(&classes).Error; err != nil {
		log.Printf("❌ [SEED] load classes: %v", err)
		return
	}
	byCode := make(map[string]string, len(classes))
	for _, c := range classes {
		byCode[c.ClassCode] = c.ClassID.String()
	}

	students := 0
	for _, s := range d.Students {
		req := studentDTO.CreateStudentRequest{
			StudentFirstName:          s.FirstName,
			StudentMiddleName:         s.MiddleName,
			StudentLastName:           s.LastName,
			StudentGender:             s.Gender,
			StudentClassID:            byCode[s.Class],
			StudentRegistrationNumber: s.RegistrationNumber,
		}
		m, msg := req.ToModel(schoolID, user.ID)
		if msg != "" {
			log.Printf("⚠️ [SEED] student %s %s skipped: %s", s.FirstName, s.LastName, msg)
			continue
		}
		if err := db.WithContext(ctx).Create(m).Error; err != nil {
			log.Printf("⚠️ [SEED] student %s skipped: %v", s.RegistrationNumber, err)
			continue
		}
		students++
	}

	staff := 0
	for _, s := range d.Staff {
		req := staffDTO.StaffRequest{
			StaffName:       s.Name,
			StaffPosition:   s.Position,
			StaffDepartment: s.Department,
			StaffSalary:     staffDTO.Amount(s.Salary),
			StaffEmail:      s.Email,
			StaffNINNumber:  s.NINNumber,
		}
		if errs := req.Validate(); errs != nil {
			log.Printf("⚠️ [SEED] staff %s skipped: %v", s.Name, errs)
			continue
		}
		if err := db.WithContext(ctx).Create(req.ToModel(schoolID)).Error; err != nil {
			log.Printf("⚠️ [SEED] staff %s skipped: %v", s.Name, err)
			continue
		}
		staff++
	}
	log.Printf("✅ [SEED] demo data: %d students, %d staff", students, staff)
}

func seedAdmin(ctx context.Context, db *gorm.DB, d *demoSeed) (*userModel.UserModel, error) {
	var u userModel.UserModel
	err := db.WithContext(ctx).Where("email = ?", d.Admin.Email).Take(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := authHelper.HashPassword(d.Admin.Password)
	if err != nil {
		return nil, err
	}
	u = userModel.UserModel{UserName: d.Admin.UserName, Email: d.Admin.Email, Password: hash, IsActive: true}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	log.Printf("✅ [SEED] admin user %s", u.Email)
	return &u, nil
}
