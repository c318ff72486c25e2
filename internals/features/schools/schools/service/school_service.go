package service

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/schools/schools/dto"
	"schoolku_backend/internals/features/schools/schools/model"
	helper "schoolku_backend/internals/helpers"
)

var (
	ErrSchoolNotFound = helper.NewCodedError(fiber.StatusNotFound, "SCHOOL_NOT_FOUND", "School not found")
	ErrNotMember      = helper.NewCodedError(fiber.StatusForbidden, "FORBIDDEN", constants.RoleErrorMember("this school"))
	ErrUserNotFound   = helper.NewCodedError(fiber.StatusNotFound, "USER_NOT_FOUND", "No user found with this email address.")
)

type SchoolService struct {
	Store Store
}

func New(store Store) *SchoolService { return &SchoolService{Store: store} }

// CreateResult is what a successful registration produced.
type CreateResult struct {
	School        *model.SchoolModel
	Member        *model.SchoolMemberModel
	SeededClasses int
}

// CreateSchool registers a school for creator. The school row, the admin
// membership, the creator's active school and the default classes are
// written in one transaction.
func (s *SchoolService) CreateSchool(ctx context.Context, creator uuid.UUID, req *dto.CreateSchoolRequest) (*CreateResult, error) {
	if msg := req.Validate(); msg != "" {
		return nil, helper.NewCodedError(fiber.StatusBadRequest, "MISSING_FIELDS", msg)
	}
	user, err := s.Store.FindUser(ctx, creator)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewCodedError(fiber.StatusUnauthorized, "UNAUTHORIZED", "User not found")
		}
		return nil, errors.Wrap(err, "find creator")
	}

	school := req.ToModel(creator)
	out := &CreateResult{School: school}
	err = s.Store.InTx(ctx, func(tx TxStore) error {
		if err := tx.InsertSchool(school); err != nil {
			return errors.Wrap(err, "insert school")
		}
		out.Member = &model.SchoolMemberModel{
			SchoolMemberSchoolID:    school.SchoolID,
			SchoolMemberUserID:      creator,
			SchoolMemberEmail:       user.Email,
			SchoolMemberDisplayName: user.UserName,
			SchoolMemberRole:        constants.RoleAdmin,
		}
		if _, err := tx.InsertMember(out.Member); err != nil {
			return errors.Wrap(err, "insert member")
		}
		if err := tx.SetActiveSchool(creator, school.SchoolID); err != nil {
			return errors.Wrap(err, "set active school")
		}
		n, err := tx.SeedClasses(school.SchoolID, school.SchoolLevel)
		if err != nil {
			return errors.Wrap(err, "seed classes")
		}
		out.SeededClasses = n
		return nil
	})
	if err != nil {
		log.Printf("[SCHOOL] create failed user=%s: %v", creator, err)
		return nil, helper.NewCodedError(fiber.StatusInternalServerError, "CREATE_SCHOOL_FAILED", "Failed to register school. Please try again.")
	}
	log.Printf("[SCHOOL] created school=%s level=%s classes=%d by=%s", school.SchoolID, school.SchoolLevel, out.SeededClasses, creator)
	return out, nil
}

func (s *SchoolService) ListMySchools(ctx context.Context, userID uuid.UUID) ([]dto.SchoolSummary, error) {
	rows, err := s.Store.ListForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list schools")
	}
	out := make([]dto.SchoolSummary, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToSchoolSummary(&rows[i].SchoolModel, rows[i].Role))
	}
	return out, nil
}

// SelectSchool persists schoolID as the user's active school after a membership check.
func (s *SchoolService) SelectSchool(ctx context.Context, userID, schoolID uuid.UUID) (*dto.SchoolSummary, error) {
	m, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	role, err := s.Store.MemberRole(ctx, schoolID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "member role")
	}
	if role == "" {
		return nil, ErrNotMember
	}
	if err := s.Store.SetActiveSchool(ctx, userID, schoolID); err != nil {
		return nil, errors.Wrap(err, "set active school")
	}
	sum := dto.ToSchoolSummary(m, role)
	return &sum, nil
}

func (s *SchoolService) GetSchool(ctx context.Context, schoolID uuid.UUID) (*model.SchoolModel, error) {
	m, err := s.Store.FindSchool(ctx, schoolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, errors.Wrap(err, "find school")
	}
	return m, nil
}

func (s *SchoolService) UpdateSchool(ctx context.Context, schoolID uuid.UUID, req *dto.UpdateSchoolRequest) (*model.SchoolModel, error) {
	m, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if msg := req.ApplyToModel(m); msg != "" {
		return nil, helper.NewCodedError(fiber.StatusBadRequest, "MISSING_FIELDS", msg)
	}
	if err := s.Store.SaveSchool(ctx, m); err != nil {
		return nil, errors.Wrap(err, "save school")
	}
	return m, nil
}

// SetLogo stores the already uploaded logo URL and returns the previous one.
func (s *SchoolService) SetLogo(ctx context.Context, schoolID uuid.UUID, url string) (*model.SchoolModel, error) {
	m, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	m.SchoolLogoURL = helper.StrPtr(url)
	if err := s.Store.SaveSchool(ctx, m); err != nil {
		return nil, errors.Wrap(err, "save logo")
	}
	return m, nil
}

// AddAdmin grants an existing user access to the school. Repeating the call
// for the same user changes nothing.
func (s *SchoolService) AddAdmin(ctx context.Context, schoolID uuid.UUID, req *dto.AddAdminRequest) (*model.SchoolMemberModel, bool, error) {
	role, ok := constants.NormalizeRole(req.Role)
	if strings.TrimSpace(req.Role) == "" {
		role, ok = constants.RoleAdmin, true
	}
	if !ok {
		return nil, false, helper.NewCodedError(fiber.StatusBadRequest, "INVALID_ROLE", "Role must be admin or teacher")
	}
	if _, err := s.GetSchool(ctx, schoolID); err != nil {
		return nil, false, err
	}
	user, err := s.Store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, errors.Wrap(err, "find user")
	}

	member := &model.SchoolMemberModel{
		SchoolMemberSchoolID:    schoolID,
		SchoolMemberUserID:      user.ID,
		SchoolMemberEmail:       user.Email,
		SchoolMemberDisplayName: user.UserName,
		SchoolMemberRole:        role,
	}
	var added bool
	err = s.Store.InTx(ctx, func(tx TxStore) error {
		var err error
		if added, err = tx.InsertMember(member); err != nil {
			return errors.Wrap(err, "insert member")
		}
		if role == constants.RoleAdmin {
			return tx.AppendAdmin(schoolID, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return member, added, nil
}
