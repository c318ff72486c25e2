package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolku_backend/internals/features/schools/classes/seed"
	"schoolku_backend/internals/features/schools/schools/model"
	authModel "schoolku_backend/internals/features/users/auth/model"
)

// MySchool is a school row joined with the caller's role in it.
type MySchool struct {
	model.SchoolModel
	Role string `gorm:"column:role"`
}

// Store is what the school service reads outside a transaction.
// Finders return gorm.ErrRecordNotFound when nothing matches.
type Store interface {
	FindUser(ctx context.Context, id uuid.UUID) (*authModel.UserModel, error)
	FindUserByEmail(ctx context.Context, email string) (*authModel.UserModel, error)
	FindSchool(ctx context.Context, id uuid.UUID) (*model.SchoolModel, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]MySchool, error)
	// MemberRole returns "" when the user is not a member and not a listed admin.
	MemberRole(ctx context.Context, schoolID, userID uuid.UUID) (string, error)
	SetActiveSchool(ctx context.Context, userID, schoolID uuid.UUID) error
	SaveSchool(ctx context.Context, m *model.SchoolModel) error
	// InTx runs fn as one unit of work; any error rolls everything back.
	InTx(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore is the write surface available inside InTx.
type TxStore interface {
	InsertSchool(m *model.SchoolModel) error
	// InsertMember is idempotent on (school, user); it reports whether a row was added.
	InsertMember(m *model.SchoolMemberModel) (bool, error)
	SetActiveSchool(userID, schoolID uuid.UUID) error
	SeedClasses(schoolID uuid.UUID, level model.SchoolLevel) (int, error)
	// AppendAdmin adds userID to admin_user_ids unless already present.
	AppendAdmin(schoolID, userID uuid.UUID) error
}

type GormStore struct{ DB *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) FindUser(ctx context.Context, id uuid.UUID) (*authModel.UserModel, error) {
	var u authModel.UserModel
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*authModel.UserModel, error) {
	var u authModel.UserModel
	if err := s.DB.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) FindSchool(ctx context.Context, id uuid.UUID) (*model.SchoolModel, error) {
	var m model.SchoolModel
	if err := s.DB.WithContext(ctx).Where("school_id = ?", id).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]MySchool, error) {
	var out []MySchool
	err := s.DB.WithContext(ctx).Raw(`
		SELECT s.*, COALESCE(m.school_member_role, 'admin') AS role
		FROM schools s
		LEFT JOIN school_members m
		       ON m.school_member_school_id = s.school_id
		      AND m.school_member_user_id = ?
		WHERE s.school_deleted_at IS NULL
		  AND (m.school_member_id IS NOT NULL OR ?::text = ANY(s.school_admin_user_ids))
		ORDER BY s.school_created_at ASC
	`, userID, userID.String()).Scan(&out).Error
	return out, err
}

func (s *GormStore) MemberRole(ctx context.Context, schoolID, userID uuid.UUID) (string, error) {
	var row struct {
		Role     *string
		IsListed bool
	}
	err := s.DB.WithContext(ctx).Raw(`
		SELECT m.school_member_role AS role,
		       (?::text = ANY(s.school_admin_user_ids)) AS is_listed
		FROM schools s
		LEFT JOIN school_members m
		       ON m.school_member_school_id = s.school_id
		      AND m.school_member_user_id = ?
		WHERE s.school_id = ? AND s.school_deleted_at IS NULL
	`, userID.String(), userID, schoolID).Scan(&row).Error
	if err != nil {
		return "", err
	}
	switch {
	case row.Role != nil:
		return *row.Role, nil
	case row.IsListed:
		return "admin", nil
	}
	return "", nil
}

func (s *GormStore) SetActiveSchool(ctx context.Context, userID, schoolID uuid.UUID) error {
	return gormTx{s.DB.WithContext(ctx)}.SetActiveSchool(userID, schoolID)
}

func (s *GormStore) SaveSchool(ctx context.Context, m *model.SchoolModel) error {
	return s.DB.WithContext(ctx).Save(m).Error
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx TxStore) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{tx})
	})
}

type gormTx struct{ tx *gorm.DB }

func (g gormTx) InsertSchool(m *model.SchoolModel) error {
	return g.tx.Create(m).Error
}

func (g gormTx) InsertMember(m *model.SchoolMemberModel) (bool, error) {
	res := g.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "school_member_school_id"}, {Name: "school_member_user_id"}},
		DoNothing: true,
	}).Create(m)
	return res.RowsAffected > 0, res.Error
}

func (g gormTx) SetActiveSchool(userID, schoolID uuid.UUID) error {
	return g.tx.Model(&authModel.UserModel{}).
		Where("id = ?", userID).
		Update("active_school_id", schoolID).Error
}

func (g gormTx) SeedClasses(schoolID uuid.UUID, level model.SchoolLevel) (int, error) {
	return seed.SeedDefaultClasses(g.tx, schoolID, level)
}

func (g gormTx) AppendAdmin(schoolID, userID uuid.UUID) error {
	return g.tx.Exec(`
		UPDATE schools
		SET school_admin_user_ids = array_append(school_admin_user_ids, ?::text),
		    school_updated_at = NOW()
		WHERE school_id = ? AND NOT (?::text = ANY(school_admin_user_ids))
	`, userID.String(), schoolID, userID.String()).Error
}
