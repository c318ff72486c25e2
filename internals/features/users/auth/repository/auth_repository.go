package repository

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "schoolku_backend/internals/features/users/auth/model"
)

// UserSchool is one school the user can act in.
type UserSchool struct {
	SchoolID      uuid.UUID `json:"school_id" gorm:"column:school_id"`
	SchoolName    string    `json:"school_name" gorm:"column:school_name"`
	SchoolLogoURL *string   `json:"school_logo_url,omitempty" gorm:"column:school_logo_url"`
	Role          string    `json:"role" gorm:"column:role"`
}

// Repository is the storage surface of the auth service.
// Finders return gorm.ErrRecordNotFound when nothing matches.
type Repository interface {
	CreateUser(ctx context.Context, user *authModel.UserModel) error
	FindUserByEmail(ctx context.Context, email string) (*authModel.UserModel, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*authModel.UserModel, error)
	FindUserByGoogleID(ctx context.Context, googleID string) (*authModel.UserModel, error)
	LinkGoogleID(ctx context.Context, userID uuid.UUID, googleID string) error
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, hash string) error
	SetActiveSchool(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID) error
	ListUserSchools(ctx context.Context, userID uuid.UUID) ([]UserSchool, error)

	CreateRefreshToken(ctx context.Context, rt *authModel.RefreshTokenModel) error
	FindActiveRefreshToken(ctx context.Context, hash []byte) (*authModel.RefreshTokenModel, error)
	DeleteRefreshToken(ctx context.Context, hash []byte) error

	BlacklistToken(ctx context.Context, token string, ttl time.Duration) error
	CleanupExpiredBlacklist(ctx context.Context, before time.Time) (int64, error)
}

type GormRepository struct{ DB *gorm.DB }

func New(db *gorm.DB) *GormRepository { return &GormRepository{DB: db} }

/* ====================== USER ====================== */

func (r *GormRepository) CreateUser(ctx context.Context, user *authModel.UserModel) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepository) FindUserByEmail(ctx context.Context, email string) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := r.DB.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) FindUserByGoogleID(ctx context.Context, googleID string) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := r.DB.WithContext(ctx).Where("google_id = ?", googleID).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepository) LinkGoogleID(ctx context.Context, userID uuid.UUID, googleID string) error {
	return r.DB.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("id = ? AND google_id IS NULL", userID).
		Update("google_id", googleID).Error
}

func (r *GormRepository) UpdateUserPassword(ctx context.Context, userID uuid.UUID, hash string) error {
	return r.DB.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("id = ?", userID).
		Update("password", hash).Error
}

func (r *GormRepository) SetActiveSchool(ctx context.Context, userID uuid.UUID, schoolID *uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("id = ?", userID).
		Update("active_school_id", schoolID).Error
}

// ListUserSchools: member rows plus schools listing the user in the admin array.
func (r *GormRepository) ListUserSchools(ctx context.Context, userID uuid.UUID) ([]UserSchool, error) {
	var out []UserSchool
	err := r.DB.WithContext(ctx).Raw(`
		SELECT s.school_id, s.school_name, s.school_logo_url,
		       COALESCE(m.school_member_role, 'admin') AS role
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

/* ====================== REFRESH TOKEN ====================== */

// CreateRefreshToken trades durability for latency: a token lost on a crash
// right after commit only forces a new sign-in.
func (r *GormRepository) CreateRefreshToken(ctx context.Context, rt *authModel.RefreshTokenModel) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SET LOCAL synchronous_commit = OFF`).Error; err != nil {
			log.Printf("[AUTH] set synchronous_commit=OFF failed: %v", err)
		}
		return tx.Create(rt).Error
	})
}

func (r *GormRepository) FindActiveRefreshToken(ctx context.Context, hash []byte) (*authModel.RefreshTokenModel, error) {
	var rt authModel.RefreshTokenModel
	if err := r.DB.WithContext(ctx).
		Where("token = ? AND revoked_at IS NULL AND expires_at > NOW()", hash).
		Take(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *GormRepository) DeleteRefreshToken(ctx context.Context, hash []byte) error {
	return r.DB.WithContext(ctx).Where("token = ?", hash).Delete(&authModel.RefreshTokenModel{}).Error
}

/* ====================== BLACKLIST TOKEN ====================== */

// BlacklistToken is idempotent.
func (r *GormRepository) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&authModel.TokenBlacklistModel{
			Token:     token,
			ExpiredAt: time.Now().UTC().Add(ttl),
		}).Error
}

// CleanupExpiredBlacklist soft deletes; the trash reaper hard deletes later.
func (r *GormRepository) CleanupExpiredBlacklist(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expired_at < ?", before).
		Delete(&authModel.TokenBlacklistModel{})
	return res.RowsAffected, res.Error
}
