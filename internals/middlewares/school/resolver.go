package school

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
)

type GormResolver struct{ DB *gorm.DB }

func NewGormResolver(db *gorm.DB) *GormResolver { return &GormResolver{DB: db} }

func (r *GormResolver) StoredActiveSchool(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var row struct {
		ActiveSchoolID *uuid.UUID
	}
	err := r.DB.WithContext(ctx).Table("users").
		Select("active_school_id").
		Where("id = ?", userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	if row.ActiveSchoolID == nil {
		return uuid.Nil, nil
	}
	return *row.ActiveSchoolID, nil
}

// Lookup treats a user listed in school_admin_user_ids as admin even without
// a member row.
func (r *GormResolver) Lookup(ctx context.Context, schoolID, userID uuid.UUID) (*Scope, error) {
	var row struct {
		SchoolID       uuid.UUID
		SchoolTimezone *string
		MemberRole     *string
		IsListedAdmin  bool
	}
	res := r.DB.WithContext(ctx).Raw(`
		SELECT s.school_id,
		       s.school_timezone,
		       m.school_member_role AS member_role,
		       (?::text = ANY(s.school_admin_user_ids)) AS is_listed_admin
		FROM schools s
		LEFT JOIN school_members m
		       ON m.school_member_school_id = s.school_id
		      AND m.school_member_user_id = ?
		WHERE s.school_id = ? AND s.school_deleted_at IS NULL
		LIMIT 1
	`, userID.String(), userID, schoolID).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || row.SchoolID == uuid.Nil {
		return nil, nil
	}

	scope := &Scope{SchoolID: row.SchoolID}
	if row.SchoolTimezone != nil {
		scope.Timezone = *row.SchoolTimezone
	}
	switch {
	case row.MemberRole != nil:
		if role, ok := constants.NormalizeRole(*row.MemberRole); ok {
			scope.Role = role
		}
	case userID != uuid.Nil && row.IsListedAdmin:
		scope.Role = constants.RoleAdmin
	}
	return scope, nil
}
