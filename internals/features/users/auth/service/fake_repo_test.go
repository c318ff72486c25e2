package service

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	authModel "schoolku_backend/internals/features/users/auth/model"
	authRepo "schoolku_backend/internals/features/users/auth/repository"
)

// memRepo mimics the constraints of the real tables (unique email, unique google id).
type memRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*authModel.UserModel
	refresh   []*authModel.RefreshTokenModel
	blacklist map[string]time.Duration
	schools   map[uuid.UUID][]authRepo.UserSchool
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:     map[uuid.UUID]*authModel.UserModel{},
		blacklist: map[string]time.Duration{},
		schools:   map[uuid.UUID][]authRepo.UserSchool{},
	}
}

func (r *memRepo) CreateUser(_ context.Context, u *authModel.UserModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == u.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"}
		}
	}
	u.ID = uuid.New()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) find(pred func(*authModel.UserModel) bool) (*authModel.UserModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if pred(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) FindUserByEmail(_ context.Context, email string) (*authModel.UserModel, error) {
	return r.find(func(u *authModel.UserModel) bool { return u.Email == email })
}

func (r *memRepo) FindUserByID(_ context.Context, id uuid.UUID) (*authModel.UserModel, error) {
	return r.find(func(u *authModel.UserModel) bool { return u.ID == id })
}

func (r *memRepo) FindUserByGoogleID(_ context.Context, gid string) (*authModel.UserModel, error) {
	return r.find(func(u *authModel.UserModel) bool { return u.GoogleID != nil && *u.GoogleID == gid })
}

func (r *memRepo) LinkGoogleID(_ context.Context, id uuid.UUID, gid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok && u.GoogleID == nil {
		u.GoogleID = &gid
	}
	return nil
}

func (r *memRepo) UpdateUserPassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Password = hash
	}
	return nil
}

func (r *memRepo) SetActiveSchool(_ context.Context, id uuid.UUID, schoolID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.ActiveSchoolID = schoolID
	}
	return nil
}

func (r *memRepo) ListUserSchools(_ context.Context, id uuid.UUID) ([]authRepo.UserSchool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schools[id], nil
}

func (r *memRepo) CreateRefreshToken(_ context.Context, rt *authModel.RefreshTokenModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.refresh {
		if bytes.Equal(x.Token, rt.Token) {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	r.refresh = append(r.refresh, rt)
	return nil
}

func (r *memRepo) FindActiveRefreshToken(_ context.Context, hash []byte) (*authModel.RefreshTokenModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.refresh {
		if bytes.Equal(x.Token, hash) {
			return x, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) DeleteRefreshToken(_ context.Context, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.refresh[:0]
	for _, x := range r.refresh {
		if !bytes.Equal(x.Token, hash) {
			out = append(out, x)
		}
	}
	r.refresh = out
	return nil
}

func (r *memRepo) BlacklistToken(_ context.Context, tok string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blacklist[tok] = ttl
	return nil
}

func (r *memRepo) CleanupExpiredBlacklist(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *memRepo) userCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func newTestService(repo *memRepo) *AuthService {
	s := New(repo)
	s.JWTSecret = "test-access-secret"
	s.RefreshSecret = "test-refresh-secret"
	s.VerifyGoogle = func(tok string) (*GoogleIdentity, error) {
		return &GoogleIdentity{Sub: "g-" + tok, Email: tok + "@gmail.com", Name: "G " + tok}, nil
	}
	return s
}
