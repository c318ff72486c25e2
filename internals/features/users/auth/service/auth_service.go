package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	authHelper "schoolku_backend/internals/features/users/auth/helper"
	authModel "schoolku_backend/internals/features/users/auth/model"
	authRepo "schoolku_backend/internals/features/users/auth/repository"
	helper "schoolku_backend/internals/helpers"
)

type RegisterInput struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ClientMeta is stored with the refresh token.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// Session is the result of every successful sign-in path.
type Session struct {
	User             *authModel.UserModel
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	ActiveSchoolID   *uuid.UUID
	Schools          []authRepo.UserSchool
}

type GoogleIdentity struct {
	Sub, Email, Name string
}

type AuthService struct {
	Repo          authRepo.Repository
	JWTSecret     string
	RefreshSecret string
	Now           func() time.Time
	// VerifyGoogle checks a Google ID token against the configured client id.
	VerifyGoogle func(idToken string) (*GoogleIdentity, error)
}

func New(repo authRepo.Repository) *AuthService {
	return &AuthService{
		Repo:          repo,
		JWTSecret:     configs.JWTSecret,
		RefreshSecret: configs.JWTRefreshSecret,
		Now:           func() time.Time { return time.Now().UTC() },
		VerifyGoogle:  verifyGoogleIDToken,
	}
}

func verifyGoogleIDToken(idToken string) (*GoogleIdentity, error) {
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{configs.GoogleClientID}); err != nil {
		return nil, err
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, err
	}
	return &GoogleIdentity{Sub: claimSet.Sub, Email: claimSet.Email, Name: claimSet.Name}, nil
}

/* ==========================
   REGISTER
========================== */

// Register relies on the unique email index: a duplicate never creates a row
// and surfaces EMAIL_ALREADY_IN_USE. The new user is signed in right away.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (*Session, error) {
	name := strings.TrimSpace(in.UserName)
	email := authHelper.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, authError(CodeMissingFields)
	}
	if !authHelper.IsValidEmail(email) {
		return nil, authError(CodeInvalidEmail)
	}
	if authHelper.IsWeakPassword(in.Password) {
		return nil, authError(CodeWeakPassword)
	}

	hash, err := authHelper.HashPassword(in.Password)
	if err != nil {
		return nil, authError(CodeSignUpFailed)
	}
	user := &authModel.UserModel{
		UserName: name,
		Email:    email,
		Password: hash,
		IsActive: true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, authError(CodeEmailInUse)
		}
		log.Printf("[AUTH] create user failed: %v", err)
		return nil, authError(CodeSignUpFailed)
	}
	return s.issueSession(ctx, user, meta)
}

/* ==========================
   LOGIN
========================== */

func (s *AuthService) Login(ctx context.Context, in LoginInput, meta ClientMeta) (*Session, error) {
	email := authHelper.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, authError(CodeMissingFields)
	}
	if !authHelper.IsValidEmail(email) {
		return nil, authError(CodeInvalidEmail)
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, authError(CodeUserNotFound)
	}
	if err != nil {
		log.Printf("[AUTH] find user failed: %v", err)
		return nil, authError(CodeSignInFailed)
	}
	if !user.IsActive {
		return nil, authError(CodeUserDisabled)
	}
	if err := authHelper.CheckPasswordHash(user.Password, in.Password); err != nil {
		return nil, authError(CodeWrongPassword)
	}
	return s.issueSession(ctx, user, meta)
}

// LoginGoogle signs in by google id, links an existing email account, or
// creates a new one.
func (s *AuthService) LoginGoogle(ctx context.Context, idToken string, meta ClientMeta) (*Session, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, authError(CodeMissingFields)
	}
	ident, err := s.VerifyGoogle(idToken)
	if err != nil {
		return nil, helper.NewCodedError(401, CodeInvalidToken, "Invalid Google ID Token")
	}

	user, err := s.Repo.FindUserByGoogleID(ctx, ident.Sub)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.Repo.FindUserByEmail(ctx, authHelper.NormalizeEmail(ident.Email))
		switch {
		case err == nil:
			if lerr := s.Repo.LinkGoogleID(ctx, user.ID, ident.Sub); lerr != nil {
				log.Printf("[AUTH] link google id failed: %v", lerr)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user, err = s.createGoogleUser(ctx, ident)
		}
	}
	if err != nil {
		if ce, ok := err.(*helper.CodedError); ok {
			return nil, ce
		}
		log.Printf("[AUTH] google sign-in failed: %v", err)
		return nil, authError(CodeSignInFailed)
	}
	if !user.IsActive {
		return nil, authError(CodeUserDisabled)
	}
	return s.issueSession(ctx, user, meta)
}

func (s *AuthService) createGoogleUser(ctx context.Context, ident *GoogleIdentity) (*authModel.UserModel, error) {
	hash, err := authHelper.HashPassword(randomSecret())
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name = strings.SplitN(ident.Email, "@", 2)[0]
	}
	sub := ident.Sub
	user := &authModel.UserModel{
		UserName: name,
		Email:    authHelper.NormalizeEmail(ident.Email),
		Password: hash,
		GoogleID: &sub,
		IsActive: true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, authError(CodeEmailInUse)
		}
		return nil, err
	}
	return user, nil
}

/* ==========================
   LOGOUT
========================== */

// Logout is idempotent; missing tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	if accessToken != "" {
		ttl := resolveBlacklistTTL(accessToken, s.JWTSecret)
		if err := s.Repo.BlacklistToken(ctx, accessToken, ttl); err != nil {
			log.Printf("[AUTH] blacklist token failed: %v", err)
		}
	}
	if refreshToken != "" && s.RefreshSecret != "" {
		if err := s.Repo.DeleteRefreshToken(ctx, computeRefreshHash(refreshToken, s.RefreshSecret)); err != nil {
			log.Printf("[AUTH] delete refresh token failed: %v", err)
		}
	}
}

/* ==========================
   REFRESH
========================== */

// Refresh rotates: the presented refresh token is deleted and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*Session, error) {
	if refreshToken == "" {
		return nil, authError(CodeInvalidToken)
	}
	userID, err := parseRefresh(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, authError(CodeInvalidToken)
	}
	hash := computeRefreshHash(refreshToken, s.RefreshSecret)
	if _, err := s.Repo.FindActiveRefreshToken(ctx, hash); err != nil {
		return nil, authError(CodeInvalidToken)
	}
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, authError(CodeInvalidToken)
	}
	if !user.IsActive {
		return nil, authError(CodeUserDisabled)
	}
	if err := s.Repo.DeleteRefreshToken(ctx, hash); err != nil {
		log.Printf("[AUTH] rotate: delete old refresh failed: %v", err)
	}
	return s.issueSession(ctx, user, meta)
}

/* ==========================
   ME
========================== */

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*Session, error) {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	schools, err := s.Repo.ListUserSchools(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list schools")
	}
	return &Session{
		User:           user,
		ActiveSchoolID: s.syncActiveSchool(ctx, user, schools),
		Schools:        schools,
	}, nil
}

/* ==========================
   ISSUE TOKENS
========================== */

func (s *AuthService) issueSession(ctx context.Context, user *authModel.UserModel, meta ClientMeta) (*Session, error) {
	now := s.Now()

	access, err := sign(buildAccessClaims(*user, now), s.JWTSecret)
	if err != nil {
		log.Printf("[AUTH] sign access token: %v", err)
		return nil, authError(CodeSignInFailed)
	}
	refresh, err := sign(buildRefreshClaims(user.ID, now), s.RefreshSecret)
	if err != nil {
		log.Printf("[AUTH] sign refresh token: %v", err)
		return nil, authError(CodeSignInFailed)
	}
	if err := s.Repo.CreateRefreshToken(ctx, &authModel.RefreshTokenModel{
		UserID:    user.ID,
		Token:     computeRefreshHash(refresh, s.RefreshSecret),
		ExpiresAt: now.Add(refreshTTLDefault),
		UserAgent: helper.StrPtr(meta.UserAgent),
		IP:        helper.StrPtr(meta.IP),
	}); err != nil {
		log.Printf("[AUTH] store refresh token: %v", err)
		return nil, authError(CodeSignInFailed)
	}

	schools, err := s.Repo.ListUserSchools(ctx, user.ID)
	if err != nil {
		log.Printf("[AUTH] list schools: %v", err)
	}

	return &Session{
		User:             user,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(accessTTLDefault),
		RefreshExpiresAt: now.Add(refreshTTLDefault),
		ActiveSchoolID:   s.syncActiveSchool(ctx, user, schools),
		Schools:          schools,
	}, nil
}

// syncActiveSchool persists the picked school when it differs from the stored one.
func (s *AuthService) syncActiveSchool(ctx context.Context, user *authModel.UserModel, schools []authRepo.UserSchool) *uuid.UUID {
	picked := PickActiveSchool(user.ActiveSchoolID, schools)
	if !sameID(picked, user.ActiveSchoolID) {
		if err := s.Repo.SetActiveSchool(ctx, user.ID, picked); err != nil {
			log.Printf("[AUTH] persist active school: %v", err)
		} else {
			user.ActiveSchoolID = picked
		}
	}
	return picked
}

// PickActiveSchool keeps the stored school while the user still belongs to
// it, else prefers the first school the user administers.
func PickActiveSchool(stored *uuid.UUID, schools []authRepo.UserSchool) *uuid.UUID {
	if len(schools) == 0 {
		return nil
	}
	if stored != nil {
		for _, sc := range schools {
			if sc.SchoolID == *stored {
				id := sc.SchoolID
				return &id
			}
		}
	}
	for _, sc := range schools {
		if sc.Role == "admin" {
			id := sc.SchoolID
			return &id
		}
	}
	id := schools[0].SchoolID
	return &id
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func randomSecret() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
