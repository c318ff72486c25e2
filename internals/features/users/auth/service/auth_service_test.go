package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authRepo "schoolku_backend/internals/features/users/auth/repository"
	helper "schoolku_backend/internals/helpers"
)

func codeOf(t *testing.T, err error) *helper.CodedError {
	t.Helper()
	var ce *helper.CodedError
	require.True(t, errors.As(err, &ce), "expected CodedError, got %v", err)
	return ce
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(newMemRepo())
	tests := []struct {
		name     string
		in       RegisterInput
		wantCode string
		wantMsg  string
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "secret1"}, CodeMissingFields, "Please fill in all fields"},
		{"blank email", RegisterInput{UserName: "Ann", Email: "  ", Password: "secret1"}, CodeMissingFields, "Please fill in all fields"},
		{"invalid email", RegisterInput{UserName: "Ann", Email: "ann@", Password: "secret1"}, CodeInvalidEmail, "The email address is not valid."},
		{"weak password", RegisterInput{UserName: "Ann", Email: "ann@school.ug", Password: "12345"}, CodeWeakPassword, "The password is too weak."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in, ClientMeta{})
			ce := codeOf(t, err)
			assert.Equal(t, tt.wantCode, ce.Code)
			assert.Equal(t, tt.wantMsg, ce.Message)
		})
	}
}

func TestRegister_DuplicateEmailCreatesNoUser(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{UserName: "Ann", Email: "Ann@School.ug", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, "ann@school.ug", sess.User.Email)
	require.Equal(t, 1, repo.userCount())

	_, err = svc.Register(ctx, RegisterInput{UserName: "Ann 2", Email: "ann@school.ug", Password: "another1"}, ClientMeta{})
	ce := codeOf(t, err)
	assert.Equal(t, CodeEmailInUse, ce.Code)
	assert.Equal(t, 409, ce.Status)
	assert.Equal(t, "This email address is already in use.", ce.Message)
	assert.Equal(t, 1, repo.userCount())
}

func TestLogin(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{UserName: "Ann", Email: "ann@school.ug", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@school.ug", Password: "secret1"}, ClientMeta{})
	assert.Equal(t, CodeUserNotFound, codeOf(t, err).Code)

	_, err = svc.Login(ctx, LoginInput{Email: "ann@school.ug", Password: "wrong-pass"}, ClientMeta{})
	assert.Equal(t, "Incorrect password. Please try again.", codeOf(t, err).Message)

	_, err = svc.Login(ctx, LoginInput{Email: "not-an-email", Password: "x"}, ClientMeta{})
	assert.Equal(t, CodeInvalidEmail, codeOf(t, err).Code)

	sess, err := svc.Login(ctx, LoginInput{Email: " ANN@school.ug ", Password: "secret1"}, ClientMeta{IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)

	u, _ := repo.FindUserByEmail(ctx, "ann@school.ug")
	repo.users[u.ID].IsActive = false
	_, err = svc.Login(ctx, LoginInput{Email: "ann@school.ug", Password: "secret1"}, ClientMeta{})
	assert.Equal(t, "This user account has been disabled.", codeOf(t, err).Message)
}

func TestRefreshRotates(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{UserName: "Ann", Email: "ann@school.ug", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, sess.RefreshToken, ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, sess.RefreshToken, ClientMeta{})
	assert.Equal(t, CodeInvalidToken, codeOf(t, err).Code, "old refresh token must not be reusable")

	// an access token is not a refresh token
	_, err = svc.Refresh(ctx, next.AccessToken, ClientMeta{})
	assert.Error(t, err)
}

func TestLogoutBlacklistsAndRevokes(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{UserName: "Ann", Email: "ann@school.ug", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)

	svc.Logout(ctx, sess.AccessToken, sess.RefreshToken)
	ttl, ok := repo.blacklist[sess.AccessToken]
	require.True(t, ok)
	assert.Greater(t, ttl.Hours(), 23.0)

	_, err = svc.Refresh(ctx, sess.RefreshToken, ClientMeta{})
	assert.Error(t, err)

	// idempotent with nothing to revoke
	svc.Logout(ctx, "", "")
}

func TestLoginGoogle_CreatesThenReuses(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.LoginGoogle(ctx, "ann", ClientMeta{})
	require.NoError(t, err)
	second, err := svc.LoginGoogle(ctx, "ann", ClientMeta{})
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, repo.userCount())
}

func TestChangePassword(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{UserName: "Ann", Email: "ann@school.ug", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, sess.User.ID, ChangePasswordInput{CurrentPassword: "nope", NewPassword: "secret2"})
	assert.Equal(t, CodeWrongPassword, codeOf(t, err).Code)

	require.NoError(t, svc.ChangePassword(ctx, sess.User.ID, ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2"}))
	_, err = svc.Login(ctx, LoginInput{Email: "ann@school.ug", Password: "secret2"}, ClientMeta{})
	assert.NoError(t, err)
}

func TestPickActiveSchool(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	schools := []authRepo.UserSchool{
		{SchoolID: a, Role: "teacher"},
		{SchoolID: b, Role: "admin"},
	}

	assert.Nil(t, PickActiveSchool(&a, nil))
	assert.Equal(t, a, *PickActiveSchool(&a, schools), "stored membership is kept")
	assert.Equal(t, b, *PickActiveSchool(&c, schools), "stale preference falls back to an admin school")
	assert.Equal(t, b, *PickActiveSchool(nil, schools))
	assert.Equal(t, a, *PickActiveSchool(nil, schools[:1]))
}

func TestSessionPersistsPickedSchool(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{UserName: "Ann", Email: "ann@school.ug", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)
	assert.Nil(t, sess.ActiveSchoolID)

	school := uuid.New()
	repo.schools[sess.User.ID] = []authRepo.UserSchool{{SchoolID: school, SchoolName: "St. Mary", Role: "admin"}}

	me, err := svc.Me(ctx, sess.User.ID)
	require.NoError(t, err)
	require.NotNil(t, me.ActiveSchoolID)
	assert.Equal(t, school, *me.ActiveSchoolID)

	stored, _ := repo.FindUserByID(ctx, sess.User.ID)
	require.NotNil(t, stored.ActiveSchoolID)
	assert.Equal(t, school, *stored.ActiveSchoolID)
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "No user found with this email address.", MessageFor(CodeUserNotFound))
	assert.Equal(t, "Unable to sign in. Please try again.", MessageFor("SOMETHING_ELSE"))
}
