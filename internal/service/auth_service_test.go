package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Save(userID, filename string, src io.Reader) (string, error) {
	args := m.Called(userID, filename, src)
	return args.String(0), args.Error(1)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	user, warnings, err := f.auth.Register(f.ctx, RegisterInput{
		Name:     " Nora New ",
		Email:    "nora@example.com",
		Password: "Str0ng!pass",
		Role:     domain.RoleRegular,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Nora New", user.Name)
	assert.NotEqual(t, "Str0ng!pass", user.PasswordHash)

	logged, err := f.auth.Login(f.ctx, "NORA@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegister_WeakPasswordCreatesNothing(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.Register(f.ctx, RegisterInput{
		Name:     "Nora New",
		Email:    "nora@example.com",
		Password: "weakpass",
		Role:     domain.RoleRegular,
	})
	require.Error(t, err)
	assert.Equal(t, "Password must contain at least one number.", apperrors.ToDomainError(err).Message)

	_, err = f.store.Users().GetByEmail(f.ctx, "nora@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegister_Rejections(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.Register(f.ctx, RegisterInput{Name: "Dup", Email: "REGULAR@example.com", Password: "Str0ng!pass", Role: domain.RoleRegular})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeConflict, de.Code)
	assert.Equal(t, "Email address already in use.", de.Message)

	_, _, err = f.auth.Register(f.ctx, RegisterInput{Name: "R2D2", Email: "r2@example.com", Password: "Str0ng!pass", Role: domain.RoleRegular})
	assert.EqualError(t, err, "Name cannot contain numbers.")

	_, _, err = f.auth.Register(f.ctx, RegisterInput{Name: "Odd Role", Email: "odd@example.com", Password: "Str0ng!pass", Role: "root"})
	assert.EqualError(t, err, "Invalid role selected.")
}

func TestRegister_ImageWarningsKeepAccount(t *testing.T) {
	f := newFixture(t)
	images := &mockImageStore{}
	f.auth.images = images

	user, warnings, err := f.auth.Register(f.ctx, RegisterInput{
		Name:     "Pic Person",
		Email:    "pic@example.com",
		Password: "Str0ng!pass",
		Role:     domain.RoleRegular,
		Image:    &ImageUpload{Filename: "avatar.bmp", Content: strings.NewReader("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid file format. Only PNG, JPG, JPEG, and GIF are allowed."}, warnings)
	assert.Nil(t, user.ProfileImage)
	images.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)

	images.On("Save", mock.AnythingOfType("string"), "broken.png", mock.Anything).Return("", errors.New("decode failed")).Once()
	_, warnings, err = f.auth.Register(f.ctx, RegisterInput{
		Name:     "Broken Pic",
		Email:    "broken@example.com",
		Password: "Str0ng!pass",
		Role:     domain.RoleRegular,
		Image:    &ImageUpload{Filename: "broken.png", Content: strings.NewReader("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"An error occurred while uploading the image: decode failed"}, warnings)
	images.AssertExpectations(t)
}

func TestLogin_GenericFailure(t *testing.T) {
	f := newFixture(t)

	_, errWrongPassword := f.auth.Login(f.ctx, "regular@example.com", "nope")
	_, errUnknown := f.auth.Login(f.ctx, "ghost@example.com", "Passw0rd!")
	require.Error(t, errWrongPassword)
	require.Error(t, errUnknown)
	assert.Equal(t, errWrongPassword.Error(), errUnknown.Error())
	assert.Equal(t, "Login failed. Check your email and password.", errUnknown.Error())
	assert.True(t, apperrors.HasCode(errUnknown, apperrors.CodeAuthentication))
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)

	user, token, exp, err := f.auth.IssueToken(f.ctx, "support@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, f.support.ID, user.ID)
	assert.False(t, exp.IsZero())

	claims, err := f.auth.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, f.support.ID, claims.Subject)
	assert.Equal(t, domain.RoleSupport, claims.Role)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	images := &mockImageStore{}
	f.auth.images = images
	images.On("Save", f.regular.ID, "me.png", mock.Anything).Return("user_"+f.regular.ID+".png", nil).Once()

	updated, warnings, err := f.auth.UpdateProfile(f.ctx, f.regular, ProfileInput{
		Name:  "Rita Renamed",
		Email: "REGULAR@example.com",
		Image: &ImageUpload{Filename: "me.png", Content: strings.NewReader("png")},
	})
	require.NoError(t, err, "keeping one's own email is not a conflict")
	assert.Empty(t, warnings)
	assert.Equal(t, "Rita Renamed", updated.Name)
	require.NotNil(t, updated.ProfileImage)
	assert.Equal(t, "user_"+f.regular.ID+".png", *updated.ProfileImage)
	assert.Equal(t, f.regular.PasswordHash, updated.PasswordHash, "blank password keeps the old hash")
	images.AssertExpectations(t)

	stored, err := f.store.Users().GetByID(f.ctx, f.regular.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rita Renamed", stored.Name)
	require.NotNil(t, stored.ProfileImage)
	assert.Equal(t, "user_"+f.regular.ID+".png", *stored.ProfileImage)
}

// conflictingUsers fails every update with a unique violation, as when another
// account claims the email between the availability check and the write.
type conflictingUsers struct {
	repository.UserRepository
}

func (conflictingUsers) Update(context.Context, *domain.User) error {
	return repository.ErrDuplicate
}

func TestUpdateProfile_FailedUpdateStoresNoImage(t *testing.T) {
	f := newFixture(t)
	images := &mockImageStore{}
	f.auth.images = images
	f.auth.users = conflictingUsers{f.store.Users()}

	_, _, err := f.auth.UpdateProfile(f.ctx, f.regular, ProfileInput{
		Name:  "Rita Renamed",
		Email: "rita@example.com",
		Image: &ImageUpload{Filename: "me.png", Content: strings.NewReader("png")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	images.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)

	stored, err := f.store.Users().GetByID(f.ctx, f.regular.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rita Regular", stored.Name)
	assert.Nil(t, stored.ProfileImage)
}

func TestUpdateProfile_Rejections(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.UpdateProfile(f.ctx, f.regular, ProfileInput{
		Name: "Rita Regular", Email: "regular@example.com", Password: "N3w!passw", ConfirmPassword: "N3w!passx",
	})
	assert.EqualError(t, err, "Passwords do not match.")

	_, _, err = f.auth.UpdateProfile(f.ctx, f.regular, ProfileInput{
		Name: "Rita Regular", Email: "support@example.com",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, _, err = f.auth.UpdateProfile(f.ctx, f.regular, ProfileInput{
		Name: "Rita Regular", Email: "regular@example.com", Password: "short", ConfirmPassword: "short",
	})
	assert.EqualError(t, err, "Password must be at least 8 characters long.")

	updated, _, err := f.auth.UpdateProfile(f.ctx, f.regular, ProfileInput{
		Name: "Rita Regular", Email: "regular@example.com", Password: "N3w!passw", ConfirmPassword: "N3w!passw",
	})
	require.NoError(t, err)
	_, err = f.auth.Login(f.ctx, updated.Email, "N3w!passw")
	assert.NoError(t, err)
}
