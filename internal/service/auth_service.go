package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/media"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	loginFailedMessage   = "Login failed. Check your email and password."
	emailInUseMessage    = "Email address already in use."
	invalidImageMessage  = "Invalid file format. Only PNG, JPG, JPEG, and GIF are allowed."
	imageFailedMessage   = "An error occurred while uploading the image: %v"
	passwordMismatchText = "Passwords do not match."
)

// ImageStore persists profile pictures.
type ImageStore interface {
	Save(userID, filename string, src io.Reader) (string, error)
}

// ImageUpload is an uploaded file.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Image    *ImageUpload
}

// ProfileInput carries the profile form. An empty Password keeps the
// current one.
type ProfileInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Image           *ImageUpload
}

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	users      repository.UserRepository
	images     ImageStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	now        Clock
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Images   ImageStore
	Logger   *zap.Logger
	Clock    Clock
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		images:     deps.Images,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// TokenManager exposes the JWT manager for middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register validates the form and creates the account. Image problems are
// returned as warnings; the account is still created.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, []string, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if err := domain.ValidateName(name); err != nil {
		return nil, nil, validationError(err)
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, nil, validationError(err)
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, nil, validationError(err)
	}
	if err := domain.ValidateRole(input.Role); err != nil {
		return nil, nil, validationError(err)
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, nil, err
	}

	now := s.now()
	user := &domain.User{
		Name:      name,
		Email:     email,
		Role:      input.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := auth.SetPassword(user, input.Password, s.bcryptCost); err != nil {
		return nil, nil, validationError(err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, apperrors.NewConflict(emailInUseMessage, map[string]any{"field": "email"})
		}
		return nil, nil, apperrors.MapError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	var warnings []string
	if input.Image != nil {
		stored, warning := s.storeImage(user.ID, input.Image)
		if warning != "" {
			warnings = append(warnings, warning)
		}
		if stored != "" {
			user.ProfileImage = &stored
			if err := s.users.Update(ctx, user); err != nil {
				return nil, nil, apperrors.MapError(err)
			}
		}
	}
	return user, warnings, nil
}

// Login verifies credentials. Unknown email and wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewAuthenticationError(loginFailedMessage)
		}
		return nil, apperrors.MapError(err)
	}
	if !auth.CheckPassword(user, password) {
		return nil, apperrors.NewAuthenticationError(loginFailedMessage)
	}
	return user, nil
}

// IssueToken logs in and returns a bearer token for the JSON API.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.Login(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// UpdateProfile changes the actor's name, email, password and picture.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.User, input ProfileInput) (*domain.User, []string, error) {
	if actor == nil {
		return nil, nil, apperrors.NewUnauthorized("login required")
	}
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if err := domain.ValidateName(name); err != nil {
		return nil, nil, validationError(err)
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, nil, validationError(err)
	}
	if err := s.ensureEmailFree(ctx, email, actor.ID); err != nil {
		return nil, nil, err
	}

	updated := *actor
	updated.Name = name
	updated.Email = email
	if input.Password != "" {
		if input.Password != input.ConfirmPassword {
			return nil, nil, apperrors.NewValidationError(passwordMismatchText, map[string]any{"field": "confirm_password"})
		}
		if err := auth.SetPassword(&updated, input.Password, s.bcryptCost); err != nil {
			return nil, nil, validationError(err)
		}
	}

	updated.UpdatedAt = s.now()
	if err := s.saveProfile(ctx, &updated); err != nil {
		return nil, nil, err
	}

	// The picture is written only once the row update has gone through, so a
	// rejected update leaves no file behind.
	var warnings []string
	if input.Image != nil {
		stored, warning := s.storeImage(actor.ID, input.Image)
		if warning != "" {
			warnings = append(warnings, warning)
		}
		if stored != "" {
			updated.ProfileImage = &stored
			if err := s.saveProfile(ctx, &updated); err != nil {
				return nil, nil, err
			}
		}
	}
	return &updated, warnings, nil
}

func (s *AuthService) saveProfile(ctx context.Context, user *domain.User) error {
	err := s.users.Update(ctx, user)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(emailInUseMessage, map[string]any{"field": "email"})
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("user", map[string]any{"user_id": user.ID})
	}
	return apperrors.MapError(err)
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID != ownerID {
		return apperrors.NewConflict(emailInUseMessage, map[string]any{"field": "email"})
	}
	return nil
}

// storeImage returns the stored file name, or a warning for the user.
func (s *AuthService) storeImage(userID string, upload *ImageUpload) (string, string) {
	if upload == nil || upload.Content == nil || upload.Filename == "" || s.images == nil {
		return "", ""
	}
	if _, err := media.Extension(upload.Filename); err != nil {
		return "", invalidImageMessage
	}
	stored, err := s.images.Save(userID, upload.Filename, upload.Content)
	if err != nil {
		s.logger.Warn("profile image upload failed", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Sprintf(imageFailedMessage, err)
	}
	return stored, ""
}
