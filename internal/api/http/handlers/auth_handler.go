package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AuthHandler serves the login, registration and logout pages.
type AuthHandler struct {
	pages    *Pages
	auth     *service.AuthService
	sessions *auth.SessionManager
	logger   *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(pages *Pages, authService *service.AuthService, sessions *auth.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{pages: pages, auth: authService, sessions: sessions, logger: logger}
}

// Index handles GET / and /index.
func (h *AuthHandler) Index(c *fiber.Ctx) error {
	if user, ok := auth.CurrentUser(c); ok {
		return c.Redirect(landingPath(user), fiber.StatusFound)
	}
	return h.pages.Render(c, fiber.StatusOK, "index", nil)
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	if user, ok := auth.CurrentUser(c); ok {
		return c.Redirect(safeNext(c.Query("next"), landingPath(user)), fiber.StatusFound)
	}
	return h.pages.Render(c, fiber.StatusOK, "login", fiber.Map{"Title": "Log in", "Next": c.Query("next")})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	if form.Next == "" {
		form.Next = c.Query("next")
	}

	user, err := h.auth.Login(c.UserContext(), form.Email, form.Password)
	if err != nil {
		if apperrors.IsUserFacing(err) {
			return h.pages.Render(c, fiber.StatusUnauthorized, "login", fiber.Map{
				"Title": "Log in",
				"Error": userMessage(err),
				"Email": form.Email,
				"Next":  form.Next,
			})
		}
		return err
	}
	welcome := auth.Flash{Category: auth.FlashSuccess, Message: "Welcome back, " + user.Name + "!"}
	if err := h.sessions.Login(c, user.ID, welcome); err != nil {
		return apperrors.NewInternalError(err)
	}
	h.logger.Info("user logged in", zap.String("user_id", user.ID))
	return c.Redirect(safeNext(form.Next, landingPath(user)), fiber.StatusFound)
}

// RegisterPage handles GET /register.
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return h.renderRegister(c, fiber.StatusOK, dto.RegisterForm{Role: string(domain.RoleRegular)}, "")
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	if err := dto.ValidateStruct(form); err != nil {
		return h.renderRegister(c, fiber.StatusBadRequest, form, userMessage(err))
	}

	image, closeImage := formImage(c)
	defer closeImage()

	user, warnings, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Role:     domain.Role(form.Role),
		Image:    image,
	})
	if err != nil {
		if apperrors.IsUserFacing(err) {
			return h.renderRegister(c, fiber.StatusBadRequest, form, userMessage(err))
		}
		return err
	}
	flashes := []auth.Flash{{Category: auth.FlashSuccess, Message: "Registration successful."}}
	for _, warning := range warnings {
		flashes = append(flashes, auth.Flash{Category: auth.FlashWarning, Message: warning})
	}
	if err := h.sessions.Login(c, user.ID, flashes...); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect(landingPath(user), fiber.StatusFound)
}

func (h *AuthHandler) renderRegister(c *fiber.Ctx, status int, form dto.RegisterForm, message string) error {
	form.Password = ""
	return h.pages.Render(c, status, "register", fiber.Map{
		"Title": "Register",
		"Form":  form,
		"Roles": domain.Roles,
		"Error": message,
	})
}

// Logout handles GET /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Redirect("/login", fiber.StatusFound)
}

// formImage returns the uploaded profile image, if any, and a function that
// releases it.
func formImage(c *fiber.Ctx) (*service.ImageUpload, func()) {
	header, err := c.FormFile("profile_image")
	if err != nil || header == nil || header.Filename == "" {
		return nil, func() {}
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}
	}
	return &service.ImageUpload{Filename: header.Filename, Content: file}, func() { _ = file.Close() }
}
