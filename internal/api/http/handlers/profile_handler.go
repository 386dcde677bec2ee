package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ProfileHandler serves the profile page.
type ProfileHandler struct {
	pages    *Pages
	auth     *service.AuthService
	sessions *auth.SessionManager
}

// NewProfileHandler constructs handler.
func NewProfileHandler(pages *Pages, authService *service.AuthService, sessions *auth.SessionManager) *ProfileHandler {
	return &ProfileHandler{pages: pages, auth: authService, sessions: sessions}
}

// Page handles GET /update_profile.
func (h *ProfileHandler) Page(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	form := dto.ProfileForm{Name: user.Name, Email: user.Email}
	return h.render(c, fiber.StatusOK, form, "")
}

// Update handles POST /update_profile.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var form dto.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	image, closeImage := formImage(c)
	defer closeImage()

	updated, warnings, err := h.auth.UpdateProfile(c.UserContext(), user, service.ProfileInput{
		Name:            form.Name,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		Image:           image,
	})
	if err != nil {
		if apperrors.IsUserFacing(err) {
			return h.render(c, fiber.StatusBadRequest, form, userMessage(err))
		}
		return err
	}
	auth.SetCurrentUser(c, updated)

	for _, warning := range warnings {
		_ = h.sessions.AddFlash(c, auth.FlashWarning, warning)
	}
	return h.pages.Flash(c, auth.FlashSuccess, "Profile updated successfully.", safeNext(c.Query("next"), "/update_profile"))
}

func (h *ProfileHandler) render(c *fiber.Ctx, status int, form dto.ProfileForm, message string) error {
	form.Password, form.ConfirmPassword = "", ""
	return h.pages.Render(c, status, "profile", fiber.Map{
		"Title": "Your profile",
		"Form":  form,
		"Error": message,
		"Next":  safeNext(c.Query("next"), ""),
	})
}
