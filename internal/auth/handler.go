package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/flipover/flipover_auth/internal/identity"
)

const genericFailureMessage = "Something went wrong. Please contact us noreply@gmail.com"

// Handler exposes the auth endpoints. Status codes and messages follow the
// documented API contract, quirks included: validation failures on email
// routes answer 401, already-registered answers 200 with status:false, and a
// mail-delivery failure answers 501.
type Handler struct {
	svc      *Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs the auth HTTP handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, validate: validator.New(), logger: logger}
}

type phoneSignupRequest struct {
	Phone string `json:"phoneNumber"`
}

// PhoneSignup dispatches an OTP to a not-yet-registered phone number.
func (h *Handler) PhoneSignup(c *fiber.Ctx) error {
	var req phoneSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if req.Phone == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message":     "Wrong phone number :(",
			"phoneNumber": req.Phone,
		})
	}

	err := h.svc.PhoneSignup(c.UserContext(), req.Phone)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"message": "OTP Verification is sent!!",
		})
	case errors.Is(err, identity.ErrConflict):
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  false,
			"message": "Phone Number already in use.",
		})
	default:
		return h.serverError(c, err)
	}
}

type phoneVerifyRequest struct {
	Phone    string `json:"phoneNumber"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// PhoneVerify checks the OTP code and completes phone signup.
func (h *Handler) PhoneVerify(c *fiber.Ctx) error {
	var req phoneVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if req.Phone == "" || len(req.Code) != 4 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message":     "Wrong phone number or code :(",
			"phoneNumber": req.Phone,
		})
	}

	user, token, err := h.svc.PhoneVerify(c.UserContext(), req.Phone, req.Password, req.Code)
	switch {
	case err == nil:
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"id":      user.ID.Hex(),
			"message": "User Registration Successful",
			"token":   token,
		})
	case errors.Is(err, ErrOTPExpired):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Your OTP has expired! Kindly request for another OTP.",
		})
	case errors.Is(err, ErrOTPNotApproved):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "OTP verification not approved.",
		})
	case errors.Is(err, identity.ErrConflict):
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  false,
			"message": "Phone Number already in use.",
		})
	default:
		return h.serverError(c, err)
	}
}

type emailSignupRequest struct {
	Email    string `json:"email" validate:"required,min=6,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// EmailSignup parks the signup and emails an activation link.
func (h *Handler) EmailSignup(c *fiber.Ctx) error {
	var req emailSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	err := h.svc.EmailSignup(c.UserContext(), req.Email, req.Password)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"message": "Verification link sent to " + req.Email,
		})
	case errors.Is(err, identity.ErrConflict):
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  false,
			"message": "Email already in use.",
		})
	case errors.Is(err, ErrMailSend):
		h.logger.Error("activation mail failed", "email", req.Email, "error", err)
		return c.Status(http.StatusNotImplemented).JSON(fiber.Map{
			"status":  false,
			"message": genericFailureMessage,
		})
	default:
		return h.serverError(c, err)
	}
}

type verifyTokenRequest struct {
	Token string `json:"token" validate:"required,min=3"`
}

// EmailVerify redeems an activation token and completes email signup.
func (h *Handler) EmailVerify(c *fiber.Ctx) error {
	var req verifyTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if req.Token == "" {
		return c.Status(http.StatusRequestTimeout).JSON(fiber.Map{
			"status":  false,
			"message": "No verification token attached.",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	user, err := h.svc.EmailVerify(c.UserContext(), req.Token)
	var alreadyVerified *AlreadyVerifiedError
	switch {
	case err == nil:
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"id":      user.ID.Hex(),
			"message": "User Registration Successful.",
		})
	case errors.As(err, &alreadyVerified):
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  false,
			"message": alreadyVerified.Error(),
		})
	case errors.Is(err, ErrPendingNotFound):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid or expired activation token.",
		})
	default:
		return h.serverError(c, err)
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,min=6,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login verifies email/password credentials and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	user, token, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "Login Successful",
			"token":   token,
			"user":    user.ID.Hex(),
		})
	case errors.Is(err, identity.ErrNotFound):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Email does not exists.",
		})
	case errors.Is(err, ErrInvalidCredential):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid password.",
		})
	default:
		return h.serverError(c, err)
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mails a short-lived password-reset link.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	err := h.svc.ForgotPassword(c.UserContext(), req.Email)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"message": "Email has been sent to " + req.Email + ". Follow the instruction to set a new password.",
		})
	case errors.Is(err, identity.ErrNotFound):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Email does not exists.",
		})
	case errors.Is(err, ErrMailSend):
		h.logger.Error("reset mail failed", "email", req.Email, "error", err)
		return c.Status(http.StatusNotImplemented).JSON(fiber.Map{
			"status":  false,
			"message": genericFailureMessage,
		})
	default:
		return h.serverError(c, err)
	}
}

type resetPasswordRequest struct {
	Password1 string `json:"password1" validate:"required,min=6"`
	Password2 string `json:"password2" validate:"required,min=6"`
}

// ResetPassword verifies the reset token from the path and replaces the
// stored password hash.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	token := c.Params("token")

	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	if req.Password1 != req.Password2 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"status":  false,
			"message": "Password does not match!",
		})
	}

	user, err := h.svc.ResetPassword(c.UserContext(), token, req.Password1)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"id":      user.ID.Hex(),
			"message": "Password changed successfully!",
		})
	case errors.Is(err, identity.ErrNotFound):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User ID not valid.",
		})
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenMalformed):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return h.serverError(c, err)
	}
}

type googleAuthRequest struct {
	TokenID string `json:"tokenId"`
}

// GoogleLogin signs in an existing account via a Google-issued ID token.
func (h *Handler) GoogleLogin(c *fiber.Ctx) error {
	var req googleAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user, token, err := h.svc.GoogleLogin(c.UserContext(), req.TokenID)
	var signupRequired *SignupRequiredError
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"success": true,
			"token":   token,
			"user":    user.ID.Hex(),
		})
	case errors.As(err, &signupRequired):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": signupRequired.Error(),
		})
	case errors.Is(err, ErrEmailNotVerified):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Google Email not verified.",
		})
	case errors.Is(err, ErrProviderToken):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	default:
		return h.serverError(c, err)
	}
}

// GoogleSignup creates an account from a Google-issued ID token.
func (h *Handler) GoogleSignup(c *fiber.Ctx) error {
	var req googleAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user, token, err := h.svc.GoogleSignup(c.UserContext(), req.TokenID)
	var alreadyRegistered *AlreadyRegisteredError
	switch {
	case err == nil:
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"token":   token,
			"id":      user.ID.Hex(),
			"message": "User Registration Successful.",
		})
	case errors.As(err, &alreadyRegistered):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": alreadyRegistered.Error(),
		})
	case errors.Is(err, ErrEmailNotVerified):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Google Email not verified.",
		})
	case errors.Is(err, ErrProviderToken):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	default:
		return h.serverError(c, err)
	}
}

// Me returns the profile of the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.SendStatus(http.StatusUnauthorized)
	}

	user, err := h.svc.Profile(c.UserContext(), userID)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(user)
	case errors.Is(err, identity.ErrNotFound):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User ID not valid.",
		})
	default:
		return h.serverError(c, err)
	}
}

// serverError logs the failure with full detail and answers with an opaque
// message.
func (h *Handler) serverError(c *fiber.Ctx, err error) error {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		h.logger.Error("upstream failure", "op", upstreamErr.Op, "error", upstreamErr.Err)
	} else {
		h.logger.Error("request failed", "error", err)
	}
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"status":  false,
		"message": genericFailureMessage,
	})
}

func validationError(c *fiber.Ctx, err error) error {
	msg := err.Error()
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		msg = fieldErrs[0].Error()
	}
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}
