package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flipover/flipover_auth/internal/identity"
	"github.com/flipover/flipover_auth/internal/notification"
	"github.com/flipover/flipover_auth/internal/oauth"
	"github.com/flipover/flipover_auth/internal/sms"
)

// Deps aggregates the collaborators the auth service orchestrates.
type Deps struct {
	Users      identity.Repository
	Pending    PendingStore
	Tokens     *TokenManager
	OTP        sms.Verifier
	Google     oauth.Verifier
	Mail       notification.Sender
	Logger     *slog.Logger
	ClientURL  string
	PendingTTL time.Duration
}

// Service sequences the credential flows: phone and email signup/verification,
// password login, password reset and Google-assisted login/signup. No Identity
// is persisted before its verification channel confirms.
type Service struct {
	users      identity.Repository
	pending    PendingStore
	tokens     *TokenManager
	otp        sms.Verifier
	google     oauth.Verifier
	mail       notification.Sender
	logger     *slog.Logger
	clientURL  string
	pendingTTL time.Duration
}

// NewService wires the auth service from its dependencies.
func NewService(d Deps) *Service {
	return &Service{
		users:      d.Users,
		pending:    d.Pending,
		tokens:     d.Tokens,
		otp:        d.OTP,
		google:     d.Google,
		mail:       d.Mail,
		logger:     d.Logger,
		clientURL:  d.ClientURL,
		pendingTTL: d.PendingTTL,
	}
}

// PhoneSignup dispatches an OTP to the phone number unless it is already
// registered. No local state changes.
func (s *Service) PhoneSignup(ctx context.Context, phone string) error {
	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return identity.ErrConflict
	} else if !errors.Is(err, identity.ErrNotFound) {
		return upstream("find by phone", err)
	}

	if err := s.otp.StartVerification(ctx, phone); err != nil {
		return upstream("start otp verification", err)
	}
	return nil
}

// PhoneVerify submits the OTP code to the provider and, on approval, persists
// the identity with a hashed password and issues a session token.
func (s *Service) PhoneVerify(ctx context.Context, phone, password, code string) (identity.User, string, error) {
	status, err := s.otp.CheckVerification(ctx, phone, code)
	if err != nil {
		return identity.User{}, "", upstream("check otp verification", err)
	}

	switch status {
	case sms.StatusApproved:
	case sms.StatusExpired:
		return identity.User{}, "", ErrOTPExpired
	default:
		return identity.User{}, "", ErrOTPNotApproved
	}

	hash, err := HashPassword(password)
	if err != nil {
		return identity.User{}, "", upstream("hash password", err)
	}

	user, err := s.users.Insert(ctx, identity.User{
		Phone:        phone,
		PasswordHash: hash,
		Verified:     true,
	})
	if err != nil {
		if errors.Is(err, identity.ErrConflict) {
			return identity.User{}, "", identity.ErrConflict
		}
		return identity.User{}, "", upstream("insert user", err)
	}

	token, err := s.tokens.IssueSession(user.ID.Hex(), user.Email, user.Phone)
	if err != nil {
		return identity.User{}, "", upstream("issue session token", err)
	}

	s.logger.Info("phone signup completed", "user_id", user.ID.Hex(), "phone", user.Phone)
	return user, token, nil
}

// EmailSignup parks a pending signup under a fresh activation token and mails
// the activation link. The password is hashed before it is stored anywhere.
func (s *Service) EmailSignup(ctx context.Context, email, password string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return identity.ErrConflict
	} else if !errors.Is(err, identity.ErrNotFound) {
		return upstream("find by email", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return upstream("hash password", err)
	}

	token, err := NewActivationToken()
	if err != nil {
		return upstream("generate activation token", err)
	}
	if err := s.pending.Put(ctx, token, PendingSignup{Email: email, PasswordHash: hash}, s.pendingTTL); err != nil {
		return upstream("store pending signup", err)
	}

	body := fmt.Sprintf(`
		<h3>Welcome to FlipOver.</h3>
		<p>Please click on the link to activate your account</p>
		<a href="%s/auth/activate/%s">Activate your account here</a>
		<hr />
	`, s.clientURL, token)
	if err := s.mail.Send(ctx, email, "Account activation link.", body); err != nil {
		return fmt.Errorf("%w: %v", ErrMailSend, err)
	}
	return nil
}

// EmailVerify redeems an activation token and persists the identity it holds.
// An already-registered email is reported as AlreadyVerifiedError without
// touching the store.
func (s *Service) EmailVerify(ctx context.Context, token string) (identity.User, error) {
	signup, err := s.pending.Take(ctx, token)
	if err != nil {
		if errors.Is(err, ErrPendingNotFound) {
			return identity.User{}, ErrPendingNotFound
		}
		return identity.User{}, upstream("take pending signup", err)
	}

	if _, err := s.users.FindByEmail(ctx, signup.Email); err == nil {
		return identity.User{}, &AlreadyVerifiedError{Email: signup.Email}
	} else if !errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, upstream("find by email", err)
	}

	user, err := s.users.Insert(ctx, identity.User{
		Email:        signup.Email,
		PasswordHash: signup.PasswordHash,
		Verified:     true,
	})
	if err != nil {
		if errors.Is(err, identity.ErrConflict) {
			// Lost the race to a concurrent verification of the same email.
			return identity.User{}, &AlreadyVerifiedError{Email: signup.Email}
		}
		return identity.User{}, upstream("insert user", err)
	}

	s.logger.Info("email signup completed", "user_id", user.ID.Hex(), "email", user.Email)
	return user, nil
}

// Login verifies email/password credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (identity.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, "", identity.ErrNotFound
		}
		return identity.User{}, "", upstream("find by email", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return identity.User{}, "", ErrInvalidCredential
	}

	token, err := s.tokens.IssueSession(user.ID.Hex(), user.Email, user.Phone)
	if err != nil {
		return identity.User{}, "", upstream("issue session token", err)
	}
	return user, token, nil
}

// ForgotPassword issues a short-lived reset token scoped to the user id and
// mails the reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.ErrNotFound
		}
		return upstream("find by email", err)
	}

	token, err := s.tokens.IssueReset(user.ID.Hex())
	if err != nil {
		return upstream("issue reset token", err)
	}

	body := fmt.Sprintf(`
		<h3>Welcome to FlipOver.</h3>
		<p>Please use the following link to reset your password.</p>
		<a href="%s/auth/reset-password/%s">Create new password</a>
		<hr />
	`, s.clientURL, token)
	if err := s.mail.Send(ctx, email, "Password forgot link.", body); err != nil {
		return fmt.Errorf("%w: %v", ErrMailSend, err)
	}
	return nil
}

// ResetPassword verifies the reset token and replaces the stored hash.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (identity.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return identity.User{}, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, identity.ErrNotFound
		}
		return identity.User{}, upstream("find by id", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return identity.User{}, upstream("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID.Hex(), hash); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, identity.ErrNotFound
		}
		return identity.User{}, upstream("update password", err)
	}
	return user, nil
}

// GoogleLogin verifies the provider token and issues a session token for the
// existing account.
func (s *Service) GoogleLogin(ctx context.Context, tokenID string) (identity.User, string, error) {
	profile, err := s.verifyGoogle(ctx, tokenID)
	if err != nil {
		return identity.User{}, "", err
	}

	user, err := s.users.FindByEmail(ctx, profile.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, "", &SignupRequiredError{Email: profile.Email}
		}
		return identity.User{}, "", upstream("find by email", err)
	}

	token, err := s.tokens.IssueSession(user.ID.Hex(), user.Email, user.Phone)
	if err != nil {
		return identity.User{}, "", upstream("issue session token", err)
	}
	return user, token, nil
}

// GoogleSignup verifies the provider token and creates the account. The stored
// credential is a bcrypt hash of a random placeholder; such accounts sign in
// via Google until a password reset sets a real one.
func (s *Service) GoogleSignup(ctx context.Context, tokenID string) (identity.User, string, error) {
	profile, err := s.verifyGoogle(ctx, tokenID)
	if err != nil {
		return identity.User{}, "", err
	}

	if _, err := s.users.FindByEmail(ctx, profile.Email); err == nil {
		return identity.User{}, "", &AlreadyRegisteredError{Email: profile.Email}
	} else if !errors.Is(err, identity.ErrNotFound) {
		return identity.User{}, "", upstream("find by email", err)
	}

	hash, err := HashPassword(uuid.NewString())
	if err != nil {
		return identity.User{}, "", upstream("hash placeholder credential", err)
	}

	user, err := s.users.Insert(ctx, identity.User{
		Email:        profile.Email,
		Name:         profile.Name,
		PasswordHash: hash,
		Verified:     true,
	})
	if err != nil {
		if errors.Is(err, identity.ErrConflict) {
			return identity.User{}, "", &AlreadyRegisteredError{Email: profile.Email}
		}
		return identity.User{}, "", upstream("insert user", err)
	}

	token, err := s.tokens.IssueSession(user.ID.Hex(), user.Email, user.Phone)
	if err != nil {
		return identity.User{}, "", upstream("issue session token", err)
	}

	s.logger.Info("google signup completed", "user_id", user.ID.Hex(), "email", user.Email)
	return user, token, nil
}

// Profile fetches the identity behind a session token subject.
func (s *Service) Profile(ctx context.Context, id string) (identity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, identity.ErrNotFound
		}
		return identity.User{}, upstream("find by id", err)
	}
	return user, nil
}

func (s *Service) verifyGoogle(ctx context.Context, tokenID string) (oauth.Profile, error) {
	profile, err := s.google.VerifyIDToken(ctx, tokenID)
	if err != nil {
		return oauth.Profile{}, fmt.Errorf("%w: %v", ErrProviderToken, err)
	}
	if !profile.EmailVerified {
		return oauth.Profile{}, ErrEmailNotVerified
	}
	return profile, nil
}
