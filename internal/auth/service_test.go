package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/flipover/flipover_auth/internal/identity"
	"github.com/flipover/flipover_auth/internal/logging"
	"github.com/flipover/flipover_auth/internal/oauth"
	"github.com/flipover/flipover_auth/internal/sms"
)

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

type recordingSender struct {
	mails []recordedMail
	err   error
}

func (s *recordingSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if s.err != nil {
		return s.err
	}
	s.mails = append(s.mails, recordedMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

type testEnv struct {
	svc     *Service
	users   identity.Repository
	pending PendingStore
	tokens  *TokenManager
	mail    *recordingSender
}

func newTestEnv(t *testing.T, otp sms.Verifier, google oauth.Verifier) *testEnv {
	t.Helper()
	env := &testEnv{
		users:   identity.NewMemoryRepository(),
		pending: NewMemoryPendingStore(),
		tokens:  NewTokenManager("test-secret", 30*time.Minute, 5*time.Minute),
		mail:    &recordingSender{},
	}
	env.svc = NewService(Deps{
		Users:      env.users,
		Pending:    env.pending,
		Tokens:     env.tokens,
		OTP:        otp,
		Google:     google,
		Mail:       env.mail,
		Logger:     logging.Discard(),
		ClientURL:  "http://localhost:3000",
		PendingTTL: 5 * time.Minute,
	})
	return env
}

// extractLink pulls the token out of the last recorded mail body, given the
// link path prefix it follows.
func extractLink(t *testing.T, env *testEnv, marker string) string {
	t.Helper()
	if len(env.mail.mails) == 0 {
		t.Fatal("expected a mail to have been sent")
	}
	body := env.mail.mails[len(env.mail.mails)-1].Body
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatalf("mail body missing %q: %s", marker, body)
	}
	rest := body[i+len(marker):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		t.Fatalf("unterminated link in mail body: %s", body)
	}
	return rest[:j]
}

func TestPhoneSignupAndVerify(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{Status: sms.StatusApproved}, oauth.StaticVerifier{})
	ctx := context.Background()

	if err := env.svc.PhoneSignup(ctx, "+2348066115071"); err != nil {
		t.Fatalf("phone signup: %v", err)
	}

	user, token, err := env.svc.PhoneVerify(ctx, "+2348066115071", "123456", "7205")
	if err != nil {
		t.Fatalf("phone verify: %v", err)
	}
	if user.Phone != "+2348066115071" {
		t.Fatalf("unexpected phone: %s", user.Phone)
	}
	if !user.Verified {
		t.Fatal("expected user to be verified")
	}
	if user.PasswordHash == "123456" {
		t.Fatal("password must not be stored in plaintext")
	}
	if !CheckPassword(user.PasswordHash, "123456") {
		t.Fatal("stored hash must verify the signup password")
	}

	claims, err := env.tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify session token: %v", err)
	}
	if claims.Subject != user.ID.Hex() {
		t.Fatalf("expected subject %s, got %s", user.ID.Hex(), claims.Subject)
	}

	// A second approved verification must not double-create.
	if _, _, err := env.svc.PhoneVerify(ctx, "+2348066115071", "123456", "7205"); !errors.Is(err, identity.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := env.svc.PhoneSignup(ctx, "+2348066115071"); !errors.Is(err, identity.ErrConflict) {
		t.Fatalf("expected ErrConflict on re-signup, got %v", err)
	}
}

func TestPhoneVerifyExpired(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{Status: sms.StatusExpired}, oauth.StaticVerifier{})
	ctx := context.Background()

	if _, _, err := env.svc.PhoneVerify(ctx, "+2348066115071", "123456", "7205"); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	if _, err := env.users.FindByPhone(ctx, "+2348066115071"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatal("no identity may be persisted on an expired OTP")
	}
}

func TestPhoneVerifyNotApproved(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{Status: sms.StatusPending}, oauth.StaticVerifier{})

	if _, _, err := env.svc.PhoneVerify(context.Background(), "+2348066115071", "123456", "7205"); !errors.Is(err, ErrOTPNotApproved) {
		t.Fatalf("expected ErrOTPNotApproved, got %v", err)
	}
}

func TestEmailSignupAndVerify(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})
	ctx := context.Background()

	if err := env.svc.EmailSignup(ctx, "jane@example.com", "hunter2"); err != nil {
		t.Fatalf("email signup: %v", err)
	}
	// No identity exists until the activation link is followed.
	if _, err := env.users.FindByEmail(ctx, "jane@example.com"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatal("identity must not exist before verification")
	}

	token := extractLink(t, env, "/auth/activate/")

	user, err := env.svc.EmailVerify(ctx, token)
	if err != nil {
		t.Fatalf("email verify: %v", err)
	}
	if user.Email != "jane@example.com" || !user.Verified {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !CheckPassword(user.PasswordHash, "hunter2") {
		t.Fatal("stored hash must verify the signup password")
	}

	// The activation token is single-use.
	if _, err := env.svc.EmailVerify(ctx, token); !errors.Is(err, ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound on reuse, got %v", err)
	}

	if _, _, err := env.svc.Login(ctx, "jane@example.com", "hunter2"); err != nil {
		t.Fatalf("login after activation: %v", err)
	}
}

func TestEmailSignupAlreadyRegistered(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})
	ctx := context.Background()

	hash, _ := HashPassword("hunter2")
	if _, err := env.users.Insert(ctx, identity.User{Email: "jane@example.com", PasswordHash: hash, Verified: true}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := env.svc.EmailSignup(ctx, "jane@example.com", "hunter2"); !errors.Is(err, identity.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(env.mail.mails) != 0 {
		t.Fatal("no mail may be sent for an already-registered email")
	}
}

func TestEmailVerifyAlreadyRegistered(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})
	ctx := context.Background()

	originalHash, _ := HashPassword("hunter2")
	if _, err := env.users.Insert(ctx, identity.User{Email: "jane@example.com", PasswordHash: originalHash, Verified: true}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	otherHash, _ := HashPassword("other-password")
	if err := env.pending.Put(ctx, "stale-token", PendingSignup{Email: "jane@example.com", PasswordHash: otherHash}, time.Minute); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	var alreadyVerified *AlreadyVerifiedError
	if _, err := env.svc.EmailVerify(ctx, "stale-token"); !errors.As(err, &alreadyVerified) {
		t.Fatalf("expected AlreadyVerifiedError, got %v", err)
	} else if alreadyVerified.Email != "jane@example.com" {
		t.Fatalf("unexpected email in error: %s", alreadyVerified.Email)
	}

	// The store is untouched.
	user, err := env.users.FindByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.PasswordHash != originalHash {
		t.Fatal("existing identity must not be mutated")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})

	_, token, err := env.svc.Login(context.Background(), "x@y.com", "whatever1")
	if !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if token != "" {
		t.Fatal("no token may be issued for an unknown email")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})
	ctx := context.Background()

	hash, _ := HashPassword("hunter2")
	if _, err := env.users.Insert(ctx, identity.User{Email: "jane@example.com", PasswordHash: hash, Verified: true}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, _, err := env.svc.Login(ctx, "jane@example.com", "hunter3"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})
	ctx := context.Background()

	hash, _ := HashPassword("old-password")
	seeded, err := env.users.Insert(ctx, identity.User{Email: "jane@example.com", PasswordHash: hash, Verified: true})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := env.svc.ForgotPassword(ctx, "jane@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	token := extractLink(t, env, "/auth/reset-password/")

	user, err := env.svc.ResetPassword(ctx, token, "new-password")
	if err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if user.ID != seeded.ID {
		t.Fatalf("expected user %s, got %s", seeded.ID.Hex(), user.ID.Hex())
	}

	if _, _, err := env.svc.Login(ctx, "jane@example.com", "new-password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := env.svc.Login(ctx, "jane@example.com", "old-password"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("old password must no longer verify, got %v", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})

	if err := env.svc.ForgotPassword(context.Background(), "x@y.com"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetPasswordBadTokens(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})
	ctx := context.Background()

	if _, err := env.svc.ResetPassword(ctx, "garbage", "new-password"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}

	expired := NewTokenManager("test-secret", -time.Minute, -time.Minute)
	token, err := expired.IssueReset("656a0f1b2c3d4e5f60718293")
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	if _, err := env.svc.ResetPassword(ctx, token, "new-password"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestMailFailureSurfacesAsSendError(t *testing.T) {
	env := newTestEnv(t, sms.StaticVerifier{}, oauth.StaticVerifier{})
	env.mail.err = fmt.Errorf("smtp unreachable")
	ctx := context.Background()

	if err := env.svc.EmailSignup(ctx, "jane@example.com", "hunter2"); !errors.Is(err, ErrMailSend) {
		t.Fatalf("expected ErrMailSend, got %v", err)
	}

	hash, _ := HashPassword("hunter2")
	if _, err := env.users.Insert(ctx, identity.User{Email: "joe@example.com", PasswordHash: hash, Verified: true}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := env.svc.ForgotPassword(ctx, "joe@example.com"); !errors.Is(err, ErrMailSend) {
		t.Fatalf("expected ErrMailSend, got %v", err)
	}
}

func TestGoogleSignupAndLogin(t *testing.T) {
	google := oauth.StaticVerifier{Profile: oauth.Profile{
		Email:         "jane@example.com",
		EmailVerified: true,
		Name:          "Jane Doe",
	}}
	env := newTestEnv(t, sms.StaticVerifier{}, google)
	ctx := context.Background()

	user, token, err := env.svc.GoogleSignup(ctx, "provider-token")
	if err != nil {
		t.Fatalf("google signup: %v", err)
	}
	if user.Email != "jane@example.com" || user.Name != "Jane Doe" || !user.Verified {
		t.Fatalf("unexpected user: %+v", user)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}

	// The placeholder credential is not a usable password.
	if _, _, err := env.svc.Login(ctx, "jane@example.com", "provider-token"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("placeholder credential must not verify, got %v", err)
	}

	if _, _, err := env.svc.GoogleLogin(ctx, "provider-token"); err != nil {
		t.Fatalf("google login: %v", err)
	}

	var alreadyRegistered *AlreadyRegisteredError
	if _, _, err := env.svc.GoogleSignup(ctx, "provider-token"); !errors.As(err, &alreadyRegistered) {
		t.Fatalf("expected AlreadyRegisteredError, got %v", err)
	}
}

func TestGoogleLoginRequiresSignup(t *testing.T) {
	google := oauth.StaticVerifier{Profile: oauth.Profile{Email: "jane@example.com", EmailVerified: true}}
	env := newTestEnv(t, sms.StaticVerifier{}, google)

	var signupRequired *SignupRequiredError
	if _, _, err := env.svc.GoogleLogin(context.Background(), "provider-token"); !errors.As(err, &signupRequired) {
		t.Fatalf("expected SignupRequiredError, got %v", err)
	}
}

func TestGoogleUnverifiedEmail(t *testing.T) {
	google := oauth.StaticVerifier{Profile: oauth.Profile{Email: "jane@example.com", EmailVerified: false}}
	env := newTestEnv(t, sms.StaticVerifier{}, google)
	ctx := context.Background()

	if _, _, err := env.svc.GoogleLogin(ctx, "provider-token"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified on login, got %v", err)
	}
	if _, _, err := env.svc.GoogleSignup(ctx, "provider-token"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified on signup, got %v", err)
	}
}
