package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredential indicates a password mismatch for an existing user.
	ErrInvalidCredential = errors.New("invalid password")
	// ErrOTPExpired indicates the provider reported the OTP challenge expired.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPNotApproved indicates the provider did not approve the submitted code.
	ErrOTPNotApproved = errors.New("otp not approved")
	// ErrEmailNotVerified indicates the OAuth provider has not verified the email.
	ErrEmailNotVerified = errors.New("provider email not verified")
	// ErrPendingNotFound indicates an activation token matches no pending signup,
	// either because it never existed or because it expired.
	ErrPendingNotFound = errors.New("pending signup not found or expired")
	// ErrMailSend indicates the outbound mail collaborator failed.
	ErrMailSend = errors.New("send mail failed")
	// ErrProviderToken indicates the OAuth provider rejected the presented token.
	ErrProviderToken = errors.New("invalid provider token")
)

// UpstreamError wraps a provider or store failure. Its detail is logged
// server-side and never surfaced to the caller.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// AlreadyVerifiedError reports an email-verification attempt for an address
// that already completed signup. The operation is an idempotent no-op.
type AlreadyVerifiedError struct {
	Email string
}

func (e *AlreadyVerifiedError) Error() string {
	return fmt.Sprintf("%s has been verified.", e.Email)
}

// SignupRequiredError reports a provider login for an email with no account.
type SignupRequiredError struct {
	Email string
}

func (e *SignupRequiredError) Error() string {
	return fmt.Sprintf("%s does not exists! Pls signup.", e.Email)
}

// AlreadyRegisteredError reports a provider signup for an email that already
// has an account.
type AlreadyRegisteredError struct {
	Email string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("%s already exists! Kindly login.", e.Email)
}
