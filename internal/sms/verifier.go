package sms

import "context"

// Status reflects the state of an OTP challenge as reported by the provider.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusExpired  Status = "expired"
)

// Verifier represents a connector to an external OTP provider. The provider
// owns the challenge lifecycle; callers only observe its reported status.
type Verifier interface {
	StartVerification(ctx context.Context, phone string) error
	CheckVerification(ctx context.Context, phone, code string) (Status, error)
}

// StaticVerifier simulates an OTP provider that always reports a fixed status.
type StaticVerifier struct {
	Status Status
	Err    error
}

// StartVerification pretends to dispatch an OTP.
func (v StaticVerifier) StartVerification(_ context.Context, _ string) error {
	return v.Err
}

// CheckVerification reports the configured status.
func (v StaticVerifier) CheckVerification(_ context.Context, _, _ string) (Status, error) {
	if v.Err != nil {
		return "", v.Err
	}
	return v.Status, nil
}
