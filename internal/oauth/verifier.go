package oauth

import "context"

// Profile holds the identity claims extracted from a provider-issued token.
type Profile struct {
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier validates a provider-issued identity token and returns the profile
// it attests to.
type Verifier interface {
	VerifyIDToken(ctx context.Context, tokenID string) (Profile, error)
}

// StaticVerifier simulates an OAuth provider for tests.
type StaticVerifier struct {
	Profile Profile
	Err     error
}

// VerifyIDToken returns the configured profile or error.
func (v StaticVerifier) VerifyIDToken(_ context.Context, _ string) (Profile, error) {
	if v.Err != nil {
		return Profile{}, v.Err
	}
	return v.Profile, nil
}
