package oauth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates Google ID tokens against a client ID audience.
type GoogleVerifier struct {
	audience string
}

// NewGoogleVerifier builds a verifier for the given OAuth client ID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{audience: clientID}
}

// VerifyIDToken checks the token signature and audience with Google and
// extracts the email claims.
func (g *GoogleVerifier) VerifyIDToken(ctx context.Context, tokenID string) (Profile, error) {
	payload, err := idtoken.Validate(ctx, tokenID, g.audience)
	if err != nil {
		return Profile{}, fmt.Errorf("validate google id token: %w", err)
	}

	profile := Profile{}
	if email, ok := payload.Claims["email"].(string); ok {
		profile.Email = email
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		profile.EmailVerified = verified
	}
	if name, ok := payload.Claims["name"].(string); ok {
		profile.Name = name
	}
	return profile, nil
}
