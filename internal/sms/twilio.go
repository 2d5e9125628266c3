package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

// TwilioVerifier drives the Twilio Verify API over SMS.
type TwilioVerifier struct {
	client     *twilio.RestClient
	serviceSID string
}

// NewTwilioVerifier builds a Verify client from account credentials and the
// Verify service SID.
func NewTwilioVerifier(accountSID, authToken, serviceSID string) *TwilioVerifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioVerifier{client: client, serviceSID: serviceSID}
}

// StartVerification asks Twilio to send an OTP to the phone number.
func (v *TwilioVerifier) StartVerification(_ context.Context, phone string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel("sms")

	if _, err := v.client.VerifyV2.CreateVerification(v.serviceSID, params); err != nil {
		return fmt.Errorf("twilio create verification: %w", err)
	}
	return nil
}

// CheckVerification submits the code and returns the provider-reported status.
func (v *TwilioVerifier) CheckVerification(_ context.Context, phone, code string) (Status, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := v.client.VerifyV2.CreateVerificationCheck(v.serviceSID, params)
	if err != nil {
		return "", fmt.Errorf("twilio check verification: %w", err)
	}
	if resp.Status == nil {
		return StatusPending, nil
	}
	return Status(*resp.Status), nil
}
