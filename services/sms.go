package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/wowcafe/cafe-app/utils"
)

const smsGatewayURL = "https://www.fast2sms.com/dev/bulkV2"

// SMSSender delivers OTP messages through the carrier's REST API.
type SMSSender struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewSMSSender() *SMSSender {
	return &SMSSender{
		APIKey:  os.Getenv("SMS_API_KEY"),
		BaseURL: smsGatewayURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type smsResponse struct {
	Return  bool   `json:"return"`
	Message string `json:"message"`
}

// SendOTP posts the OTP to the carrier. A carrier rejection surfaces as an
// invalid-phone error (411).
func (s *SMSSender) SendOTP(otp, number string) error {
	payload, err := json.Marshal(map[string]string{
		"route":            "otp",
		"variables_values": otp,
		"numbers":          number,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if !body.Return {
		return utils.NewInvalidPhoneError(body.Message)
	}
	return nil
}
