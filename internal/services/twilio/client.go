package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Known Twilio REST error codes the gateway refines into operator-facing
// messages.
const (
	CodeInvalidPhoneNumber   = 21211
	CodeSenderNotSMSCapable  = 21614
	CodeAccountNotAuthorized = 21408
)

// APIError is a rejection returned by the Twilio REST API.
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Twilio error: %d", e.HTTPStatus)
}

// Client is a minimal Twilio Messages API client. One message per call,
// no retries.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	client     *http.Client
}

// NewClient creates a Twilio client. baseURL is the API root
// (https://api.twilio.com/2010-04-01 in production, overridable for tests).
func NewClient(accountSID, authToken, baseURL string, timeout time.Duration) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

type messageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts one message to the Messages endpoint and returns the
// provider-assigned SID. A non-2xx response comes back as *APIError;
// network and decode failures come back as plain errors.
func (c *Client) Send(ctx context.Context, to, from, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create Twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach Twilio API: %w", err)
	}
	defer resp.Body.Close()

	var result messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode Twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug().
			Int("status", resp.StatusCode).
			Int("code", result.Code).
			Msg("Twilio API rejected message")
		return "", &APIError{
			Code:       result.Code,
			Message:    result.Message,
			HTTPStatus: resp.StatusCode,
		}
	}

	log.Debug().
		Str("sid", result.SID).
		Str("status", result.Status).
		Msg("Twilio message accepted")

	return result.SID, nil
}
