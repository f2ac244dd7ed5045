package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwilioClient sends SMS through the Twilio Messages API.
type TwilioClient struct {
	baseURL    string
	accountSID string
	authToken  string
	client     *http.Client
}

func NewTwilioClient(baseURL, accountSID, authToken string) *TwilioClient {
	return &TwilioClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createMessageResponse struct {
	SID          string `json:"sid"`
	ErrorMessage string `json:"message"`
}

// Send posts one message and returns the provider's message sid.
func (c *TwilioClient) Send(ctx context.Context, from, to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var cr createMessageResponse
		if json.Unmarshal(respBody, &cr) == nil && cr.ErrorMessage != "" {
			return "", fmt.Errorf("gateway rejected message: %s (status %d)", cr.ErrorMessage, resp.StatusCode)
		}
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(respBody))
	}

	var cr createMessageResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("failed to decode json: %w body=%q", err, string(respBody))
	}
	if cr.SID == "" {
		return "", fmt.Errorf("missing sid in response body=%q", string(respBody))
	}

	return cr.SID, nil
}
