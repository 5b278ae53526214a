// Package mail is a thin HTTP client for the mail relay. The core only
// sends the password-reset notification and never blocks a request on the
// relay's outcome.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send failed with status: %d", resp.StatusCode)
	}
	return nil
}

// ResetEmail builds the password-reset notification pointing at the
// frontend reset page.
func ResetEmail(from, to, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/reset?resetToken=%s", frontendURL, token)
	return Message{
		From:    from,
		To:      to,
		Subject: "Your password reset token",
		HTML: fmt.Sprintf(
			`<div style="font-family: sans-serif; line-height: 2; font-size: 16px;">
<p>Your password reset token is here.</p>
<p><a href="%s">Click here to reset your password</a></p>
</div>`, link),
	}
}
