package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Mailer delivers OTP codes through a Resend-compatible HTTP API. With no
// API key it runs in dev mode and logs the code instead of sending it.
type Mailer struct {
	APIURL     string
	APIKey     string
	From       string
	HTTPClient *http.Client
}

func NewMailer(apiURL, apiKey, from string) *Mailer {
	return &Mailer{
		APIURL: apiURL,
		APIKey: apiKey,
		From:   from,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (m *Mailer) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if m.APIKey == "" {
		log.Info().Str("email", email).Str("code", code).Msg("📧 [DEV] OTP not sent, mail API key missing")
		return nil
	}

	payload := map[string]interface{}{
		"from":    m.From,
		"to":      []string{email},
		"subject": "Your BattleManager login code",
		"html": fmt.Sprintf(
			"<p>Your one-time login code is <b>%s</b>.</p><p>It expires in %d minutes. If you did not request it, ignore this email.</p>",
			code, int(ttl.Minutes()),
		),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call mail API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
