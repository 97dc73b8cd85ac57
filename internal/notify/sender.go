// Package notify sends booking emails through the Resend HTTP API.
// When no API key is configured the sender falls back to logging the
// message, which keeps local development working without an account.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// Sender delivers booking notification emails.
type Sender struct {
	apiKey string
	from   string
	client *http.Client
}

// NewSender builds a Sender.  An empty apiKey enables mock mode where
// emails are logged instead of sent.
func NewSender(apiKey, from string) *Sender {
	if from == "" {
		from = "ParkEase <noreply@parkease.app>"
	}
	return &Sender{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendBookingConfirmation emails the user their booking QR code and
// parking window after a successful payment.
func (s *Sender) SendBookingConfirmation(to, lotName, lotAddress, qrCode string, durationHours int, amount int64, startsAt, endsAt string) {
	subject := "Your ParkEase booking is confirmed"
	html := fmt.Sprintf(
		"<h2>Booking confirmed</h2>"+
			"<p>Your slot at <strong>%s</strong> (%s) is booked for %d hour(s).</p>"+
			"<p>Show this code at the gate: <strong>%s</strong></p>"+
			"<p>Valid from %s to %s. Amount paid: %d.</p>",
		lotName, lotAddress, durationHours, qrCode, startsAt, endsAt, amount)
	s.send(to, subject, html)
}

// SendBookingCancellation emails the user that their booking was
// cancelled and whether a refund applies.
func (s *Sender) SendBookingCancellation(to, lotName, reason string, amount int64) {
	subject := "Your ParkEase booking was cancelled"
	html := fmt.Sprintf(
		"<h2>Booking cancelled</h2>"+
			"<p>Your booking at <strong>%s</strong> has been cancelled.</p>"+
			"<p>Reason: %s</p>"+
			"<p>If you already paid, a refund of %d will be processed to your original payment method.</p>",
		lotName, reason, amount)
	s.send(to, subject, html)
}

func (s *Sender) send(to, subject, html string) {
	if to == "" {
		return
	}
	if s.apiKey == "" {
		log.Printf("notify (mock): to=%s subject=%q", to, subject)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		log.Printf("notify: marshal email failed: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		log.Printf("notify: build request failed: %v", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("notify: send email to %s failed: %v", to, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("notify: resend returned %d: %s", resp.StatusCode, body)
		return
	}
	log.Printf("notify: email sent to %s", to)
}
