// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package digest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

var (
	// ErrNoRecipients is returned when sending without recipients.
	ErrNoRecipients = errors.New("at least one recipient required")
)

// Mailer delivers a digest. Implementations must be thread-safe.
type Mailer interface {
	// Send delivers the digest to the recipients.
	Send(digest *Digest, recipients []string) error
}

// SMTPConfig holds SMTP delivery settings.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string

	// Port is the SMTP server port. Default: 587
	Port int

	// Username authenticates against the server; also the From address.
	Username string

	// Password is the SMTP password or app password.
	Password string
}

// SMTPMailer delivers digests over authenticated SMTP.
type SMTPMailer struct {
	config SMTPConfig
	logger *slog.Logger
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTP-backed mailer.
func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	if config.Host == "" {
		return nil, errors.New("smtp host required")
	}
	if config.Username == "" {
		return nil, errors.New("smtp username required")
	}
	if config.Port == 0 {
		config.Port = 587
	}
	return &SMTPMailer{
		config: config,
		logger: slog.Default().With("component", "smtp-mailer"),
	}, nil
}

// Send delivers the digest as an HTML email.
func (m *SMTPMailer) Send(digest *Digest, recipients []string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	message := buildMessage(m.config.Username, recipients, digest)
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	if err := smtp.SendMail(addr, auth, m.config.Username, recipients, message); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	m.logger.Info("digest sent", "recipients", len(recipients), "episodes", digest.EpisodeCount)
	return nil
}

// buildMessage assembles the RFC 5322 message bytes.
func buildMessage(from string, recipients []string, digest *Digest) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", digest.Subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(digest.HTML)
	return []byte(sb.String())
}
