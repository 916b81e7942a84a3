package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Sender delivers transactional mail. Delivery is synchronous: callers treat
// a returned error as "not delivered" and roll back dependent state.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendVoteReceipt(ctx context.Context, to, electionTitle, candidateName string, castAt time.Time) error
	SendRegistrationNotice(ctx context.Context, to, electionTitle string) error
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTP creates an SMTP sender.
func NewSMTP(host string, port int, user, pass, from string) *SMTP {
	return &SMTP{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (s *SMTP) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// SendVerificationCode mails an email-activation code.
func (s *SMTP) SendVerificationCode(_ context.Context, to, code string) error {
	return s.send(to, "VoteByte email verification code",
		fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code))
}

// SendVoteReceipt mails a confirmation after a vote commits.
func (s *SMTP) SendVoteReceipt(_ context.Context, to, electionTitle, candidateName string, castAt time.Time) error {
	return s.send(to, "VoteByte vote confirmation",
		fmt.Sprintf("Your vote for %s in %q was recorded at %s.",
			candidateName, electionTitle, castAt.UTC().Format(time.RFC1123)))
}

// SendRegistrationNotice mails a voter-registration confirmation.
func (s *SMTP) SendRegistrationNotice(_ context.Context, to, electionTitle string) error {
	return s.send(to, "VoteByte voter registration",
		fmt.Sprintf("You are registered as a voter for %q. Complete identity verification before voting.", electionTitle))
}

// Log is a dev sender that only logs. Useful when no relay is configured.
type Log struct{}

func (Log) SendVerificationCode(_ context.Context, to, code string) error {
	log.Printf("mail (dev): verification code %s for %s", code, to)
	return nil
}

func (Log) SendVoteReceipt(_ context.Context, to, electionTitle, candidateName string, castAt time.Time) error {
	log.Printf("mail (dev): vote receipt for %s: %s in %q at %s", to, candidateName, electionTitle, castAt)
	return nil
}

func (Log) SendRegistrationNotice(_ context.Context, to, electionTitle string) error {
	log.Printf("mail (dev): registration notice for %s: %q", to, electionTitle)
	return nil
}
