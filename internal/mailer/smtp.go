package mailer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/gomail.v2"
)

const defaultSMTPPort = 587

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPSender struct {
	from   string
	dialer dialer
}

// NewSMTPSender connects with STARTTLS when server supports it
// Authentication is skipped if username is empty
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host must not be empty")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address must not be empty")
	}

	port := defaultSMTPPort
	if cfg.Port != "" {
		p, err := strconv.Atoi(cfg.Port)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("invalid smtp port %q", cfg.Port)
		}
		port = p
	}

	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}

	err := s.dialer.DialAndSend(s.build(msg))
	if err != nil {
		return fmt.Errorf("smtp send error. Err: %w", err)
	}

	return nil
}

func (s *SMTPSender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}
