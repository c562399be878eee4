package auth

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// ConsoleMailer writes login codes to the log instead of sending them.
type ConsoleMailer struct {
	log *zap.Logger
}

func NewConsoleMailer(log *zap.Logger) *ConsoleMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsoleMailer{log: log}
}

func (m *ConsoleMailer) SendLoginCode(_ context.Context, email, code string) error {
	m.log.Info("[DEV-EMAIL] login code", zap.String("email", email), zap.String("code", code))
	return nil
}

type SMTPConfig struct {
	Addr     string
	From     string
	User     string
	Password string
}

type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) SendLoginCode(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		host := m.cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, host)
	}

	if err := m.send(m.cfg.Addr, auth, m.cfg.From, []string{email}, loginCodeMessage(m.cfg.From, email, code)); err != nil {
		return fmt.Errorf("send login code: %w", err)
	}
	return nil
}

func loginCodeMessage(from, to, code string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your lab calendar login code\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Your login code is " + code + ".\r\n")
	b.WriteString("It expires in a few minutes. If you did not ask for it, ignore this email.\r\n")
	return []byte(b.String())
}
