package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var codeRegex = regexp.MustCompile(`^\d{6}$`)

const (
	defaultCodeTTL        = 10 * time.Minute
	defaultResendCooldown = 60 * time.Second
	defaultMaxAttempts    = 5
)

type Options struct {
	Pepper         string
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	HashCost       int
}

func (o Options) withDefaults() Options {
	if o.CodeTTL <= 0 {
		o.CodeTTL = defaultCodeTTL
	}
	if o.ResendCooldown < 0 {
		o.ResendCooldown = 0
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.HashCost == 0 {
		o.HashCost = bcrypt.DefaultCost
	}
	return o
}

type Service struct {
	users  UserRepository
	codes  CodeStore
	mailer Mailer
	tokens tokenIssuer
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

func NewService(users UserRepository, codes CodeStore, mailer Mailer, tokens tokenIssuer, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:  users,
		codes:  codes,
		mailer: mailer,
		tokens: tokens,
		opts:   opts.withDefaults(),
		log:    log,
		now:    time.Now,
	}
}

type LoginResult struct {
	User        *User
	AccessToken string
	ExpiresIn   int64
	DisplayName string
}

// RequestCode mails a fresh one-time code to an invited address.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email, err := parseEmail(email)
	if err != nil {
		return err
	}

	if _, err := s.users.GetAllowed(ctx, email); err != nil {
		return err
	}

	now := s.now()
	current, err := s.codes.Get(ctx, email)
	switch {
	case err == nil:
		if current.LastSentAt.Add(s.opts.ResendCooldown).After(now) {
			return ErrRateLimitExceeded
		}
	case !errors.Is(err, ErrCodeNotFound):
		return err
	}

	code, err := generateLoginCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code+s.opts.Pepper), s.opts.HashCost)
	if err != nil {
		return fmt.Errorf("hash login code: %w", err)
	}

	if err := s.codes.Save(ctx, &LoginCode{
		Email:      email,
		CodeHash:   string(hash),
		LastSentAt: now,
		ExpiresAt:  now.Add(s.opts.CodeTTL),
	}); err != nil {
		return err
	}

	if err := s.mailer.SendLoginCode(ctx, email, code); err != nil {
		return err
	}
	s.log.Info("login code sent", zap.String("email", email))
	return nil
}

// VerifyCode exchanges a valid code for an access token, creating the user on first login.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (*LoginResult, error) {
	if !codeRegex.MatchString(code) {
		return nil, ErrInvalidCodeFormat
	}
	email, err := parseEmail(email)
	if err != nil {
		return nil, err
	}

	allowed, err := s.users.GetAllowed(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotInvited) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	now := s.now()
	row, err := s.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	if row.UsedAt != nil || !row.ExpiresAt.After(now) {
		return nil, ErrInvalidCode
	}
	if row.Attempts >= s.opts.MaxAttempts {
		return nil, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(row.CodeHash), []byte(code+s.opts.Pepper)) != nil {
		attempts, err := s.codes.IncrementAttempts(ctx, email)
		if err != nil {
			return nil, err
		}
		if attempts >= s.opts.MaxAttempts {
			s.log.Warn("login code locked", zap.String("email", email), zap.Int("attempts", attempts))
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	if err := s.codes.MarkUsed(ctx, email, now); err != nil {
		return nil, err
	}

	user, err := s.users.CompleteLogin(ctx, email, now)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{
		User:        user,
		AccessToken: token,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		DisplayName: displayName(allowed, user.Email),
	}, nil
}

func (s *Service) Identity(ctx context.Context, userID string) (*Identity, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.users.GetAllowed(ctx, user.Email)
	if err != nil && !errors.Is(err, ErrNotInvited) {
		return nil, err
	}

	return &Identity{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: displayName(allowed, user.Email),
	}, nil
}

// DisplayName is used to label bookings created without a note.
func (s *Service) DisplayName(ctx context.Context, userID string) (string, error) {
	id, err := s.Identity(ctx, userID)
	if err != nil {
		return "", err
	}
	return id.DisplayName, nil
}

func displayName(allowed *AllowedEmail, email string) string {
	if allowed != nil && allowed.Note != "" {
		return allowed.Note
	}
	return email
}

func parseEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func generateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
