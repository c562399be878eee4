package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"labbook/internal/calendar"
)

var ErrNotLoggedIn = errors.New("not logged in, run `labbook login` first")

// Session is what `labbook login` remembers between runs.
type Session struct {
	Server      string `json:"server"`
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (s *Session) Calendar() calendar.Session {
	if s == nil {
		return calendar.Session{}
	}
	return calendar.Session{UserID: s.UserID, DisplayName: s.DisplayName}
}

// DefaultSessionPath is ~/.config/labbook/session.json on Linux.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "labbook", "session.json")
}

func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("read session %s: %w", path, err)
	}
	if s.Token == "" {
		return nil, ErrNotLoggedIn
	}
	return &s, nil
}

func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func RemoveSession(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
