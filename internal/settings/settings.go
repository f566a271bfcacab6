// Package settings keeps the process-wide preferences (currency, theme and
// notification flags) in a JSON file. They are loaded once at start-up and
// written back on every change.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"finboard/internal/core"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var (
	ErrUnknownCurrency = errors.New("currency must be one of BRL, USD, EUR")
	ErrUnknownTheme    = errors.New("theme must be one of light, dark, system")
)

type Notifications struct {
	WeeklyReport    bool `json:"weekly_report"`
	GoalReminders   bool `json:"goal_reminders"`
	UnusualSpending bool `json:"unusual_spending"`
	DailyTips       bool `json:"daily_tips"`
}

type Settings struct {
	Currency      core.Currency `json:"currency"`
	Theme         Theme         `json:"theme"`
	Notifications Notifications `json:"notifications"`
}

func Defaults() Settings {
	return Settings{
		Currency: core.BRL,
		Theme:    ThemeSystem,
		Notifications: Notifications{
			WeeklyReport:    true,
			GoalReminders:   true,
			UnusualSpending: true,
		},
	}
}

func (s Settings) Validate() error {
	if !s.Currency.Valid() {
		return &core.ValidationError{Field: "currency", Err: ErrUnknownCurrency}
	}
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return &core.ValidationError{Field: "theme", Err: ErrUnknownTheme}
	}
	return nil
}

// Store guards the current settings and their backing file. An empty path
// keeps settings in memory only.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

// Load reads path, falling back to Defaults when the file does not exist yet.
func Load(path string) (*Store, error) {
	loaded, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, current: loaded}, nil
}

// Reload re-reads the backing file, picking up changes saved by another
// process. On error the current settings stay in effect.
func (s *Store) Reload() error {
	loaded, err := readFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

func readFile(path string) (Settings, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := loaded.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return loaded, nil
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates next, persists it and makes it current. On a write error
// the previous settings stay in effect.
func (s *Store) Save(next Settings) (Settings, error) {
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := writeFile(s.path, next); err != nil {
			return Settings{}, err
		}
	}
	s.current = next
	return next, nil
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, v Settings) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
