package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jklear/seance/internal/state"
)

type Config struct {
	Homeserver string `yaml:"homeserver"`
	LogLevel   string `yaml:"log_level"`
}

func Dir() string {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		cfgDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(cfgDir, "seance")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Homeserver == "" {
		return nil, fmt.Errorf("config %s: homeserver is required", path)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}

// Session holds the restored login credentials.
type Session struct {
	UserID      string `yaml:"user_id"`
	DeviceID    string `yaml:"device_id"`
	AccessToken string `yaml:"access_token"`
}

func SessionPath() string {
	return filepath.Join(Dir(), "session.yaml")
}

// LoadSession returns nil without error when no session is stored.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if s.UserID == "" || s.AccessToken == "" {
		return nil, nil
	}
	return &s, nil
}

func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// ClearSession removes the stored credentials on logout.
func ClearSession(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Settings are the user-tunable view options, persisted across runs.
type Settings struct {
	SortMode          string `yaml:"sort_mode"` // "activity" or "alphabetical"
	UnreadFirst       bool   `yaml:"unread_first"`
	CollapsedSections []int  `yaml:"collapsed_sections"`
}

func SettingsPath() string {
	return filepath.Join(Dir(), "settings.yaml")
}

// LoadSettings returns defaults when no settings file exists.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Settings{SortMode: "activity"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if s.SortMode == "" {
		s.SortMode = "activity"
	}
	return &s, nil
}

func SaveSettings(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// RoomSortMode maps the persisted name onto the room-list sort mode.
func (s *Settings) RoomSortMode() state.SortMode {
	if s.SortMode == "alphabetical" {
		return state.SortAlphabetical
	}
	return state.SortRecentActivity
}

// Collapsed maps the persisted section indices onto sections.
func (s *Settings) Collapsed() []state.Section {
	out := make([]state.Section, 0, len(s.CollapsedSections))
	for _, idx := range s.CollapsedSections {
		out = append(out, state.Section(idx))
	}
	return out
}
