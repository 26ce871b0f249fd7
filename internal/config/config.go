// Package config loads and merges codetrack configuration files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all recognized codetrack settings.
type Config struct {
	EnableTracking      bool   `json:"enableTracking"`
	EnableSync          bool   `json:"enableSync"`
	DataRetentionDays   int    `json:"dataRetentionDays"`
	ExportFormat        string `json:"exportFormat"` // "json" | "csv"
	APIURL              string `json:"apiUrl"`
	EnableNotifications bool   `json:"enableNotifications"`

	// APIToken is read from the CODETRACK_API_TOKEN environment variable,
	// never from config files.
	APIToken string `json:"-"`
}

// File mirrors Config with optional fields so merging can tell "unset" apart
// from an explicit false/zero.
type File struct {
	EnableTracking      *bool   `json:"enableTracking"`
	EnableSync          *bool   `json:"enableSync"`
	DataRetentionDays   *int    `json:"dataRetentionDays"`
	ExportFormat        *string `json:"exportFormat"`
	APIURL              *string `json:"apiUrl"`
	EnableNotifications *bool   `json:"enableNotifications"`
}

// Defaults returns the default configuration values.
func Defaults() Config {
	return Config{
		EnableTracking:      true,
		EnableSync:          false,
		DataRetentionDays:   30,
		ExportFormat:        "json",
		EnableNotifications: true,
	}
}

// LoadGlobal reads ~/.config/codetrack/config.json.
// Returns nil (no error) if the file is absent.
func LoadGlobal() (*File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(home, ".config", "codetrack", "config.json"))
}

// LoadProject reads .codetrackrc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*File, error) {
	return LoadFile(".codetrackrc")
}

// Load returns the effective configuration: defaults overlaid with the
// global file, then the project file, then environment variables.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, fmt.Errorf("loading project config: %w", err)
	}
	cfg := Merge(global, project)
	cfg.APIToken = os.Getenv("CODETRACK_API_TOKEN")
	return cfg, nil
}

// LoadFile reads and parses a JSON config file at path.
// Returns nil (no error) if the file is absent.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &f, nil
}

// Merge combines global and project configs over the defaults, with project
// taking precedence. Only keys present in a file override.
func Merge(global, project *File) Config {
	result := Defaults()
	for _, f := range []*File{global, project} {
		if f == nil {
			continue
		}
		if f.EnableTracking != nil {
			result.EnableTracking = *f.EnableTracking
		}
		if f.EnableSync != nil {
			result.EnableSync = *f.EnableSync
		}
		if f.DataRetentionDays != nil && *f.DataRetentionDays > 0 {
			result.DataRetentionDays = *f.DataRetentionDays
		}
		if f.ExportFormat != nil && *f.ExportFormat != "" {
			result.ExportFormat = *f.ExportFormat
		}
		if f.APIURL != nil {
			result.APIURL = *f.APIURL
		}
		if f.EnableNotifications != nil {
			result.EnableNotifications = *f.EnableNotifications
		}
	}
	return result
}

// DataDir returns the codetrack data directory, creating it if needed.
// Path: $XDG_DATA_HOME/codetrack or ~/.local/share/codetrack.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving data directory: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(base, "codetrack")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dir, nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
