// Package config holds the runtime settings passed explicitly to every
// component. There is no process-wide instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultForbiddenWords is the list a session falls back to when the caller
// supplies none or clears it.
var DefaultForbiddenWords = []string{
	"palavrão1",
	"palavrão2",
	"merda",
	"porra",
	"caralho",
	"abelha",
}

type Config struct {
	// WorkDir holds temp audio, render intermediates and final videos.
	WorkDir string `yaml:"work_dir"`
	// DBPath is the SQLite session database. Defaults to WorkDir/sessions.sqlite.
	DBPath string `yaml:"db_path"`

	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	WhisperBin      string `yaml:"whisper_bin"`
	WhisperModel    string `yaml:"whisper_model"`
	WhisperLanguage string `yaml:"whisper_language"`

	FontPath string `yaml:"font_path"`
	FontName string `yaml:"font_name"`

	ForbiddenWords []string `yaml:"forbidden_words"`

	BeepFrequency float64 `yaml:"beep_frequency"`
	BeepVolume    float64 `yaml:"beep_volume"`
	// DuckingVolume below zero disables ducking.
	DuckingVolume float64 `yaml:"ducking_volume"`

	SessionMaxAge time.Duration `yaml:"session_max_age"`

	RabbitMQURL string `yaml:"rabbitmq_url"`
	EventQueue  string `yaml:"event_queue"`
}

func Default() Config {
	return Config{
		WorkDir:         "uploads",
		FFmpegPath:      "ffmpeg",
		FFprobePath:     "ffprobe",
		WhisperBin:      ".cache/bin/whisper.cpp",
		WhisperModel:    ".cache/models/ggml-base.bin",
		WhisperLanguage: "auto",
		FontName:        "Arial",
		ForbiddenWords:  append([]string(nil), DefaultForbiddenWords...),
		BeepFrequency:   1000,
		BeepVolume:      0.4,
		DuckingVolume:   0.12,
		SessionMaxAge:   24 * time.Hour,
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current value.
func (c Config) LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overlays BEEPSUB_* variables read through getenv.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("BEEPSUB_WORK_DIR", &c.WorkDir)
	str("BEEPSUB_DB_PATH", &c.DBPath)
	str("BEEPSUB_FFMPEG_PATH", &c.FFmpegPath)
	str("BEEPSUB_FFPROBE_PATH", &c.FFprobePath)
	str("BEEPSUB_WHISPER_BIN", &c.WhisperBin)
	str("BEEPSUB_WHISPER_MODEL", &c.WhisperModel)
	str("BEEPSUB_WHISPER_LANGUAGE", &c.WhisperLanguage)
	str("BEEPSUB_FONT_PATH", &c.FontPath)
	str("BEEPSUB_FONT_NAME", &c.FontName)
	str("BEEPSUB_RABBITMQ_URL", &c.RabbitMQURL)
	str("BEEPSUB_EVENT_QUEUE", &c.EventQueue)

	if words := ParseWordList(getenv("BEEPSUB_PROFANITY_WORDS")); len(words) > 0 {
		c.ForbiddenWords = words
	}

	var errs []error
	num := func(key string, dst *float64) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
	num("BEEPSUB_BEEP_FREQUENCY", &c.BeepFrequency)
	num("BEEPSUB_BEEP_VOLUME", &c.BeepVolume)
	num("BEEPSUB_DUCKING_VOLUME", &c.DuckingVolume)

	if v := strings.TrimSpace(getenv("BEEPSUB_SESSION_MAX_AGE")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BEEPSUB_SESSION_MAX_AGE: %w", err))
		} else {
			c.SessionMaxAge = d
		}
	}
	return c, errors.Join(errs...)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.WorkDir) == "" {
		return errors.New("work dir is empty")
	}
	if c.BeepFrequency <= 0 {
		return fmt.Errorf("beep frequency must be > 0, got %v", c.BeepFrequency)
	}
	if c.BeepVolume < 0 || c.BeepVolume > 1 {
		return fmt.Errorf("beep volume must be in [0,1], got %v", c.BeepVolume)
	}
	if c.DuckingVolume > 1 {
		return fmt.Errorf("ducking volume must be <= 1, got %v", c.DuckingVolume)
	}
	if c.SessionMaxAge <= 0 {
		return errors.New("session max age must be > 0")
	}
	if len(ParseWordList(strings.Join(c.ForbiddenWords, ","))) == 0 {
		return errors.New("default forbidden word list is empty")
	}
	return nil
}

// Database returns DBPath or its default inside WorkDir.
func (c Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.WorkDir, "sessions.sqlite")
}

// Ducking returns the ducking gain, or nil when ducking is disabled.
func (c Config) Ducking() *float64 {
	if c.DuckingVolume < 0 {
		return nil
	}
	v := c.DuckingVolume
	return &v
}

// FontsDir is the directory handed to the subtitle renderer, if a font file
// is configured.
func (c Config) FontsDir() string {
	if c.FontPath == "" {
		return ""
	}
	return filepath.Dir(c.FontPath)
}

// ParseWordList splits a comma separated list, dropping blank items.
func ParseWordList(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
