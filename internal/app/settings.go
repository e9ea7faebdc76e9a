package app

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

// Settings is .mamdani/config.toml. Every key is optional.
type Settings struct {
	LogLevel      string `toml:"log_level" validate:"oneof=debug info warn error"`
	HTTPAddr      string `toml:"http_addr" validate:"required,hostname_port"`
	Workers       int    `toml:"workers" validate:"min=1,max=1024"`
	History       bool   `toml:"history"`
	HistoryLimit  int    `toml:"history_limit" validate:"min=0"` // 0 keeps every run
	DefaultSystem string `toml:"default_system" validate:"required"`
}

// DefaultSettings is what a project without config.toml runs with.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:      "info",
		HTTPAddr:      "127.0.0.1:8088",
		Workers:       runtime.NumCPU(),
		History:       true,
		HistoryLimit:  1000,
		DefaultSystem: "pecas",
	}
}

// LoadSettings decodes path over the defaults. A missing file is not an
// error; unknown keys are.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(s)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: invalid value %v (%s)", tomlKey(fe.Field()), fe.Value(), fe.Tag()))
	}
	return errors.Join(errs...)
}

// Level is the parsed log level.
func (s Settings) Level() zapcore.Level {
	l, err := zapcore.ParseLevel(s.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Encode renders the settings as TOML.
func (s Settings) Encode() ([]byte, error) {
	return toml.Marshal(s)
}

func tomlKey(field string) string {
	switch field {
	case "LogLevel":
		return "log_level"
	case "HTTPAddr":
		return "http_addr"
	case "Workers":
		return "workers"
	case "HistoryLimit":
		return "history_limit"
	case "DefaultSystem":
		return "default_system"
	}
	return field
}
