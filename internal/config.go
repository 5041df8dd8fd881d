package internal

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Notes  NotesConfig       `yaml:"notes"`
	Parser ParserConfig      `yaml:"parser"`
	Export ExportConfig      `yaml:"export"`
	Watch  WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.Parser.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// NotesConfig tells where the notes are.
type NotesConfig struct {
	Path      string `yaml:"path"`
	Extension string `yaml:"extension"`
}

var extensionRe = regexp.MustCompile(`\A[^./\\\s]+\z`)

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	c.Extension = strings.TrimPrefix(c.Extension, ".")
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extension, validation.Required,
			validation.Match(extensionRe).Error("must be a plain file extension")),
	)
}

// ParserConfig holds the note syntax settings.
type ParserConfig struct {
	// IDPattern is a regular expression matching one note id.
	IDPattern        string `yaml:"id_pattern"`
	BacklinksHeading string `yaml:"backlinks_heading"`
}

// Validate validates the parser configuration.
func (c *ParserConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IDPattern, validation.Required, validation.By(compiles)),
		validation.Field(&c.BacklinksHeading, validation.Required, validation.By(singleLine)),
	)
}

func compiles(value any) error {
	s, _ := value.(string)
	if _, err := regexp.Compile(s); err != nil {
		return errors.New("must be a valid regular expression")
	}
	return nil
}

func singleLine(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "\r\n") || strings.TrimSpace(s) != s {
		return errors.New("must be a single line without surrounding whitespace")
	}
	return nil
}

// ExportConfig holds the SQLite export settings.
type ExportConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.Required),
	)
}

// WatchConfig holds the watch command settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelWarn,
			LogFormat: LogFormatText,
		},
		Notes: NotesConfig{
			Path:      ".",
			Extension: "md",
		},
		Parser: ParserConfig{
			IDPattern:        `\d{14}`,
			BacklinksHeading: "## Links to this note",
		},
		Export: ExportConfig{
			SQLitePath: "noteexplorer.db",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}
