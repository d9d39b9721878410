// Loading of converter settings from yaml.
package config

import (
	"os"

	"github.com/illuscio-dev/xmlsource-go/encoding"
	"github.com/illuscio-dev/xmlsource-go/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

/*
Config holds converter settings. A config file looks like:

	default_format: sax
	permissive: false
	charsets: true
	indent: 0
	log_level: info
	sniff: false

Missing keys keep the values of Default().
*/
type Config struct {
	// Preferred format used when a message does not carry one: "", "sax" or "dom".
	DefaultFormat string `yaml:"default_format"`

	// See source.Options.
	Permissive bool `yaml:"permissive"`
	Charsets   bool `yaml:"charsets"`
	Indent     int  `yaml:"indent"`

	// Logrus level name for the converter logger.
	LogLevel string `yaml:"log_level"`

	// Whether the content engine sniffs bodies with no known mimetype.
	Sniff bool `yaml:"sniff"`
}

// Default returns the settings used when no config file is given.
func Default() *Config {
	options := source.DefaultOptions()
	return &Config{
		DefaultFormat: string(source.FormatUnset),
		Permissive:    options.Permissive,
		Charsets:      options.Charsets,
		Indent:        options.Indent,
		LogLevel:      logrus.InfoLevel.String(),
		Sniff:         false,
	}
}

// Parse reads yaml content over the defaults and validates the result.
func Parse(content []byte) (*Config, error) {
	config := Default()
	if err := yaml.UnmarshalStrict(content, config); err != nil {
		return nil, xerrors.Errorf("error parsing config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("error reading config file: %w", err)
	}
	return Parse(content)
}

// Validate checks that every setting holds an accepted value.
func (config *Config) Validate() error {
	switch source.ParseFormat(config.DefaultFormat) {
	case source.FormatUnset, source.FormatSAX, source.FormatDOM:
	default:
		return xerrors.New("unknown default_format '" + config.DefaultFormat + "'")
	}
	if config.Indent < 0 {
		return xerrors.New("indent must not be negative")
	}
	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return xerrors.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// Options returns the source.Options described by config.
func (config *Config) Options() source.Options {
	return source.Options{
		Permissive: config.Permissive,
		Charsets:   config.Charsets,
		Indent:     config.Indent,
	}
}

// Logger returns a logger at the configured level. Validate the config first; an
// invalid level falls back to info.
func (config *Config) Logger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// Converter builds a converter from config that logs to log.
func (config *Config) Converter(log logrus.FieldLogger) *source.Converter {
	return source.NewConverter(config.Options()).WithLogger(log)
}

// Engine builds a content engine whose xml provider uses converter and the configured
// default format.
func (config *Config) Engine(converter *source.Converter) *encoding.SourceEngine {
	provider := encoding.NewSourceProvider(
		converter, source.ParseFormat(config.DefaultFormat),
	)
	return encoding.NewContentEngine(config.Sniff, provider)
}
