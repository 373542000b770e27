package log

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Debug      bool   `yaml:"debug"`
}

// Load configures the global zerolog logger. Console output is always
// enabled; when a path is set logs are also written to a rotated file.
func Load(cfg *Config) {
	var writers []io.Writer

	writers = append(writers, zerolog.ConsoleWriter{Out: colorable.NewColorableStdout()})

	if cfg.Path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		})
	}

	mw := zerolog.MultiLevelWriter(writers...)

	log.Logger = log.Output(mw)
	zerolog.SetGlobalLevel(parseLevel(cfg))
}

func parseLevel(cfg *Config) zerolog.Level {
	if cfg.Debug {
		return zerolog.DebugLevel
	}
	if cfg.Level == "" {
		return zerolog.InfoLevel
	}

	l, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		return zerolog.InfoLevel
	}

	return l
}

// Component returns a sub-logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// Discard is a no-op logger for tests and optional collaborators.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
