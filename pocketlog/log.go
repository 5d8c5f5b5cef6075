// Package pocketlog builds the logrus logger from configuration.
package pocketlog

import (
	"io"
	"os"
	"strings"

	"github.com/SyNdicateFoundation/pockethost/pocketconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to console and, when enabled, a rotated log file.
// The returned Closer releases the file.
func New(cfg pocketconfig.LogConfig, console io.Writer) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid log level")
	}

	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}

	if cfg.File.Enabled {
		w, err := fileWriter(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, w)
		closer = w
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetOutput(io.MultiWriter(writers...))

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, errors.Errorf("unsupported log format: %s", cfg.Format)
	}

	return log, closer, nil
}

func fileWriter(fc pocketconfig.FileConfig) (*lumberjack.Logger, error) {
	if fc.Path == "" {
		return nil, errors.New("file output requires a path")
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    fc.MaxSizeMB,
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays,
		Compress:   fc.Compress,
	}, nil
}
