package patch

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Config holds the ambient settings of a run. The file list and output
// naming are fixed and not part of it.
type Config struct {
	LogLevel  string `env:"UPDATE_TIMEOUTS_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"UPDATE_TIMEOUTS_LOG_FORMAT" envDefault:"text"`
}

// NewLogger builds a logger writing to w at the configured level and format
func (c *Config) NewLogger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	switch c.LogFormat {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return logger, nil
}
