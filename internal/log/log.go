package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	// Library consumers (and tests) may use packages that log before
	// InitLogger runs; keep those silent.
	Logger = logrus.New()
	Logger.SetOutput(io.Discard)
}

func InitLogger(verbose bool) {
	Logger = logrus.New()
	Logger.SetOutput(os.Stderr)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}
}
