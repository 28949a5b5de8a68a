// Package logging configures the process-wide structured logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Log is the shared logger. Commands and the coordinator configure it
// once at startup via Setup.
var Log = logrus.New()

// Setup applies the formatter and level. Debug enables per-frame and
// per-merge tracing.
func Setup(debug bool) {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if debug {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}
