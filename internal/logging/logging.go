// Package logging builds the process logger.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a text logger writing to w at the named level ("debug",
// "info", "warn", "error"). An unknown level falls back to info and is
// reported once through the new logger.
//
// The MCP server speaks JSON-RPC on stdout, so w is normally os.Stderr.
func New(level string, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("requested", level).Warn("Unknown log level, using info")
		return log
	}
	log.SetLevel(lvl)
	return log
}
