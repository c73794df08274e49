package store

import (
	"github.com/btcsuite/btclog"
)

// log is a logger that is initialized with no output filters.  This means the
// package will not perform any logging by default until the caller requests it.
var log btclog.Logger

// The default amount of logging is none.
func init() {
	DisableLog()
}

// DisableLog disables all library log output.
func DisableLog() {
	log = btclog.Disabled
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// badgerLogger routes badger's own messages to the package logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Tracef(format, args...)
}
