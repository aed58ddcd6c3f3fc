// Package logutil provides logging utilities.
//
// Logging output is disabled by default, and all loggers returned from
// GetLogger discard their output. Pass a file name to SetOutputFile to have
// every logger write there instead; the pipeline and the macro driver log
// their progress through this package.
package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
)

var out io.Writer = io.Discard

var loggers []*log.Logger

// GetLogger gets a logger with a prefix.
func GetLogger(prefix string) *log.Logger {
	logger := log.New(out, prefix, log.LstdFlags)
	loggers = append(loggers, logger)
	return logger
}

// SetOutput redirects the output of all loggers, new and existing, to the
// given writer.
func SetOutput(newOut io.Writer) {
	out = newOut
	for _, logger := range loggers {
		logger.SetOutput(out)
	}
}

// SetOutputFile redirects the output of all loggers, new and existing, to the
// named file. If the name is empty, it disables logging output instead.
func SetOutputFile(fname string) error {
	if fname == "" {
		SetOutput(io.Discard)
		return nil
	}
	file, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %v: %v", fname, err)
	}
	SetOutput(file)
	return nil
}
