package logging

import (
	"io"
	"log"
	"os"
)

func NewStdLogger(prefix string) *log.Logger {
	return log.New(os.Stdout, prefix, log.LstdFlags|log.LUTC)
}

// NopLogger discards everything; used by tests and optional components.
func NopLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
