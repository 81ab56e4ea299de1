// Package testutil provides shared test helpers.
package testutil

import (
	"io"

	"github.com/seedvault/seedvault/internal/events"
)

// NewTestLogger creates a silent logger for tests.
func NewTestLogger() *events.Logger {
	return events.NewTestLogger(events.ErrorLevel, "text", io.Discard)
}
