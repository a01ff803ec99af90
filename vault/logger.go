package vault

import (
	"log/slog"

	"github.com/dmitrijs2005/mailvault/internal/logging"
)

// Logger is the structured logger the vault reports through. A nil Logger
// passed to New discards everything.
type Logger = logging.Logger

// NewSlogLogger adapts l for use with New.
func NewSlogLogger(l *slog.Logger) Logger {
	return logging.NewSlogLogger(l)
}
