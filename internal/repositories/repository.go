package repositories

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/vine/pkg/database"
)

// NotFound returns a 404 HTTP error with a descriptive message
func NotFound(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// Conflict returns a 409 HTTP error (duplicate edge, illegal transition)
func Conflict(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf(format, args...))
}

// Forbidden returns a 403 HTTP error (acting on a record the caller does not own)
func Forbidden(message string) error {
	return httperror.NewHTTPError(http.StatusForbidden, message)
}

// QuotaSpent returns a 429 HTTP error (no free connection requests remain)
func QuotaSpent(message string) error {
	return httperror.NewHTTPError(http.StatusTooManyRequests, message)
}

// Repository provides common database access for the Vine repositories
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new base repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// DB returns the database instance
func (r *Repository) DB() database.DB {
	return r.db
}
