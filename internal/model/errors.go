package model

import (
	"errors"
	"sort"
	"strings"
)

// Authorization failures shared by the catalog and booking services.
// They are checked before any payload validation.
var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrInactiveAccount  = errors.New("account is inactive")
	ErrNotStaff         = errors.New("staff only")
)

// Authorize checks that p is an authenticated, active principal and, when
// staff is true, a staff member.
func (p *Principal) Authorize(staff bool) error {
	switch {
	case p == nil:
		return ErrNotAuthenticated
	case !p.IsActive:
		return ErrInactiveAccount
	case staff && !p.IsStaff:
		return ErrNotStaff
	}
	return nil
}

// ValidationError carries field-level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
