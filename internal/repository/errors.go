// Package repository holds the MySQL access code for users and refresh
// tokens.  Sentinel errors let handlers map storage outcomes to HTTP
// statuses without inspecting driver errors.
package repository

import "errors"

// ErrConflict is returned for uniqueness violations that are not tied to a
// specific column.  Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrNameExists) || errors.Is(err, ErrPhoneExists)
}
