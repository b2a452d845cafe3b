// Package repository defines the MySQL data access layer and the error
// values shared by every repository. These sentinel values allow higher
// layers such as services and handlers to distinguish between failure
// scenarios without inspecting driver errors. For example, ErrForbidden
// indicates that the current user is not allowed to act on a resource
// owned by someone else, while ErrConflict signals a write that collides
// with existing state (e.g. a duplicate plan id).
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because
// of conflicting state. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create for a taken email.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
