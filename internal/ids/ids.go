// Package ids generates the opaque identity tokens used across the
// dispatch and pool packages: slot identities, connection tokens, worker
// instance-ids, and executor ids.
package ids

import "github.com/gofrs/uuid"

// ID is an opaque, globally unique, comparable identity token.
type ID string

// New mints a fresh identity token. Collisions are not a practical concern
// (UUIDv4), so callers never need to retry.
func New() ID {
	return ID(uuid.Must(uuid.NewV4()).String())
}

// Zero reports whether id is the zero value (never minted by New).
func (id ID) Zero() bool {
	return id == ""
}
