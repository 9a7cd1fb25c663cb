// Package access holds the ownership guard applied before every mutating
// operation on owned entities.
package access

import "errors"

// ErrDenied indicates the requester does not own the entity it is mutating.
var ErrDenied = errors.New("requester is not the owner")

// RequireOwner permits a mutation only when the requester is the entity owner.
// It never touches the store; callers translate ErrDenied into a client error.
func RequireOwner(requesterID, ownerID string) error {
	if requesterID == "" || requesterID != ownerID {
		return ErrDenied
	}
	return nil
}
