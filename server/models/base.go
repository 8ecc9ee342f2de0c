package models

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MAX_TRUSTED_CONTACTS is the per-user cap on trusted contacts.
const MAX_TRUSTED_CONTACTS = 5

var (
	ErrNotFound       = errors.New("document not found")
	ErrInvalidID      = errors.New("invalid id format")
	ErrContactLimit   = errors.New("maximum trusted contacts reached")
	ErrDuplicatePhone = errors.New("phone number already in use by another contact")
	ErrNoFields       = errors.New("no fields to update")
)

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func objectIDFromHex(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(ErrInvalidID, id)
	}

	return objectID, nil
}

// utcNow truncates to milliseconds, the precision bson dates survive a
// store round trip with.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
