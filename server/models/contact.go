package models

import (
	"context"
	"time"

	"github.com/moizuddin404/wsa-backend/database"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrustedContact is an emergency contact a user designates to receive safety
// alerts. Phone numbers are opaque strings; no format validation beyond length
// happens anywhere in the system.
type TrustedContact struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID       string             `json:"user_id" bson:"user_id" validate:"required"`
	Name         string             `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Phone        string             `json:"phone" bson:"phone" validate:"required,min=10,max=20"`
	Relationship string             `json:"relationship" bson:"relationship" validate:"required,min=1,max=50"`
	IsVerified   bool               `json:"is_verified" bson:"is_verified"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// ContactRepo owns all read/write access to the trusted_contacts collection
// and enforces the contact business rules: at most MAX_TRUSTED_CONTACTS per
// user, and no two contacts of a user sharing a phone number.
type ContactRepo struct {
	contacts database.Collection
}

func NewContactRepo(contacts database.Collection) *ContactRepo {
	return &ContactRepo{contacts: contacts}
}

// ListByUser returns the user's contacts in insertion order. No pagination;
// the result is bounded by the contact cap.
func (repo *ContactRepo) ListByUser(ctx context.Context, userID string) ([]TrustedContact, error) {
	contacts := []TrustedContact{}
	err := repo.contacts.Find(ctx, bson.M{"user_id": userID}, nil, &contacts)
	if err != nil {
		return nil, errors.Wrap(err, "ContactRepo.ListByUser")
	}

	return contacts, nil
}

func (repo *ContactRepo) Find(ctx context.Context, id string) (*TrustedContact, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	contact := TrustedContact{}
	err = repo.contacts.FindOne(ctx, bson.M{"_id": objectID}, &contact)
	if errors.Is(err, database.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "ContactRepo.Find")
	}

	return &contact, nil
}

// Create checks the contact cap and the per-user phone uniqueness before
// inserting. The two checks and the insert are not one atomic step; the
// unique index on (user_id, phone) backstops the phone check, the cap check
// is backstopped by the scheduled audit only.
func (repo *ContactRepo) Create(ctx context.Context, userID, name, phone, relationship string) (*TrustedContact, error) {
	count, err := repo.contacts.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.Wrap(err, "ContactRepo.Create")
	}
	if count >= MAX_TRUSTED_CONTACTS {
		return nil, ErrContactLimit
	}

	existing := TrustedContact{}
	err = repo.contacts.FindOne(ctx, bson.M{"user_id": userID, "phone": phone}, &existing)
	if err == nil {
		return nil, ErrDuplicatePhone
	}
	if !errors.Is(err, database.ErrNoDocuments) {
		return nil, errors.Wrap(err, "ContactRepo.Create")
	}

	now := utcNow()
	contact := TrustedContact{
		UserID:       userID,
		Name:         name,
		Phone:        phone,
		Relationship: relationship,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := repo.contacts.InsertOne(ctx, &contact)
	if errors.Is(err, database.ErrDuplicateKey) {
		return nil, ErrDuplicatePhone
	}
	if err != nil {
		return nil, errors.Wrap(err, "ContactRepo.Create")
	}

	contact.ID = id
	return &contact, nil
}

// Update applies only the supplied fields and always refreshes updated_at.
// A phone change re-runs the duplicate check against the owner's other
// contacts; updating relationship or name alone does not.
func (repo *ContactRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (*TrustedContact, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	existing, err := repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	if phone, ok := fields["phone"].(string); ok && phone != existing.Phone {
		duplicate := TrustedContact{}
		err = repo.contacts.FindOne(ctx, bson.M{
			"user_id": existing.UserID,
			"phone":   phone,
			"_id":     bson.M{"$ne": objectID},
		}, &duplicate)
		if err == nil {
			return nil, ErrDuplicatePhone
		}
		if !errors.Is(err, database.ErrNoDocuments) {
			return nil, errors.Wrap(err, "ContactRepo.Update")
		}
	}

	update := bson.M{}
	for field, value := range fields {
		update[field] = value
	}
	update["updated_at"] = utcNow()

	_, err = repo.contacts.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": update})
	if err != nil {
		return nil, errors.Wrap(err, "ContactRepo.Update")
	}

	return repo.Find(ctx, id)
}

// Delete removes the contact only. Past notification records keep their
// snapshot of the contact; nothing cascades.
func (repo *ContactRepo) Delete(ctx context.Context, id string) error {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	deleted, err := repo.contacts.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return errors.Wrap(err, "ContactRepo.Delete")
	}
	if deleted == 0 {
		return ErrNotFound
	}

	return nil
}

// Verify flips the trust marker on the contact. It is an application-level
// flag only; no confirmation message is sent to the contact.
func (repo *ContactRepo) Verify(ctx context.Context, id string) error {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := repo.contacts.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"is_verified": true, "updated_at": utcNow()}},
	)
	if err != nil {
		return errors.Wrap(err, "ContactRepo.Verify")
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}
