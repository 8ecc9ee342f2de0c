package models

import (
	"context"
	"time"

	"github.com/moizuddin404/wsa-backend/database"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SENT_STATUS is the only status a notification record ever carries. The
// system records alert intents; no delivery happens and no failure state is
// ever written.
const SENT_STATUS = "sent"

// NotificationRecord is an append-only log entry for one alert-send attempt.
// contact_name/contact_phone are a snapshot taken at send time, not a live
// join: later contact updates or deletes never touch past records.
type NotificationRecord struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ContactID    string             `json:"contact_id" bson:"contact_id"`
	UserID       string             `json:"user_id" bson:"user_id"`
	ContactName  string             `json:"contact_name" bson:"contact_name"`
	ContactPhone string             `json:"contact_phone" bson:"contact_phone"`
	Message      string             `json:"message" bson:"message"`
	Latitude     *float64           `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude    *float64           `json:"longitude,omitempty" bson:"longitude,omitempty"`
	LocationName *string            `json:"location_name,omitempty" bson:"location_name,omitempty"`
	SentAt       time.Time          `json:"sent_at" bson:"sent_at"`
	Status       string             `json:"status" bson:"status"`
}

// Location is the optional position attached to an alert.
type Location struct {
	Latitude  *float64
	Longitude *float64
	Name      *string
}

// BatchResult summarises a notify-all run.
type BatchResult struct {
	Records []NotificationRecord
	SentAt  time.Time
}

// NotificationRecorder appends notification records to the notifications
// collection. It shares the contact repo for snapshots but never mutates
// contacts.
type NotificationRecorder struct {
	contactRepo   *ContactRepo
	notifications database.Collection
}

func NewNotificationRecorder(contactRepo *ContactRepo, notifications database.Collection) *NotificationRecorder {
	return &NotificationRecorder{contactRepo: contactRepo, notifications: notifications}
}

// NotifyOne records an alert intent for a single contact, snapshotting the
// contact's current name and phone.
func (recorder *NotificationRecorder) NotifyOne(ctx context.Context, contactID, message string, location Location) (*NotificationRecord, error) {
	contact, err := recorder.contactRepo.Find(ctx, contactID)
	if err != nil {
		return nil, err
	}

	record := newRecord(contact, message, location)
	if err := recorder.insert(ctx, record); err != nil {
		return nil, errors.Wrap(err, "NotificationRecorder.NotifyOne")
	}

	return record, nil
}

// NotifyAll records one alert intent per contact of the user, in list order.
// If an insert fails mid-loop the earlier records remain; there is no
// rollback and no idempotency key, so a full retry can duplicate them.
func (recorder *NotificationRecorder) NotifyAll(ctx context.Context, userID, message string, location Location) (*BatchResult, error) {
	contacts, err := recorder.contactRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, ErrNotFound
	}

	records := []NotificationRecord{}
	for i := range contacts {
		record := newRecord(&contacts[i], message, location)
		if err := recorder.insert(ctx, record); err != nil {
			return nil, errors.Wrapf(err, "NotificationRecorder.NotifyAll: %v of %v sent", len(records), len(contacts))
		}
		records = append(records, *record)
	}

	return &BatchResult{Records: records, SentAt: utcNow()}, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func newRecord(contact *TrustedContact, message string, location Location) *NotificationRecord {
	return &NotificationRecord{
		ContactID:    contact.ID.Hex(),
		UserID:       contact.UserID,
		ContactName:  contact.Name,
		ContactPhone: contact.Phone,
		Message:      message,
		Latitude:     location.Latitude,
		Longitude:    location.Longitude,
		LocationName: location.Name,
		SentAt:       utcNow(),
		Status:       SENT_STATUS,
	}
}

func (recorder *NotificationRecorder) insert(ctx context.Context, record *NotificationRecord) error {
	id, err := recorder.notifications.InsertOne(ctx, record)
	if err != nil {
		return err
	}

	record.ID = id
	return nil
}
