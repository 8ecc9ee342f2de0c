package models

import (
	"context"
	"fmt"
	"testing"

	"github.com/moizuddin404/wsa-backend/database"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func newTestRecorder() (*NotificationRecorder, *ContactRepo, *database.FakeCollection) {
	contactRepo, _ := newTestContactRepo()
	notifications := database.NewFakeCollection()

	return NewNotificationRecorder(contactRepo, notifications), contactRepo, notifications
}

func TestNotifyOne(t *testing.T) {
	recorder, contactRepo, notifications := newTestRecorder()
	ctx := context.Background()

	contact, err := contactRepo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	lat, lon := 43.65, -79.38
	name := "Union Station"
	record, err := recorder.NotifyOne(ctx, contact.ID.Hex(), "help", Location{Latitude: &lat, Longitude: &lon, Name: &name})
	require.Nil(t, err)

	assert.Equal(t, contact.ID.Hex(), record.ContactID)
	assert.Equal(t, "Mom", record.ContactName)
	assert.Equal(t, "5551234567", record.ContactPhone)
	assert.Equal(t, SENT_STATUS, record.Status)
	assert.Equal(t, 1, notifications.Len())

	// notifying does not flip the trust marker
	refreshed, err := contactRepo.Find(ctx, contact.ID.Hex())
	require.Nil(t, err)
	assert.False(t, refreshed.IsVerified)
}

func TestNotifyOneMissingContact(t *testing.T) {
	recorder, _, notifications := newTestRecorder()
	ctx := context.Background()

	_, err := recorder.NotifyOne(ctx, "bad-id", "help", Location{})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = recorder.NotifyOne(ctx, "61f7b9f3a2e4c1d8b0a3f2e1", "help", Location{})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, notifications.Len())
}

func TestNotifyAll(t *testing.T) {
	recorder, contactRepo, notifications := newTestRecorder()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := contactRepo.Create(ctx, "u1", fmt.Sprintf("Contact %v", i), fmt.Sprintf("555000000%v", i), "friend")
		require.Nil(t, err)
	}

	batch, err := recorder.NotifyAll(ctx, "u1", "help", Location{})
	require.Nil(t, err)

	require.Len(t, batch.Records, 3)
	assert.Equal(t, 3, notifications.Len(), "Exactly one record per contact should be written")
	for i, record := range batch.Records {
		assert.Equal(t, fmt.Sprintf("Contact %v", i), record.ContactName, "Records should follow contact list order")
		assert.Equal(t, SENT_STATUS, record.Status)
	}
}

func TestNotifyAllWithNoContacts(t *testing.T) {
	recorder, _, notifications := newTestRecorder()
	ctx := context.Background()

	_, err := recorder.NotifyAll(ctx, "nobody", "help", Location{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, notifications.Len())
}

func TestNotifyAllKeepsRecordsOnMidLoopFailure(t *testing.T) {
	recorder, contactRepo, notifications := newTestRecorder()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := contactRepo.Create(ctx, "u1", fmt.Sprintf("Contact %v", i), fmt.Sprintf("555000000%v", i), "friend")
		require.Nil(t, err)
	}

	notifications.FailInsertAfter = 2
	notifications.ForcedErr = errors.New("store unavailable")

	_, err := recorder.NotifyAll(ctx, "u1", "help", Location{})
	require.NotNil(t, err)

	// no rollback: the records persisted before the failure remain
	assert.Equal(t, 2, notifications.Len())
}

func TestNotificationSnapshotIsImmutable(t *testing.T) {
	recorder, contactRepo, _ := newTestRecorder()
	ctx := context.Background()

	contact, err := contactRepo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	record, err := recorder.NotifyOne(ctx, contact.ID.Hex(), "help", Location{})
	require.Nil(t, err)

	_, err = contactRepo.Update(ctx, contact.ID.Hex(), map[string]interface{}{"name": "Mother", "phone": "5550000000"})
	require.Nil(t, err)
	require.Nil(t, contactRepo.Delete(ctx, contact.ID.Hex()))

	refreshed := NotificationRecord{}
	err = recorder.notifications.FindOne(ctx, bson.M{"_id": record.ID}, &refreshed)
	require.Nil(t, err)
	assert.Equal(t, "Mom", refreshed.ContactName, "The snapshot should survive contact mutation and deletion")
	assert.Equal(t, "5551234567", refreshed.ContactPhone)
}
