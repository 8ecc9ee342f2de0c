package models

import (
	"context"
	"fmt"
	"testing"

	"github.com/moizuddin404/wsa-backend/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContactRepo() (*ContactRepo, *database.FakeCollection) {
	contacts := database.NewFakeCollection()
	contacts.UniqueKeys = []string{"user_id", "phone"}

	return NewContactRepo(contacts), contacts
}

func TestCreateContact(t *testing.T) {
	repo, contacts := newTestContactRepo()
	ctx := context.Background()

	contact, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	assert.False(t, contact.ID.IsZero(), "The created contact should be assigned an id")
	assert.False(t, contact.IsVerified, "A new contact should not be verified")
	assert.Equal(t, contact.CreatedAt, contact.UpdatedAt)
	assert.Equal(t, 1, contacts.Len())
}

func TestCreateContactEnforcesLimit(t *testing.T) {
	repo, contacts := newTestContactRepo()
	ctx := context.Background()

	for i := 0; i < MAX_TRUSTED_CONTACTS; i++ {
		_, err := repo.Create(ctx, "u1", "Contact", fmt.Sprintf("555000000%v", i), "friend")
		require.Nil(t, err)
	}

	_, err := repo.Create(ctx, "u1", "One Too Many", "5559999999", "friend")
	assert.ErrorIs(t, err, ErrContactLimit)
	assert.Equal(t, MAX_TRUSTED_CONTACTS, contacts.Len(), "The failed create should persist nothing")

	// the cap is per user
	_, err = repo.Create(ctx, "u2", "Other User", "5559999999", "friend")
	assert.Nil(t, err)
}

func TestCreateContactRejectsDuplicatePhone(t *testing.T) {
	repo, contacts := newTestContactRepo()
	ctx := context.Background()

	_, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	_, err = repo.Create(ctx, "u1", "Also Mom", "5551234567", "parent")
	assert.ErrorIs(t, err, ErrDuplicatePhone)
	assert.Equal(t, 1, contacts.Len())

	// same phone under a different user is allowed
	_, err = repo.Create(ctx, "u2", "Mom", "5551234567", "parent")
	assert.Nil(t, err)
}

func TestListByUserKeepsInsertionOrder(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	names := []string{"Mom", "Dad", "Sis"}
	for i, name := range names {
		_, err := repo.Create(ctx, "u1", name, fmt.Sprintf("555000000%v", i), "family")
		require.Nil(t, err)
	}

	contacts, err := repo.ListByUser(ctx, "u1")
	require.Nil(t, err)
	require.Len(t, contacts, 3)

	for i, contact := range contacts {
		assert.Equal(t, names[i], contact.Name)
	}
}

func TestFindContact(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	found, err := repo.Find(ctx, created.ID.Hex())
	require.Nil(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.Find(ctx, "not-a-hex-id")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = repo.Find(ctx, "61f7b9f3a2e4c1d8b0a3f2e1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateContact(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	updated, err := repo.Update(ctx, created.ID.Hex(), map[string]interface{}{"name": "Mother"})
	require.Nil(t, err)
	assert.Equal(t, "Mother", updated.Name)
	assert.Equal(t, "5551234567", updated.Phone, "Unsupplied fields should be untouched")
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestUpdateContactWithNoFields(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	_, err = repo.Update(ctx, created.ID.Hex(), map[string]interface{}{})
	assert.ErrorIs(t, err, ErrNoFields)

	unchanged, err := repo.Find(ctx, created.ID.Hex())
	require.Nil(t, err)
	assert.Equal(t, created.UpdatedAt, unchanged.UpdatedAt, "An empty update should not refresh updated_at")
}

func TestUpdateContactPhoneDuplicateCheck(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	first, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)
	second, err := repo.Create(ctx, "u1", "Dad", "5557654321", "parent")
	require.Nil(t, err)

	// taking another contact's phone fails
	_, err = repo.Update(ctx, second.ID.Hex(), map[string]interface{}{"phone": first.Phone})
	assert.ErrorIs(t, err, ErrDuplicatePhone)

	// re-submitting the contact's own phone is a no-op change, not a duplicate
	updated, err := repo.Update(ctx, second.ID.Hex(), map[string]interface{}{"phone": second.Phone})
	require.Nil(t, err)
	assert.Equal(t, second.Phone, updated.Phone)

	// a relationship-only update never runs the phone check
	updated, err = repo.Update(ctx, second.ID.Hex(), map[string]interface{}{"relationship": "father"})
	require.Nil(t, err)
	assert.Equal(t, "father", updated.Relationship)
}

func TestDeleteContact(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	require.Nil(t, repo.Delete(ctx, created.ID.Hex()))

	err = repo.Delete(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound, "A second delete of the same id should report not found")

	assert.ErrorIs(t, repo.Delete(ctx, "nope"), ErrInvalidID)
}

func TestVerifyContact(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)

	require.Nil(t, repo.Verify(ctx, created.ID.Hex()))

	verified, err := repo.Find(ctx, created.ID.Hex())
	require.Nil(t, err)
	assert.True(t, verified.IsVerified)

	assert.ErrorIs(t, repo.Verify(ctx, "61f7b9f3a2e4c1d8b0a3f2e1"), ErrNotFound)
}

func TestContactLifecycle(t *testing.T) {
	repo, _ := newTestContactRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, "u1", "Mom", "5551234567", "parent")
	require.Nil(t, err)
	assert.False(t, created.IsVerified)

	require.Nil(t, repo.Verify(ctx, created.ID.Hex()))
	require.Nil(t, repo.Delete(ctx, created.ID.Hex()))

	_, err = repo.Find(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}
