package account

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/database"
	"medisync/pkg/utils"
)

func registerAlice(t *testing.T, svc *Service) *database.Credential {
	t.Helper()

	cred, _, err := svc.Register(RegisterInput{
		Email:          "Alice@Example.COM",
		Username:       "Alice",
		Password:       "secret1",
		Name:           "Alice",
		SecretQuestion: "Favorite color?",
		SecretAnswer:   "Blue",
	})
	require.NoError(t, err)
	return cred
}

func newStores() (*database.MemoryCredentialStore, *database.MemoryIdentityStore) {
	return database.NewMemoryCredentialStore(), database.NewMemoryIdentityStore()
}

func TestRegisterNormalizes(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)

	cred := registerAlice(t, svc)
	assert.Equal(t, "alice", cred.Username)

	identity, err := idents.GetByID(cred.IdentityID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", identity.Email)

	// The security answer is hashed after case folding.
	assert.True(t, utils.VerifySecret("blue", cred.SecurityAnswerHash))
	assert.False(t, utils.VerifySecret("Blue", cred.SecurityAnswerHash))
}

func TestRegisterDuplicates(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)
	registerAlice(t, svc)

	_, _, err := svc.Register(RegisterInput{
		Email:          "other@example.com",
		Username:       "ALICE",
		Password:       "secret1",
		Name:           "Other",
		SecretQuestion: "Q",
		SecretAnswer:   "A",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, _, err = svc.Register(RegisterInput{
		Email:          "alice@example.com",
		Username:       "other",
		Password:       "secret1",
		Name:           "Other",
		SecretQuestion: "Q",
		SecretAnswer:   "A",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRollsBackIdentity(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)

	boom := errors.New("credential store down")
	creds.FailCreate = boom

	_, _, err := svc.Register(RegisterInput{
		Email:          "alice@example.com",
		Username:       "alice",
		Password:       "secret1",
		Name:           "Alice",
		SecretQuestion: "Q",
		SecretAnswer:   "A",
	})
	require.ErrorIs(t, err, boom)

	// The compensating delete removed the identity again.
	_, err = idents.GetByEmail("alice@example.com")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestResolve(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)
	cred := registerAlice(t, svc)

	byUsername, err := svc.Resolve("ALICE")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, byUsername.ID)

	byEmail, err := svc.Resolve("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, byEmail.ID)

	_, err = svc.Resolve("nobody")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestProfileMergesRecords(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)
	cred := registerAlice(t, svc)

	profile, err := svc.Profile(cred.ID)
	require.NoError(t, err)
	assert.Equal(t, cred.IdentityID, profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, database.RolePatient, profile.Role)
}

func TestProfileInconsistentRecords(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)
	cred := registerAlice(t, svc)

	require.NoError(t, idents.Delete(cred.IdentityID))

	_, err := svc.Profile(cred.ID)
	require.ErrorIs(t, err, ErrInconsistent)
}

func TestUpdateProfile(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)
	cred := registerAlice(t, svc)

	phone := "555-0101"
	profile, err := svc.UpdateProfile(cred.ID, ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, profile.Phone)
	assert.Equal(t, phone, *profile.Phone)

	// An empty string clears an optional field.
	empty := ""
	profile, err = svc.UpdateProfile(cred.ID, ProfileUpdate{Phone: &empty})
	require.NoError(t, err)
	assert.Nil(t, profile.Phone)
}

func TestDeleteAccountRemovesBothRecords(t *testing.T) {
	creds, idents := newStores()
	svc := NewService(creds, idents)
	cred := registerAlice(t, svc)

	require.NoError(t, svc.DeleteAccount(cred.ID))

	_, err := creds.GetByID(cred.ID)
	require.ErrorIs(t, err, database.ErrNotFound)
	_, err = idents.GetByID(cred.IdentityID)
	require.ErrorIs(t, err, database.ErrNotFound)
}
