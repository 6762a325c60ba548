package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/database"
	"medisync/internal/platform/account"
)

func newTestService(t *testing.T) (*Service, *database.MemoryCredentialStore, *database.Credential) {
	t.Helper()

	creds := database.NewMemoryCredentialStore()
	idents := database.NewMemoryIdentityStore()
	accounts := account.NewService(creds, idents)

	cred, _, err := accounts.Register(account.RegisterInput{
		Email:          "alice@example.com",
		Username:       "alice",
		Password:       "secret1",
		Name:           "Alice",
		SecretQuestion: "Favorite color?",
		SecretAnswer:   "blue",
	})
	require.NoError(t, err)

	return NewService(accounts, creds), creds, cred
}

func TestLoginSuccess(t *testing.T) {
	svc, creds, cred := newTestService(t)

	result, err := svc.Login("alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, result.CredentialID)
	assert.Equal(t, cred.IdentityID, result.IdentityID)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, database.RolePatient, result.Role)

	stored, err := creds.GetByID(cred.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedAttempts)
	assert.NotNil(t, stored.LastAccess)
}

func TestLoginByEmailCaseInsensitive(t *testing.T) {
	svc, _, cred := newTestService(t)

	result, err := svc.Login("Alice@Example.COM", "secret1")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, result.CredentialID)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, unknownErr := svc.Login("nobody", "secret1")
	_, wrongErr := svc.Login("alice", "wrong")

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	svc, creds, cred := newTestService(t)

	for i := 0; i < 4; i++ {
		_, err := svc.Login("alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, err := creds.GetByID(cred.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.FailedAttempts)
	assert.Equal(t, database.StatusActive, stored.AccountStatus)

	_, err = svc.Login("alice", "wrong")
	require.ErrorIs(t, err, ErrAttemptLocked)

	stored, err = creds.GetByID(cred.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailedAttempts)
	assert.Equal(t, database.StatusLocked, stored.AccountStatus)

	// Even the correct password is rejected once locked.
	_, err = svc.Login("alice", "secret1")
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestSuccessResetsFailedAttempts(t *testing.T) {
	svc, creds, cred := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.Login("alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := svc.Login("alice", "secret1")
	require.NoError(t, err)

	stored, err := creds.GetByID(cred.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedAttempts)
}

func TestConcurrentFailuresLockOnce(t *testing.T) {
	svc, creds, cred := newTestService(t)

	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Login("alice", "wrong")
		}(i)
	}
	wg.Wait()

	lockTransitions := 0
	for _, err := range errs {
		switch {
		case err == ErrAttemptLocked:
			lockTransitions++
		case err == ErrInvalidCredentials, err == ErrAccountLocked:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, lockTransitions, "exactly one attempt crosses the threshold")

	stored, err := creds.GetByID(cred.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusLocked, stored.AccountStatus)
	// Attempts arriving after the lock are rejected without counting.
	assert.GreaterOrEqual(t, stored.FailedAttempts, LockoutThreshold)
	assert.LessOrEqual(t, stored.FailedAttempts, attempts)
}

func TestChangePassword(t *testing.T) {
	svc, creds, cred := newTestService(t)

	require.NoError(t, svc.ChangePassword(cred.ID, "secret1", "brandnew"))

	_, err := svc.Login("alice", "brandnew")
	require.NoError(t, err)
	_, err = svc.Login("alice", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// A wrong current password counts as a failed attempt.
	err = svc.ChangePassword(cred.ID, "wrong", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := creds.GetByID(cred.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FailedAttempts)
}
