package auth

import (
	"errors"

	"github.com/google/uuid"

	"medisync/internal/database"
	"medisync/pkg/utils"
)

// LockoutThreshold is the number of consecutive failed attempts after
// which an account is locked until a completed password reset. There is
// no time-based unlock.
const LockoutThreshold = 5

var (
	// ErrInvalidCredentials covers unknown identifier and wrong
	// password alike, so the two cannot be told apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked is returned for any attempt against a locked
	// account, regardless of password correctness.
	ErrAccountLocked = errors.New("account locked")

	// ErrAttemptLocked marks the failed attempt that crossed the lock
	// threshold.
	ErrAttemptLocked = errors.New("account locked after too many failed attempts")
)

// Resolver maps a username or email to a credential.
type Resolver interface {
	Resolve(identifier string) (*database.Credential, error)
}

type Service struct {
	resolver    Resolver
	credentials database.CredentialStore
}

func NewService(resolver Resolver, credentials database.CredentialStore) *Service {
	return &Service{resolver: resolver, credentials: credentials}
}

// Result carries the authenticated principal's data for the session.
type Result struct {
	IdentityID   uuid.UUID
	CredentialID uuid.UUID
	Username     string
	Role         database.Role
}

func (s *Service) Login(identifier, password string) (*Result, error) {
	cred, err := s.resolver.Resolve(identifier)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if cred.AccountStatus == database.StatusLocked {
		return nil, ErrAccountLocked
	}

	if cred.PasswordHash == "" || !utils.VerifySecret(password, cred.PasswordHash) {
		return nil, s.recordFailure(cred.ID)
	}

	if err := s.credentials.RegisterAccess(cred.ID); err != nil {
		return nil, err
	}

	return &Result{
		IdentityID:   cred.IdentityID,
		CredentialID: cred.ID,
		Username:     cred.Username,
		Role:         cred.Role,
	}, nil
}

// ChangePassword verifies the current password with the same lockout
// accounting as login before storing the new hash.
func (s *Service) ChangePassword(credentialID uuid.UUID, current, newPassword string) error {
	cred, err := s.credentials.GetByID(credentialID)
	if err != nil {
		return err
	}

	if cred.AccountStatus == database.StatusLocked {
		return ErrAccountLocked
	}
	if !utils.VerifySecret(current, cred.PasswordHash) {
		return s.recordFailure(cred.ID)
	}

	hash, err := utils.HashSecret(newPassword)
	if err != nil {
		return err
	}
	return s.credentials.ReplacePassword(cred.ID, hash)
}

// recordFailure runs the atomic increment-and-lock and reports whether
// this attempt was the one that locked the account.
func (s *Service) recordFailure(id uuid.UUID) error {
	attempts, status, err := s.credentials.RegisterFailedAttempt(id, LockoutThreshold)
	if err != nil {
		return err
	}
	if status == database.StatusLocked && attempts == LockoutThreshold {
		return ErrAttemptLocked
	}
	return ErrInvalidCredentials
}
