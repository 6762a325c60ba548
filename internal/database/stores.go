package database

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type CredentialStore interface {
	Create(cred *Credential) error
	GetByID(id uuid.UUID) (*Credential, error)
	GetByUsername(username string) (*Credential, error)
	GetByIdentityID(identityID uuid.UUID) (*Credential, error)
	// RegisterFailedAttempt increments the failed-attempt counter and
	// locks the account when the counter reaches threshold, as one
	// atomic operation. Returns the post-increment counter and status.
	RegisterFailedAttempt(id uuid.UUID, threshold int) (int, AccountStatus, error)
	// RegisterAccess zeroes the counter and stamps last_access.
	RegisterAccess(id uuid.UUID) error
	// ReplacePassword stores a new hash, zeroes the counter and
	// reactivates the account.
	ReplacePassword(id uuid.UUID, passwordHash string) error
	Delete(id uuid.UUID) error
}

type IdentityStore interface {
	Create(identity *Identity) error
	GetByID(id uuid.UUID) (*Identity, error)
	GetByEmail(email string) (*Identity, error)
	Update(identity *Identity) error
	Delete(id uuid.UUID) error
}

type RecoveryTokenStore interface {
	Create(token *RecoveryToken) error
	Get(token string) (*RecoveryToken, error)
	// Consume removes the token and returns it. A second consume of the
	// same token is ErrNotFound.
	Consume(token string) (*RecoveryToken, error)
	PurgeForCredential(credentialID uuid.UUID) error
}

type gormCredentials struct {
	db *gorm.DB
}

func NewCredentialStore(db *gorm.DB) CredentialStore {
	return &gormCredentials{db: db}
}

func (s *gormCredentials) Create(cred *Credential) error {
	if err := s.db.Create(cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *gormCredentials) GetByID(id uuid.UUID) (*Credential, error) {
	var cred Credential
	if err := s.db.First(&cred, "id = ?", id).Error; err != nil {
		return nil, mapGetError(err)
	}
	return &cred, nil
}

func (s *gormCredentials) GetByUsername(username string) (*Credential, error) {
	var cred Credential
	if err := s.db.First(&cred, "username = ?", username).Error; err != nil {
		return nil, mapGetError(err)
	}
	return &cred, nil
}

func (s *gormCredentials) GetByIdentityID(identityID uuid.UUID) (*Credential, error) {
	var cred Credential
	if err := s.db.First(&cred, "identity_id = ?", identityID).Error; err != nil {
		return nil, mapGetError(err)
	}
	return &cred, nil
}

func (s *gormCredentials) RegisterFailedAttempt(id uuid.UUID, threshold int) (int, AccountStatus, error) {
	var row struct {
		FailedAttempts int
		AccountStatus  AccountStatus
	}

	result := s.db.Raw(`UPDATE account.credential
		SET failed_attempts = failed_attempts + 1,
		    account_status = CASE WHEN failed_attempts + 1 >= ? THEN 'Locked' ELSE account_status END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING failed_attempts, account_status`, threshold, id).Scan(&row)
	if result.Error != nil {
		return 0, "", result.Error
	}
	if result.RowsAffected == 0 {
		return 0, "", ErrNotFound
	}

	return row.FailedAttempts, row.AccountStatus, nil
}

func (s *gormCredentials) RegisterAccess(id uuid.UUID) error {
	return s.db.Exec("UPDATE account.credential SET failed_attempts = 0, last_access = CURRENT_TIMESTAMP WHERE id = ?", id).Error
}

func (s *gormCredentials) ReplacePassword(id uuid.UUID, passwordHash string) error {
	return s.db.Exec("UPDATE account.credential SET password_hash = ?, failed_attempts = 0, account_status = 'Active', updated_at = CURRENT_TIMESTAMP WHERE id = ?", passwordHash, id).Error
}

func (s *gormCredentials) Delete(id uuid.UUID) error {
	return s.db.Delete(&Credential{}, "id = ?", id).Error
}

type gormIdentities struct {
	db *gorm.DB
}

func NewIdentityStore(db *gorm.DB) IdentityStore {
	return &gormIdentities{db: db}
}

func (s *gormIdentities) Create(identity *Identity) error {
	if err := s.db.Create(identity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *gormIdentities) GetByID(id uuid.UUID) (*Identity, error) {
	var identity Identity
	if err := s.db.First(&identity, "id = ?", id).Error; err != nil {
		return nil, mapGetError(err)
	}
	return &identity, nil
}

func (s *gormIdentities) GetByEmail(email string) (*Identity, error) {
	var identity Identity
	if err := s.db.First(&identity, "email = ?", email).Error; err != nil {
		return nil, mapGetError(err)
	}
	return &identity, nil
}

func (s *gormIdentities) Update(identity *Identity) error {
	if err := s.db.Save(identity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *gormIdentities) Delete(id uuid.UUID) error {
	return s.db.Delete(&Identity{}, "id = ?", id).Error
}

type gormRecoveryTokens struct {
	db *gorm.DB
}

func NewRecoveryTokenStore(db *gorm.DB) RecoveryTokenStore {
	return &gormRecoveryTokens{db: db}
}

func (s *gormRecoveryTokens) Create(token *RecoveryToken) error {
	return s.db.Create(token).Error
}

func (s *gormRecoveryTokens) Get(token string) (*RecoveryToken, error) {
	var rec RecoveryToken
	if err := s.db.First(&rec, "token = ?", token).Error; err != nil {
		return nil, mapGetError(err)
	}
	return &rec, nil
}

func (s *gormRecoveryTokens) Consume(token string) (*RecoveryToken, error) {
	var rec RecoveryToken
	result := s.db.Raw(`DELETE FROM account.recovery_token
		WHERE token = ?
		RETURNING token, credential_id, stage, expires_at, created_at`, token).Scan(&rec)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *gormRecoveryTokens) PurgeForCredential(credentialID uuid.UUID) error {
	return s.db.Delete(&RecoveryToken{}, "credential_id = ?", credentialID).Error
}

func mapGetError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
