package database

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory store implementations with the same semantics as the GORM
// stores, used by the service and handler tests.

type MemoryCredentialStore struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*Credential
	byKey map[string]uuid.UUID

	// FailCreate forces the next Create to fail, for rollback tests.
	FailCreate error
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		byID:  make(map[uuid.UUID]*Credential),
		byKey: make(map[string]uuid.UUID),
	}
}

func (s *MemoryCredentialStore) Create(cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreate != nil {
		err := s.FailCreate
		s.FailCreate = nil
		return err
	}
	if _, ok := s.byKey[cred.Username]; ok {
		return ErrDuplicate
	}
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	if cred.Role == "" {
		cred.Role = RolePatient
	}
	if cred.AccountStatus == "" {
		cred.AccountStatus = StatusActive
	}

	clone := *cred
	s.byID[cred.ID] = &clone
	s.byKey[cred.Username] = cred.ID
	return nil
}

func (s *MemoryCredentialStore) GetByID(id uuid.UUID) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id)
}

func (s *MemoryCredentialStore) GetByUsername(username string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byKey[username]
	if !ok {
		return nil, ErrNotFound
	}
	return s.lookup(id)
}

func (s *MemoryCredentialStore) GetByIdentityID(identityID uuid.UUID) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cred := range s.byID {
		if cred.IdentityID == identityID {
			clone := *cred
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryCredentialStore) RegisterFailedAttempt(id uuid.UUID, threshold int) (int, AccountStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[id]
	if !ok {
		return 0, "", ErrNotFound
	}
	cred.FailedAttempts++
	if cred.FailedAttempts >= threshold {
		cred.AccountStatus = StatusLocked
	}
	return cred.FailedAttempts, cred.AccountStatus, nil
}

func (s *MemoryCredentialStore) RegisterAccess(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	cred.FailedAttempts = 0
	now := nowUTC()
	cred.LastAccess = &now
	return nil
}

func (s *MemoryCredentialStore) ReplacePassword(id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	cred.PasswordHash = passwordHash
	cred.FailedAttempts = 0
	cred.AccountStatus = StatusActive
	return nil
}

func (s *MemoryCredentialStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred, ok := s.byID[id]; ok {
		delete(s.byKey, cred.Username)
		delete(s.byID, id)
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func (s *MemoryCredentialStore) lookup(id uuid.UUID) (*Credential, error) {
	cred, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *cred
	return &clone, nil
}

type MemoryIdentityStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*Identity
	byEmail map[string]uuid.UUID
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		byID:    make(map[uuid.UUID]*Identity),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *MemoryIdentityStore) Create(identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[identity.Email]; ok {
		return ErrDuplicate
	}
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}

	clone := *identity
	s.byID[identity.ID] = &clone
	s.byEmail[identity.Email] = identity.ID
	return nil
}

func (s *MemoryIdentityStore) GetByID(id uuid.UUID) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *identity
	return &clone, nil
}

func (s *MemoryIdentityStore) GetByEmail(email string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *MemoryIdentityStore) Update(identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[identity.ID]
	if !ok {
		return ErrNotFound
	}
	if prev.Email != identity.Email {
		if _, taken := s.byEmail[identity.Email]; taken {
			return ErrDuplicate
		}
		delete(s.byEmail, prev.Email)
		s.byEmail[identity.Email] = identity.ID
	}

	clone := *identity
	s.byID[identity.ID] = &clone
	return nil
}

func (s *MemoryIdentityStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity, ok := s.byID[id]; ok {
		delete(s.byEmail, identity.Email)
		delete(s.byID, id)
	}
	return nil
}

type MemoryRecoveryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*RecoveryToken
}

func NewMemoryRecoveryTokenStore() *MemoryRecoveryTokenStore {
	return &MemoryRecoveryTokenStore{tokens: make(map[string]*RecoveryToken)}
}

func (s *MemoryRecoveryTokenStore) Create(token *RecoveryToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *token
	s.tokens[token.Token] = &clone
	return nil
}

func (s *MemoryRecoveryTokenStore) Get(token string) (*RecoveryToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryRecoveryTokenStore) Consume(token string) (*RecoveryToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.tokens, token)
	return rec, nil
}

func (s *MemoryRecoveryTokenStore) PurgeForCredential(credentialID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rec := range s.tokens {
		if rec.CredentialID == credentialID {
			delete(s.tokens, key)
		}
	}
	return nil
}
