package account

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"medisync/internal/database"
	"medisync/pkg/utils"
)

var (
	ErrUsernameTaken = errors.New("username already in use")
	ErrEmailTaken    = errors.New("email already in use")

	// ErrInconsistent marks a credential whose identity record is gone.
	ErrInconsistent = errors.New("credential has no identity record")
)

type Service struct {
	credentials database.CredentialStore
	identities  database.IdentityStore
}

func NewService(credentials database.CredentialStore, identities database.IdentityStore) *Service {
	return &Service{credentials: credentials, identities: identities}
}

// Normalize case-folds a user-supplied identifier, security answer or
// email for storage and comparison.
func Normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Resolve maps a username or email to the credential it belongs to.
// Username wins; otherwise the identity is found by email and the
// credential follows its foreign key. Side-effect-free.
func (s *Service) Resolve(identifier string) (*database.Credential, error) {
	ident := Normalize(identifier)

	cred, err := s.credentials.GetByUsername(ident)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	identity, err := s.identities.GetByEmail(ident)
	if err != nil {
		return nil, err
	}
	return s.credentials.GetByIdentityID(identity.ID)
}

type RegisterInput struct {
	Email          string
	Username       string
	Password       string
	Name           string
	LastName       *string
	SecretQuestion string
	SecretAnswer   string
	Role           database.Role
}

// Register creates the identity and credential as a saga: if the
// credential cannot be created after the identity was, the identity is
// deleted again so no orphan remains.
func (s *Service) Register(in RegisterInput) (*database.Credential, *database.Identity, error) {
	username := Normalize(in.Username)
	email := Normalize(in.Email)

	if _, err := s.credentials.GetByUsername(username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, nil, err
	}
	if _, err := s.identities.GetByEmail(email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, nil, err
	}

	passwordHash, err := utils.HashSecret(in.Password)
	if err != nil {
		return nil, nil, err
	}
	answerHash, err := utils.HashSecret(Normalize(in.SecretAnswer))
	if err != nil {
		return nil, nil, err
	}

	role := in.Role
	if role == "" {
		role = database.RolePatient
	}

	identity := &database.Identity{
		Name:     in.Name,
		LastName: in.LastName,
		Email:    email,
	}
	credential := &database.Credential{
		Username:           username,
		PasswordHash:       passwordHash,
		Role:               role,
		AccountStatus:      database.StatusActive,
		SecurityQuestion:   in.SecretQuestion,
		SecurityAnswerHash: answerHash,
	}

	err = runSaga([]sagaStep{
		{
			name: "create identity",
			run: func() error {
				if err := s.identities.Create(identity); errors.Is(err, database.ErrDuplicate) {
					return ErrEmailTaken
				} else if err != nil {
					return err
				}
				return nil
			},
			undo: func() error { return s.identities.Delete(identity.ID) },
		},
		{
			name: "create credential",
			run: func() error {
				credential.IdentityID = identity.ID
				if err := s.credentials.Create(credential); errors.Is(err, database.ErrDuplicate) {
					return ErrUsernameTaken
				} else if err != nil {
					return err
				}
				return nil
			},
			undo: func() error { return s.credentials.Delete(credential.ID) },
		},
	})
	if err != nil {
		return nil, nil, err
	}

	return credential, identity, nil
}

// Profile is the merged identity+credential view returned to the owner.
type Profile struct {
	ID        uuid.UUID     `json:"id"`
	Email     string        `json:"email"`
	Username  string        `json:"username"`
	Name      string        `json:"name"`
	LastName  *string       `json:"last_name"`
	BirthDate *time.Time    `json:"birth_date"`
	Phone     *string       `json:"phone"`
	Address   *string       `json:"address"`
	Role      database.Role `json:"role"`
}

func (s *Service) Profile(credentialID uuid.UUID) (*Profile, error) {
	cred, err := s.credentials.GetByID(credentialID)
	if err != nil {
		return nil, err
	}

	identity, err := s.identities.GetByID(cred.IdentityID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInconsistent
		}
		return nil, err
	}

	return profileView(cred, identity), nil
}

type ProfileUpdate struct {
	Name      *string
	LastName  *string
	BirthDate *time.Time
	Phone     *string
	Address   *string
}

func (s *Service) UpdateProfile(credentialID uuid.UUID, in ProfileUpdate) (*Profile, error) {
	cred, err := s.credentials.GetByID(credentialID)
	if err != nil {
		return nil, err
	}
	identity, err := s.identities.GetByID(cred.IdentityID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInconsistent
		}
		return nil, err
	}

	if in.Name != nil && *in.Name != "" {
		identity.Name = *in.Name
	}
	updateNullableString(&identity.LastName, in.LastName)
	updateNullableString(&identity.Phone, in.Phone)
	updateNullableString(&identity.Address, in.Address)
	if in.BirthDate != nil {
		identity.BirthDate = in.BirthDate
	}

	if err := s.identities.Update(identity); err != nil {
		return nil, err
	}

	return profileView(cred, identity), nil
}

// DeleteAccount removes the credential first so the login material is
// gone even if the identity delete fails; a leftover identity is logged
// and the error surfaced.
func (s *Service) DeleteAccount(credentialID uuid.UUID) error {
	cred, err := s.credentials.GetByID(credentialID)
	if err != nil {
		return err
	}

	if err := s.credentials.Delete(cred.ID); err != nil {
		return err
	}
	if err := s.identities.Delete(cred.IdentityID); err != nil {
		log.Errorf("identity %s left behind after account deletion: %v", cred.IdentityID, err)
		return err
	}
	return nil
}

func profileView(cred *database.Credential, identity *database.Identity) *Profile {
	return &Profile{
		ID:        identity.ID,
		Email:     identity.Email,
		Username:  cred.Username,
		Name:      identity.Name,
		LastName:  identity.LastName,
		BirthDate: identity.BirthDate,
		Phone:     identity.Phone,
		Address:   identity.Address,
		Role:      cred.Role,
	}
}

func updateNullableString(target **string, value *string) {
	if value != nil {
		if *value != "" {
			*target = value
		} else {
			*target = nil
		}
	}
}
