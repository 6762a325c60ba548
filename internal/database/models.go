package database

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient       Role = "Patient"
	RolePractitioner  Role = "Practitioner"
	RoleAdministrator Role = "Administrator"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RolePractitioner, RoleAdministrator:
		return true
	}
	return false
}

type AccountStatus string

const (
	StatusActive AccountStatus = "Active"
	StatusLocked AccountStatus = "Locked"
)

// Credential holds one principal's login material and lockout state.
// The identity reference is a plain typed foreign key; Role is
// authorization data only and never selects a storage location.
type Credential struct {
	ID                 uuid.UUID     `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Username           string        `json:"username" gorm:"uniqueIndex"`
	PasswordHash       string        `json:"-"`
	Role               Role          `json:"role" gorm:"default:'Patient'"`
	LastAccess         *time.Time    `json:"-"`
	FailedAttempts     int           `json:"-" gorm:"default:0"`
	AccountStatus      AccountStatus `json:"-" gorm:"default:'Active'"`
	SecurityQuestion   string        `json:"-"`
	SecurityAnswerHash string        `json:"-"`
	IdentityID         uuid.UUID     `json:"identity_id" gorm:"type:uuid;index"`
	CreatedAt          time.Time     `json:"-"`
	UpdatedAt          time.Time     `json:"-"`
}

func (c *Credential) TableName() string {
	return "account.credential"
}

// Identity is the profile record, 1:1 with a credential.
type Identity struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string     `json:"name"`
	LastName  *string    `json:"last_name"`
	BirthDate *time.Time `json:"birth_date"`
	Phone     *string    `json:"phone"`
	Email     string     `json:"email" gorm:"uniqueIndex"`
	Address   *string    `json:"address"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (i *Identity) TableName() string {
	return "account.identity"
}

type RecoveryStage string

const (
	StageQuestion RecoveryStage = "question"
	StageReset    RecoveryStage = "reset"
)

// RecoveryToken is the short-lived, single-use correlation value handed
// to the client between password-recovery steps.
type RecoveryToken struct {
	Token        string        `gorm:"primaryKey"`
	CredentialID uuid.UUID     `gorm:"type:uuid;index"`
	Stage        RecoveryStage `gorm:"type:text"`
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

func (t *RecoveryToken) TableName() string {
	return "account.recovery_token"
}
