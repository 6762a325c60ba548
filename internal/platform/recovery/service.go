package recovery

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"medisync/internal/database"
	"medisync/internal/platform/account"
	"medisync/internal/platform/auth"
	"medisync/pkg/utils"
)

const (
	tokenTTL = 15 * time.Minute

	MinPasswordLength = 6
)

var (
	ErrNotFound         = errors.New("no matching account or recovery token")
	ErrBadToken         = errors.New("malformed recovery token")
	ErrIncorrectAnswer  = errors.New("incorrect security answer")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// Resolver maps a username or email to a credential.
type Resolver interface {
	Resolve(identifier string) (*database.Credential, error)
}

// Service drives the 4-step reset flow. The steps are threaded by
// short-lived single-use tokens instead of a raw credential id, so the
// reset step only works after the security answer was verified. The
// coordinator keeps no flow state of its own between calls.
type Service struct {
	resolver    Resolver
	credentials database.CredentialStore
	tokens      database.RecoveryTokenStore
}

func NewService(resolver Resolver, credentials database.CredentialStore, tokens database.RecoveryTokenStore) *Service {
	return &Service{resolver: resolver, credentials: credentials, tokens: tokens}
}

// ValidateUser starts the flow: resolve the identifier and mint a
// question-stage token. An unknown identifier is reported as such; the
// next step has to display the stored question, so account existence
// cannot be concealed in this flow anyway.
func (s *Service) ValidateUser(identifier string) (uuid.UUID, string, error) {
	cred, err := s.resolver.Resolve(identifier)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return uuid.Nil, "", ErrNotFound
		}
		return uuid.Nil, "", err
	}

	token, err := s.mint(cred.ID, database.StageQuestion)
	if err != nil {
		return uuid.Nil, "", err
	}
	return cred.ID, token, nil
}

// Question returns the security question for a live question-stage
// token. The token is checked but not consumed.
func (s *Service) Question(token string) (string, error) {
	if !utils.WellFormedToken(token) {
		return "", ErrBadToken
	}

	rec, err := s.tokens.Get(token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !live(rec, database.StageQuestion) {
		return "", ErrNotFound
	}

	cred, err := s.credentials.GetByID(rec.CredentialID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if cred.SecurityQuestion == "" {
		return "", ErrNotFound
	}

	return cred.SecurityQuestion, nil
}

// ValidateAnswer consumes the question-stage token whether or not the
// answer is right. A wrong answer goes through the same failed-attempt
// accounting as a wrong password; a lock reached this way blocks login
// but not the recovery flow itself, which is the only way out of it. A
// correct answer mints the reset-stage token.
func (s *Service) ValidateAnswer(token, answer string) (string, error) {
	if !utils.WellFormedToken(token) {
		return "", ErrBadToken
	}

	rec, err := s.tokens.Consume(token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !live(rec, database.StageQuestion) {
		return "", ErrNotFound
	}

	cred, err := s.credentials.GetByID(rec.CredentialID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if !utils.VerifySecret(account.Normalize(answer), cred.SecurityAnswerHash) {
		if _, _, err := s.credentials.RegisterFailedAttempt(cred.ID, auth.LockoutThreshold); err != nil {
			return "", err
		}
		return "", ErrIncorrectAnswer
	}

	return s.mint(cred.ID, database.StageReset)
}

// ResetPassword consumes a reset-stage token, stores the new password
// and reactivates the account with a clean failed-attempt counter. A
// too-short password is rejected before anything is touched.
func (s *Service) ResetPassword(token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if !utils.WellFormedToken(token) {
		return ErrBadToken
	}

	rec, err := s.tokens.Consume(token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !live(rec, database.StageReset) {
		return ErrNotFound
	}

	hash, err := utils.HashSecret(newPassword)
	if err != nil {
		return err
	}
	if err := s.credentials.ReplacePassword(rec.CredentialID, hash); err != nil {
		return err
	}

	// Invalidate whatever else is still outstanding for this account.
	return s.tokens.PurgeForCredential(rec.CredentialID)
}

func (s *Service) mint(credentialID uuid.UUID, stage database.RecoveryStage) (string, error) {
	token, err := utils.GenerateToken()
	if err != nil {
		return "", err
	}

	rec := &database.RecoveryToken{
		Token:        token,
		CredentialID: credentialID,
		Stage:        stage,
		ExpiresAt:    time.Now().Add(tokenTTL),
		CreatedAt:    time.Now(),
	}
	if err := s.tokens.Create(rec); err != nil {
		return "", err
	}
	return token, nil
}

func live(rec *database.RecoveryToken, stage database.RecoveryStage) bool {
	return rec.Stage == stage && time.Now().Before(rec.ExpiresAt)
}
