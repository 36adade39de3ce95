package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/metrics"
	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
	"github.com/securevault-systems/vault-core/pkg/tokens"
)

// Identity handles registration, login and identifier migration. Login
// outcomes are ordered: lockdown first, then the honeypot trap, then
// credentials, then pattern enforcement. The ordering is load-bearing; a
// flagged identity must be trapped before anything leaks about its
// credential, and lockdown must hide whether an account exists at all.
type Identity struct {
	repo     repository.Repository
	registry *Registry
	audit    *audit.Recorder
	tokens   *tokens.TokenGenerator
}

func NewIdentity(repo repository.Repository, registry *Registry, recorder *audit.Recorder, tg *tokens.TokenGenerator) *Identity {
	return &Identity{repo: repo, registry: registry, audit: recorder, tokens: tg}
}

// validCredential enforces the account credential policy: at least eight
// characters with at least one digit and one symbol.
func validCredential(password string) bool {
	if len(password) < 8 {
		return false
	}
	var digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			symbol = true
		}
	}
	return digit && symbol
}

func matchesPattern(pattern, username string) bool {
	if pattern == "" {
		return true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// Invalid patterns are rejected at write time; a corrupt stored
		// pattern must not lock every identity out.
		return true
	}
	return re.MatchString(username)
}

func (s *Identity) Register(ctx context.Context, fullName, username, password string) (*models.User, error) {
	if err := s.registry.Gate(ctx, nil); err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	if username == "" || fullName == "" {
		return nil, ErrInvalidCredentials
	}
	if !validCredential(password) {
		return nil, ErrWeakCredential
	}

	settings, err := s.registry.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if !matchesPattern(settings.IDPattern, username) {
		return nil, ErrPatternMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	user := &models.User{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Username:       username,
		FullName:       fullName,
		CredentialHash: string(hash),
		Role:           models.RoleStandard,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	s.audit.Record(ctx, models.AuditInfo, username, "New identity registered")
	return user, nil
}

func (s *Identity) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	settings, err := s.registry.Settings(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Lockdown masks whether the account exists.
			if settings.Lockdown {
				return nil, ErrLockdown
			}
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			s.audit.Record(ctx, models.AuditWarn, username, "Failed login attempt: unknown identity")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if settings.Lockdown && !user.IsAdmin() {
		metrics.LoginAttempts.WithLabelValues("lockdown").Inc()
		s.audit.Record(ctx, models.AuditWarn, username, "Login rejected: system lockdown active")
		return nil, ErrLockdown
	}

	// Flagged identities are trapped before the credential is checked: the
	// response must be indistinguishable from a success so the decoy
	// environment can take over.
	if user.IsFlagged() {
		token, err := s.tokens.Generate(user.ID, user.Username, string(user.Role))
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		metrics.LoginAttempts.WithLabelValues("trapped").Inc()
		s.audit.Record(ctx, models.AuditAlert, username, "Flagged identity attempted login; routed to decoy")
		return &models.LoginResponse{Token: token, Role: user.Role, FullName: user.FullName}, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		s.audit.Record(ctx, models.AuditWarn, username, "Failed login attempt: bad credential")
		return nil, ErrInvalidCredentials
	}

	if !matchesPattern(settings.IDPattern, user.Username) {
		s.audit.Record(ctx, models.AuditInfo, username, "Login deferred: identifier migration required")
		return nil, ErrMigrationRequired
	}

	token, err := s.tokens.Generate(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.audit.Record(ctx, models.AuditInfo, username, "Successful login")
	return &models.LoginResponse{Token: token, Role: user.Role, FullName: user.FullName}, nil
}

// Migrate renames an identity to a pattern-conforming username after
// re-verifying the credential. A failed verification leaves the identity
// unchanged.
func (s *Identity) Migrate(ctx context.Context, username, password, newUsername string) error {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := s.registry.Gate(ctx, user); err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(password)); err != nil {
		s.audit.Record(ctx, models.AuditWarn, username, "Identifier migration rejected: bad credential")
		return ErrInvalidCredentials
	}

	newUsername = strings.TrimSpace(newUsername)
	settings, err := s.registry.Settings(ctx)
	if err != nil {
		return err
	}
	if newUsername == "" || !matchesPattern(settings.IDPattern, newUsername) {
		return ErrPatternMismatch
	}

	if err := s.repo.UpdateUsername(ctx, user.ID, newUsername); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return ErrDuplicateUsername
		}
		return err
	}

	s.audit.Record(ctx, models.AuditInfo, newUsername,
		fmt.Sprintf("Identifier migrated: %s -> %s", username, newUsername))
	return nil
}
