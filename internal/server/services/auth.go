// Package services contains server-side business logic. This file
// implements AuthService, which owns the token lifecycle: registration with
// e-mail verification, login, refresh-token rotation, logout, and the
// password-reset flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/dbx"
	"github.com/fortislabs/fortis/internal/logging"
	"github.com/fortislabs/fortis/internal/server/auth"
	"github.com/fortislabs/fortis/internal/server/config"
	"github.com/fortislabs/fortis/internal/server/mailer"
	"github.com/fortislabs/fortis/internal/server/models"
	"github.com/fortislabs/fortis/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PendingVerification is the sentinel returned instead of an access token
// while the account still awaits e-mail verification.
const PendingVerification = "PENDING_VERIFICATION"

// refreshTokenBytes sets the entropy of opaque refresh tokens (hex-encoded).
const refreshTokenBytes = 32

// AuthResponse carries the outcome of the token-issuing flows.
type AuthResponse struct {
	Token        string
	RefreshToken string
	Username     string
	Email        string
	Message      string
}

// VerificationResult reports the outcome of consuming a verification token.
// AlreadyVerified distinguishes a repeat click from a first activation.
type VerificationResult struct {
	Success         bool
	AlreadyVerified bool
	Email           string
	Message         string
}

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     string
	Enabled  bool
}

// AuthService coordinates the credential store, the token ledger, the
// signer, and the notification dispatcher.
//
// Session policy: login revokes every prior refresh token of the user, so
// at most one refresh chain is live per account (single active session).
type AuthService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	dispatcher *mailer.Dispatcher
	logger     logging.Logger

	jwtSecret            []byte
	frontendURL          string
	accessTokenTTL       time.Duration
	refreshTokenTTL      time.Duration
	verificationTokenTTL time.Duration
	resetTokenTTL        time.Duration
}

// NewAuthService constructs an AuthService. db may be nil when the
// repository manager is not SQL-backed (in-memory tests); transactional
// sections then run non-transactionally.
func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, dispatcher *mailer.Dispatcher, logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                   db,
		repos:                repos,
		dispatcher:           dispatcher,
		logger:               logger.With("module", "auth_service"),
		jwtSecret:            []byte(cfg.Auth.SecretKey),
		frontendURL:          cfg.FrontendURL,
		accessTokenTTL:       cfg.Auth.AccessTokenTTL,
		refreshTokenTTL:      cfg.Auth.RefreshTokenTTL,
		verificationTokenTTL: cfg.Auth.VerificationTokenTTL,
		resetTokenTTL:        cfg.Auth.ResetTokenTTL,
	}
}

// Register creates a disabled account, stores a fresh verification token,
// and queues the verification mail. The caller receives the
// PendingVerification sentinel instead of usable credentials.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {

	if _, err := s.repos.Users(s.db).GetByEmail(ctx, email); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Enabled:      false,
	}

	token := uuid.NewString()

	if err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repos.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created

		_, err = s.repos.VerificationTokens(tx).Replace(ctx, user.ID, token, s.verificationTokenTTL)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.sendVerificationMail(ctx, user.Email, token)

	return &AuthResponse{
		Token:    PendingVerification,
		Username: user.Username,
		Email:    user.Email,
		Message:  "Registration successful. Please verify your email",
	}, nil
}

// VerifyEmail consumes a verification token and enables the account.
// A token that was already used yields a success with AlreadyVerified set,
// so verification links can be clicked more than once.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*VerificationResult, error) {

	vt, err := s.repos.VerificationTokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching verification token: %w", err)
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, vt.UserID)
	if err != nil {
		return nil, fmt.Errorf("error resolving token owner: %w", err)
	}

	if vt.Used {
		return &VerificationResult{
			Success:         true,
			AlreadyVerified: true,
			Email:           user.Email,
			Message:         "Email already verified. You can now log in.",
		}, nil
	}

	if vt.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrTokenExpired
	}

	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.VerificationTokens(tx).MarkUsed(ctx, token); err != nil {
			return err
		}
		return s.repos.Users(tx).SetEnabled(ctx, vt.UserID, true)
	})
	if err != nil {
		if errors.Is(err, common.ErrTokenUsed) {
			// Lost a race against a concurrent click; the account is
			// enabled either way.
			return &VerificationResult{
				Success:         true,
				AlreadyVerified: true,
				Email:           user.Email,
				Message:         "Email already verified. You can now log in.",
			}, nil
		}
		return nil, fmt.Errorf("error consuming verification token: %w", err)
	}

	return &VerificationResult{
		Success:         true,
		AlreadyVerified: false,
		Email:           user.Email,
		Message:         "Email has been successfully verified! You can now log in.",
	}, nil
}

// Login verifies credentials and mints a fresh token pair. The error is a
// generic Unauthorized for both unknown e-mail and wrong password; disabled
// accounts fail Forbidden. All prior refresh tokens are revoked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {

	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	if !user.Enabled {
		return nil, common.ErrorForbidden
	}

	var access, refresh string
	if err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.RefreshTokens(tx).RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}
		var genErr error
		access, refresh, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}

	return &AuthResponse{
		Token:        access,
		RefreshToken: refresh,
		Username:     user.Username,
		Email:        user.Email,
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued to the same user inside one transaction. Every token
// is therefore exchangeable at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {

	rt, err := s.repos.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if rt.Revoked {
		return nil, common.ErrTokenRevoked
	}
	if rt.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrTokenExpired
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("error resolving token owner: %w", err)
	}

	var access, refresh string
	if err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.RefreshTokens(tx).Revoke(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// A concurrent exchange won; this attempt loses.
				return common.ErrTokenRevoked
			}
			return err
		}
		var genErr error
		access, refresh, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		if errors.Is(err, common.ErrTokenRevoked) {
			return nil, common.ErrTokenRevoked
		}
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}

	return &AuthResponse{
		Token:        access,
		RefreshToken: refresh,
		Username:     user.Username,
		Email:        user.Email,
	}, nil
}

// Logout revokes the presented refresh token. Unknown or already-revoked
// tokens are not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.repos.RefreshTokens(s.db).Revoke(ctx, refreshToken)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// ForgotPassword issues a reset token for the account, replacing any
// outstanding one, and queues the reset mail. Unknown e-mails fail
// NotFound.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {

	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	token := uuid.NewString()

	if _, err := s.repos.ResetTokens(s.db).Replace(ctx, user.ID, token, s.resetTokenTTL); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	s.sendPasswordResetMail(ctx, user.Email, token)

	return nil
}

// ValidateResetToken is a read-only probe used by the reset form; it never
// consumes the token.
func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {

	rt, err := s.repos.ResetTokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error searching reset token: %w", err)
	}

	if rt.Used {
		return common.ErrTokenUsed
	}
	if rt.ExpiresAt.Before(time.Now()) {
		return common.ErrTokenExpired
	}

	return nil
}

// ResetPassword consumes a reset token and stores the re-hashed password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {

	rt, err := s.repos.ResetTokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error searching reset token: %w", err)
	}

	if rt.Used {
		return common.ErrTokenUsed
	}
	if rt.ExpiresAt.Before(time.Now()) {
		return common.ErrTokenExpired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.ResetTokens(tx).MarkUsed(ctx, token); err != nil {
			return err
		}
		return s.repos.Users(tx).UpdatePassword(ctx, rt.UserID, hash)
	}); err != nil {
		if errors.Is(err, common.ErrTokenUsed) {
			return common.ErrTokenUsed
		}
		return fmt.Errorf("error resetting password: %w", err)
	}

	return nil
}

// Authenticate resolves a bearer access token to the account it was issued
// for. Signature and expiry failures surface the token errors; a subject
// that no longer maps to an account fails Unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Identity, error) {
	email, err := auth.ExtractEmail(tokenString, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error resolving identity: %w", err)
	}

	return &Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Enabled:  user.Enabled,
	}, nil
}

// inTx runs fn inside a database transaction when a SQL handle is
// available and directly otherwise.
func (s *AuthService) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (string, string, error) {
	access, err := auth.GenerateToken(user.Email, s.jwtSecret, s.accessTokenTTL)
	if err != nil {
		return "", "", common.ErrorInternal
	}

	refresh, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return "", "", common.ErrorInternal
	}

	if _, err := s.repos.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.refreshTokenTTL); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func (s *AuthService) sendVerificationMail(ctx context.Context, email, token string) {
	msg, err := mailer.VerificationMessage(email, s.frontendURL, token)
	if err != nil {
		s.logger.Error(ctx, "failed to render verification mail", "error", err.Error())
		return
	}
	s.dispatcher.Enqueue(msg)
}

func (s *AuthService) sendPasswordResetMail(ctx context.Context, email, token string) {
	msg, err := mailer.PasswordResetMessage(email, s.frontendURL, token)
	if err != nil {
		s.logger.Error(ctx, "failed to render password reset mail", "error", err.Error())
		return
	}
	s.dispatcher.Enqueue(msg)
}
