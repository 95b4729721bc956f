package services

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/fortislabs/fortis/internal/logging"
	"github.com/fortislabs/fortis/internal/server/auth"
	"github.com/fortislabs/fortis/internal/server/config"
	"github.com/fortislabs/fortis/internal/server/mailer"
	"github.com/fortislabs/fortis/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

// captureSender hands every message to the test instead of delivering it.
type captureSender struct {
	ch chan mailer.Message
}

func (c *captureSender) Send(ctx context.Context, msg mailer.Message) error {
	c.ch <- msg
	return nil
}

var tokenLinkRe = regexp.MustCompile(`token=([0-9a-fA-F-]+)`)

func waitMail(t *testing.T, ch chan mailer.Message) mailer.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected a mail to be dispatched")
		return mailer.Message{}
	}
}

func mailToken(t *testing.T, msg mailer.Message) string {
	t.Helper()
	m := tokenLinkRe.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2, "mail body should contain a token link")
	return m[1]
}

func testConfig() *config.Config {
	return &config.Config{
		FrontendURL: "http://localhost:3000",
		Auth: config.Auth{
			SecretKey:            "test-secret",
			AccessTokenTTL:       time.Hour,
			RefreshTokenTTL:      time.Hour,
			VerificationTokenTTL: time.Hour,
			ResetTokenTTL:        time.Hour,
		},
	}
}

func newTestAuthService(t *testing.T, cfg *config.Config) (*AuthService, chan mailer.Message) {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sender := &captureSender{ch: make(chan mailer.Message, 8)}
	dispatcher := mailer.NewDispatcher(sender, logger, 8, 1)
	t.Cleanup(dispatcher.Close)

	repos := repomanager.NewInMemoryRepositoryManager()
	return NewAuthService(nil, repos, dispatcher, logger, cfg), sender.ch
}

// registerVerified registers and verifies an account, returning the
// verification flow's byproducts consumed.
func registerVerified(t *testing.T, s *AuthService, mails chan mailer.Message, username, email, password string) {
	t.Helper()
	ctx := context.Background()

	resp, err := s.Register(ctx, username, email, password)
	require.NoError(t, err)
	require.Equal(t, PendingVerification, resp.Token)

	token := mailToken(t, waitMail(t, mails))
	res, err := s.VerifyEmail(ctx, token)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.False(t, res.AlreadyVerified)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())

	resp, err := s.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, PendingVerification, resp.Token)
	require.Empty(t, resp.RefreshToken)
	require.Equal(t, "alice", resp.Username)
	require.Equal(t, "alice@example.com", resp.Email)

	msg := waitMail(t, mails)
	require.Equal(t, "alice@example.com", msg.To)
	require.Contains(t, msg.Body, "token=")

	// Unverified accounts cannot log in even with the right password.
	_, err = s.Login(ctx, "alice@example.com", "s3cret")
	require.ErrorIs(t, err, common.ErrorForbidden)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(t, testConfig())

	_, err := s.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = s.Register(ctx, "alice2", "alice@example.com", "other")
	require.ErrorIs(t, err, common.ErrorConflict)
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())

	_, err := s.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	token := mailToken(t, waitMail(t, mails))

	res, err := s.VerifyEmail(ctx, token)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.False(t, res.AlreadyVerified)
	require.Equal(t, "alice@example.com", res.Email)

	// The link stays clickable: a second visit reports success.
	res, err = s.VerifyEmail(ctx, token)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, res.AlreadyVerified)

	_, err = s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	s, _ := newTestAuthService(t, testConfig())

	_, err := s.VerifyEmail(context.Background(), "no-such-token")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.VerificationTokenTTL = -time.Minute
	s, mails := newTestAuthService(t, cfg)

	_, err := s.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	token := mailToken(t, waitMail(t, mails))

	_, err = s.VerifyEmail(ctx, token)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	s, mails := newTestAuthService(t, cfg)
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	resp, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, resp.RefreshToken)
	require.True(t, auth.IsTokenValidFor(resp.Token, []byte(cfg.Auth.SecretKey), "alice@example.com"))
}

func TestLoginBadCredentials(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	// Unknown address and wrong password are indistinguishable to the caller.
	_, err := s.Login(ctx, "nobody@example.com", "s3cret")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLoginRevokesPriorSessions(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	first, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = s.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, common.ErrTokenRevoked)
}

func TestRefreshRotation(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	login, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	rotated, err := s.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.Token)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The exchanged token is spent.
	_, err = s.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, common.ErrTokenRevoked)

	// The replacement works exactly once in turn.
	_, err = s.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	s, _ := newTestAuthService(t, testConfig())

	_, err := s.Refresh(context.Background(), "no-such-token")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefreshExpiredToken(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.RefreshTokenTTL = -time.Minute
	s, mails := newTestAuthService(t, cfg)
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	login, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = s.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	login, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, login.RefreshToken))

	_, err = s.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, common.ErrTokenRevoked)

	// Logout is idempotent for spent and unknown tokens alike.
	require.NoError(t, s.Logout(ctx, login.RefreshToken))
	require.NoError(t, s.Logout(ctx, "no-such-token"))
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	require.NoError(t, s.ForgotPassword(ctx, "alice@example.com"))

	msg := waitMail(t, mails)
	require.Equal(t, "alice@example.com", msg.To)
	token := mailToken(t, msg)

	require.NoError(t, s.ValidateResetToken(ctx, token))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	s, _ := newTestAuthService(t, testConfig())

	err := s.ForgotPassword(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestForgotPasswordReplacesPriorToken(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	require.NoError(t, s.ForgotPassword(ctx, "alice@example.com"))
	first := mailToken(t, waitMail(t, mails))

	require.NoError(t, s.ForgotPassword(ctx, "alice@example.com"))
	second := mailToken(t, waitMail(t, mails))
	require.NotEqual(t, first, second)

	require.ErrorIs(t, s.ValidateResetToken(ctx, first), common.ErrInvalidToken)
	require.NoError(t, s.ValidateResetToken(ctx, second))
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	require.NoError(t, s.ForgotPassword(ctx, "alice@example.com"))
	token := mailToken(t, waitMail(t, mails))

	require.NoError(t, s.ResetPassword(ctx, token, "n3w-secret"))

	_, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "alice@example.com", "n3w-secret")
	require.NoError(t, err)
}

func TestResetPasswordTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	s, mails := newTestAuthService(t, testConfig())
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	require.NoError(t, s.ForgotPassword(ctx, "alice@example.com"))
	token := mailToken(t, waitMail(t, mails))

	require.NoError(t, s.ResetPassword(ctx, token, "n3w-secret"))

	require.ErrorIs(t, s.ResetPassword(ctx, token, "other"), common.ErrTokenUsed)
	require.ErrorIs(t, s.ValidateResetToken(ctx, token), common.ErrTokenUsed)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Auth.ResetTokenTTL = -time.Minute
	s, mails := newTestAuthService(t, cfg)
	registerVerified(t, s, mails, "alice", "alice@example.com", "s3cret")

	require.NoError(t, s.ForgotPassword(ctx, "alice@example.com"))
	token := mailToken(t, waitMail(t, mails))

	require.ErrorIs(t, s.ValidateResetToken(ctx, token), common.ErrTokenExpired)
	require.ErrorIs(t, s.ResetPassword(ctx, token, "n3w-secret"), common.ErrTokenExpired)
}
