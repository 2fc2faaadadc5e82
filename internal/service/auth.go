package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/database"
	"github.com/iliyamo/pos-backoffice/internal/model"
	"github.com/iliyamo/pos-backoffice/internal/repository"
	"github.com/iliyamo/pos-backoffice/internal/utils"
)

// UserStore is the directory storage used by AuthService.
type UserStore interface {
	AccountLookup
	FindByUsernameOrEmail(ctx context.Context, username, email string) (model.UserAccount, error)
	Create(ctx context.Context, username, email, passwordHash string) error
	InsertLoginLog(ctx context.Context, l model.LoginLog) error
	SetResetTicket(ctx context.Context, username, token string, exp time.Time) error
	GetByResetToken(ctx context.Context, token string) (model.UserAccount, error)
	ConsumeResetTicket(ctx context.Context, token, passwordHash string) error
	UpdateConnectionTarget(ctx context.Context, u repository.TargetUpdate) error
}

// TenantPools opens and releases tenant pools for sessions.
type TenantPools interface {
	Acquire(ctx context.Context, t database.Target) (*sqlx.DB, error)
	Release(t database.Target) error
}

// AuthConfig holds the token and password settings of AuthService.
type AuthConfig struct {
	Secret       string
	SessionTTL   time.Duration
	ResetTTL     time.Duration
	BcryptCost   int
	ResetLinkURL string // prefix the reset token is appended to
	Timeout      time.Duration
}

// AuthService implements login, registration, password reset and session
// close against the directory database.
type AuthService struct {
	Users   UserStore
	Pools   TenantPools
	Targets *TenantResolver
	Mailer  Mailer
	Cfg     AuthConfig
	Log     *logrus.Entry

	now func() time.Time
}

// NewAuthService wires an AuthService.
func NewAuthService(users UserStore, pools TenantPools, targets *TenantResolver, mailer Mailer, cfg AuthConfig, log *logrus.Logger) *AuthService {
	return &AuthService{
		Users:   users,
		Pools:   pools,
		Targets: targets,
		Mailer:  mailer,
		Cfg:     cfg,
		Log:     log.WithField("component", "auth"),
		now:     time.Now,
	}
}

func (s *AuthService) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if s.Cfg.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.Cfg.Timeout)
}

// Login checks the credentials of username, opens its tenant pool and
// returns a session token.  origin is the client address recorded in the
// login log.
func (s *AuthService) Login(ctx context.Context, username, password, origin string) (utils.SessionToken, error) {
	if username == "" || password == "" {
		return utils.SessionToken{}, ErrCredentialsRequired
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	u, err := s.Users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.SessionToken{}, ErrInvalidCredentials
	}
	if err != nil {
		return utils.SessionToken{}, wrap(ErrStore, err)
	}
	target, err := database.ParseTarget(u.Host.String, u.Port.String)
	if err != nil {
		return utils.SessionToken{}, ErrTenantNotProvisioned
	}

	if err := s.Users.InsertLoginLog(ctx, model.LoginLog{Username: username, Origin: origin, At: s.now()}); err != nil {
		s.Log.WithError(err).WithField("username", username).Warn("login log insert failed")
	}

	if _, err := s.Pools.Acquire(ctx, target); err != nil {
		return utils.SessionToken{}, wrap(ErrConnection, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		if err := s.Pools.Release(target); err != nil {
			s.Log.WithError(err).WithField("target", target.String()).Warn("release after failed login")
		}
		return utils.SessionToken{}, ErrInvalidPassword
	}

	tok, err := utils.NewSessionToken(s.Cfg.Secret, utils.SessionClaims{
		UserID:    u.ID,
		Username:  u.Username,
		Dashboard: u.Dashboard.String,
		Email:     u.Email.String,
		Admin:     u.Admin.String,
	}, s.Cfg.SessionTTL)
	if err != nil {
		_ = s.Pools.Release(target)
		return utils.SessionToken{}, wrap(ErrStore, err)
	}
	s.Log.WithFields(logrus.Fields{"username": username, "target": target.String()}).Info("login")
	return tok, nil
}

// Register creates an account.  An existing account with the same username
// wins over one with the same email.
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return ErrRegistrationRequired
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	existing, err := s.Users.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil && existing.Username == username:
		return ErrDuplicateUsername
	case err == nil:
		return ErrDuplicateEmail
	case !errors.Is(err, repository.ErrNotFound):
		return wrap(ErrRegistration, err)
	}

	hash, err := utils.HashPassword(password, s.Cfg.BcryptCost)
	if err != nil {
		return wrap(ErrRegistration, err)
	}
	if err := s.Users.Create(ctx, username, email, hash); err != nil {
		return wrap(ErrRegistration, err)
	}
	return nil
}

// ForgotPassword stores a fresh reset ticket on the account and emails the
// reset link.  A delivery failure does not remove the stored ticket.
func (s *AuthService) ForgotPassword(ctx context.Context, username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	u, err := s.Users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return wrap(ErrStore, err)
	}
	token, err := utils.NewResetToken()
	if err != nil {
		return wrap(ErrStore, err)
	}
	if err := s.Users.SetResetTicket(ctx, username, token, s.now().Add(s.Cfg.ResetTTL)); err != nil {
		return wrap(ErrStore, err)
	}
	if err := s.Mailer.SendPasswordReset(ctx, u.Email.String, s.Cfg.ResetLinkURL+token); err != nil {
		return wrap(ErrMailDelivery, err)
	}
	return nil
}

// ResetPassword consumes a reset ticket and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrResetFieldsRequired
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	u, err := s.Users.GetByResetToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return wrap(ErrStore, err)
	}
	if !u.ResetTokenExpiry.Valid || s.now().After(u.ResetExpiresAt()) {
		return ErrResetTokenExpired
	}
	hash, err := utils.HashPassword(newPassword, s.Cfg.BcryptCost)
	if err != nil {
		return wrap(ErrStore, err)
	}
	err = s.Users.ConsumeResetTicket(ctx, token, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return wrap(ErrStore, err)
	}
	return nil
}

// VerifyToken validates a raw session token.
func (s *AuthService) VerifyToken(raw string) (*utils.SessionClaims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims, err := utils.ParseSessionToken(s.Cfg.Secret, raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CloseSession releases the tenant pool reference held by username's
// session.  Unknown or unprovisioned users are not an error.
func (s *AuthService) CloseSession(ctx context.Context, username string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	target, err := s.Targets.Resolve(ctx, username)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrTenantNotProvisioned) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Pools.Release(target); err != nil {
		s.Log.WithError(err).WithField("target", target.String()).Warn("pool close failed")
	}
	return nil
}

// ConnectionUpdate is a change to the tenant server of an account.  Empty
// Host or Port leaves that field unchanged.
type ConnectionUpdate struct {
	Name string
	Host string
	Port string
}

// ResetConnection rewrites the tenant host and/or port of the account Name
// and records actor as registered_by.
func (s *AuthService) ResetConnection(ctx context.Context, actor string, in ConnectionUpdate) error {
	name := strings.TrimSpace(in.Name)
	host := strings.TrimSpace(in.Host)
	port := strings.TrimSpace(in.Port)
	if host == "" && port == "" {
		return ErrNothingToUpdate
	}
	if name == "" {
		return ErrTargetNotFound
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	upd := repository.TargetUpdate{Username: name, RegisteredBy: actor}
	if host != "" {
		upd.Host = &host
	}
	if port != "" {
		upd.Port = &port
	}
	err := s.Users.UpdateConnectionTarget(ctx, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTargetNotFound
	}
	if err != nil {
		return wrap(ErrStore, err)
	}
	s.Targets.Forget(ctx, name)
	s.Log.WithFields(logrus.Fields{"username": name, "actor": actor}).Info("connection target updated")
	return nil
}
