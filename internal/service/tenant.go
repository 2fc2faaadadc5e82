package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/pos-backoffice/internal/database"
	"github.com/iliyamo/pos-backoffice/internal/model"
	"github.com/iliyamo/pos-backoffice/internal/repository"
)

// AccountLookup fetches a directory account by username.
type AccountLookup interface {
	GetByUsername(ctx context.Context, username string) (model.UserAccount, error)
}

// TenantResolver maps a username to the tenant server recorded on its
// account.  Resolved targets are cached in Redis when a client is set.
type TenantResolver struct {
	Users  AccountLookup
	Redis  *redis.Client
	TTL    time.Duration
	Prefix string
	Log    *logrus.Entry
}

// NewTenantResolver returns a resolver caching targets for ttl.  rdb may be
// nil.
func NewTenantResolver(users AccountLookup, rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *TenantResolver {
	return &TenantResolver{
		Users:  users,
		Redis:  rdb,
		TTL:    ttl,
		Prefix: "pos:target:",
		Log:    log.WithField("component", "tenant-resolver"),
	}
}

// Resolve returns the tenant target of username.  ErrUserNotFound when the
// account does not exist, ErrTenantNotProvisioned when its host or port is
// unusable.
func (r *TenantResolver) Resolve(ctx context.Context, username string) (database.Target, error) {
	if t, ok := r.cached(ctx, username); ok {
		return t, nil
	}
	u, err := r.Users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return database.Target{}, ErrUserNotFound
	}
	if err != nil {
		return database.Target{}, wrap(ErrStore, err)
	}
	t, err := database.ParseTarget(u.Host.String, u.Port.String)
	if err != nil {
		return database.Target{}, ErrTenantNotProvisioned
	}
	r.store(ctx, username, t)
	return t, nil
}

// Forget drops the cached target of username.
func (r *TenantResolver) Forget(ctx context.Context, username string) {
	if r.Redis == nil {
		return
	}
	if err := r.Redis.Del(ctx, r.Prefix+username).Err(); err != nil {
		r.Log.WithError(err).WithField("username", username).Warn("target cache delete failed")
	}
}

func (r *TenantResolver) cached(ctx context.Context, username string) (database.Target, bool) {
	if r.Redis == nil {
		return database.Target{}, false
	}
	v, err := r.Redis.Get(ctx, r.Prefix+username).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.Log.WithError(err).Warn("target cache read failed")
		}
		return database.Target{}, false
	}
	host, port, ok := strings.Cut(v, "|")
	if !ok {
		return database.Target{}, false
	}
	t, err := database.ParseTarget(host, port)
	return t, err == nil
}

func (r *TenantResolver) store(ctx context.Context, username string, t database.Target) {
	if r.Redis == nil || r.TTL <= 0 {
		return
	}
	v := t.Host + "|" + strconv.Itoa(t.Port)
	if err := r.Redis.Set(ctx, r.Prefix+username, v, r.TTL).Err(); err != nil {
		r.Log.WithError(err).Warn("target cache write failed")
	}
}
