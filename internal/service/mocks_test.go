package service

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/pos-backoffice/internal/database"
	"github.com/iliyamo/pos-backoffice/internal/model"
	q "github.com/iliyamo/pos-backoffice/internal/queue"
	"github.com/iliyamo/pos-backoffice/internal/repository"
)

// MockUserStore is a testify mock of UserStore.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (model.UserAccount, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.UserAccount), args.Error(1)
}

func (m *MockUserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (model.UserAccount, error) {
	args := m.Called(ctx, username, email)
	return args.Get(0).(model.UserAccount), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, username, email, passwordHash string) error {
	args := m.Called(ctx, username, email, passwordHash)
	return args.Error(0)
}

func (m *MockUserStore) InsertLoginLog(ctx context.Context, l model.LoginLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockUserStore) SetResetTicket(ctx context.Context, username, token string, exp time.Time) error {
	args := m.Called(ctx, username, token, exp)
	return args.Error(0)
}

func (m *MockUserStore) GetByResetToken(ctx context.Context, token string) (model.UserAccount, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.UserAccount), args.Error(1)
}

func (m *MockUserStore) ConsumeResetTicket(ctx context.Context, token, passwordHash string) error {
	args := m.Called(ctx, token, passwordHash)
	return args.Error(0)
}

func (m *MockUserStore) UpdateConnectionTarget(ctx context.Context, u repository.TargetUpdate) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

// MockMailer is a testify mock of Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	args := m.Called(ctx, to, link)
	return args.Error(0)
}

// fakePools counts references per target instead of opening databases.
type fakePools struct {
	mu       sync.Mutex
	refs     map[database.Target]int
	acquired int
	fail     error
}

func newFakePools() *fakePools { return &fakePools{refs: map[database.Target]int{}} }

func (f *fakePools) Acquire(ctx context.Context, t database.Target) (*sqlx.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	if f.fail != nil {
		return nil, f.fail
	}
	f.refs[t]++
	return nil, nil
}

func (f *fakePools) Release(t database.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refs[t] > 0 {
		f.refs[t]--
	}
	return nil
}

func (f *fakePools) Refs(t database.Target) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[t]
}

// recordingPublisher keeps published events.
type recordingPublisher struct {
	events []q.StockFinalizedEvent
	err    error
}

func (p *recordingPublisher) PublishStockFinalized(_ context.Context, ev q.StockFinalizedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }
