package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/pos-backoffice/internal/config"
	"github.com/iliyamo/pos-backoffice/internal/database"
	"github.com/iliyamo/pos-backoffice/internal/handler"
	"github.com/iliyamo/pos-backoffice/internal/middleware"
	q "github.com/iliyamo/pos-backoffice/internal/queue"
	"github.com/iliyamo/pos-backoffice/internal/repository"
	"github.com/iliyamo/pos-backoffice/internal/router"
	"github.com/iliyamo/pos-backoffice/internal/service"
)

// The directory and the tenant live in one shared in-memory database.  The
// product tables are unqualified, so the stock handler runs with an empty
// product schema.
const schema = `
CREATE TABLE tb_USERS (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	email TEXT UNIQUE,
	admin TEXT,
	dashboard TEXT,
	ip_address TEXT,
	port TEXT,
	registered_by TEXT,
	resetToken TEXT,
	resetTokenExpiry INTEGER
);
CREATE TABLE tb_LOG (username TEXT, ip TEXT, datetime TEXT);
CREATE TABLE tb_COMPANY (COMPANY_CODE TEXT, COMPANY_NAME TEXT);
CREATE TABLE tb_SALES_DASHBOARD_VIEW (
	COMPANY_CODE TEXT, UNITNO TEXT, REPUSER TEXT,
	NETSALES REAL, CASHSALES REAL, CARDSALES REAL, CREDITSALES REAL, OTHER_PAYMENT REAL
);
CREATE TABLE tb_SALESVIEW (
	COMPANY_CODE TEXT, REPUSER TEXT, QTY REAL, AMOUNT REAL,
	DEPTCODE TEXT, DEPTNAME TEXT, CATCODE TEXT, CATNAME TEXT,
	SCATCODE TEXT, SCATNAME TEXT, VENDORCODE TEXT, VENDORNAME TEXT
);
CREATE TABLE tb_STOCKRECONCILATION_DATAENTRYTEMP (
	IDX INTEGER PRIMARY KEY AUTOINCREMENT,
	COMPANY_CODE TEXT, COUNT_STATUS TEXT, TYPE TEXT, PRODUCT_CODE TEXT, PRODUCT_NAMELONG TEXT,
	COSTPRICE REAL, UNITPRICE REAL, CUR_STOCK REAL, PHY_STOCK REAL, REPUSER TEXT
);
CREATE TABLE tb_STOCKRECONCILATION_DATAENTRY (
	IDX INTEGER PRIMARY KEY AUTOINCREMENT,
	COMPANY_CODE TEXT, COUNT_STATUS TEXT, TYPE TEXT, PRODUCT_CODE TEXT, PRODUCT_NAMELONG TEXT,
	COSTPRICE REAL, UNITPRICE REAL, CUR_STOCK REAL, PHY_STOCK REAL, REPUSER TEXT
);
CREATE TABLE tb_BARCODELINK (BARCODE TEXT, PRODUCT_CODE TEXT);
CREATE TABLE tb_PRODUCT (
	PRODUCT_CODE TEXT, PRODUCT_NAMELONG TEXT, COSTPRICE REAL, SCALEPRICE REAL, BARCODE TEXT, BARCODE2 TEXT
);
CREATE TABLE tb_STOCK (PRODUCT_CODE TEXT, COMPANY_CODE TEXT, BIN TEXT, STOCK REAL);
`

const tenantHost, tenantPort = "10.1.1.5", "3306"

type mailbox struct {
	mu    sync.Mutex
	links []string
}

func (m *mailbox) SendPasswordReset(_ context.Context, _ string, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *mailbox) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		return ""
	}
	return m.links[len(m.links)-1]
}

type events struct {
	mu  sync.Mutex
	got []q.StockFinalizedEvent
}

func (e *events) PublishStockFinalized(_ context.Context, ev q.StockFinalizedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
	return nil
}

type app struct {
	e      *echo.Echo
	db     *sqlx.DB
	broker *database.Broker
	mail   *mailbox
	events *events
}

func openShared(t *testing.T, dsn string) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	return db
}

// newApp wires the real router, middleware, services and repositories
// over sqlite.  The broker opens a fresh handle on the shared database for
// each tenant pool, so releasing a pool never closes the seed handle.
func newApp(t *testing.T) *app {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db := openShared(t, dsn)
	t.Cleanup(func() { _ = db.Close() })
	_, err := db.Exec(schema)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	broker := database.NewBroker(func(ctx context.Context, tg database.Target) (*sqlx.DB, error) {
		return openShared(t, dsn), nil
	})
	t.Cleanup(func() { _ = broker.Close() })

	a := &app{db: db, broker: broker, mail: &mailbox{}, events: &events{}}
	users := repository.NewUserRepo(db)
	targets := service.NewTenantResolver(users, nil, 0, log)
	authSvc := service.NewAuthService(users, broker, targets, a.mail, service.AuthConfig{
		Secret:       "handler-secret",
		SessionTTL:   time.Hour,
		ResetTTL:     time.Hour,
		BcryptCost:   bcrypt.MinCost,
		ResetLinkURL: "http://pos.test/reset-password?token=",
		Timeout:      5 * time.Second,
	}, log)
	reports := service.NewReportService(service.NewLocalLocker(), 10*time.Second, log)
	stock := service.NewStockService(a.events, log)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, log), authSvc,
		middleware.NewTokenBucket(config.RateLimitConfig{}, nil, log))
	tenant := router.TenantGroup(e, authSvc, middleware.Tenant(targets, broker, log))
	router.RegisterReports(tenant, handler.NewReportHandler(reports, log), middleware.NewRedisCache(config.CacheConfig{}, nil))
	router.RegisterStock(tenant, handler.NewStockHandler(stock, "", log))
	a.e = e
	return a
}

func (a *app) exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()
	_, err := a.db.Exec(query, args...)
	require.NoError(t, err)
}

type reply struct {
	code int
	body map[string]interface{}
}

func (a *app) do(t *testing.T, method, path, token string, body interface{}) reply {
	t.Helper()
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		rd = strings.NewReader(string(bs))
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	r := reply{code: rec.Code}
	_ = json.Unmarshal(rec.Body.Bytes(), &r.body)
	return r
}

// signup registers username, provisions its tenant server and logs in.
func (a *app) signup(t *testing.T, username, admin string) string {
	t.Helper()
	r := a.do(t, http.MethodPost, "/register", "", echo.Map{
		"username": username, "email": username + "@example.com", "password": "pw-" + username,
	})
	require.Equal(t, http.StatusCreated, r.code, r.body)
	a.exec(t, "UPDATE tb_USERS SET ip_address = ?, port = ?, admin = ? WHERE username = ?",
		tenantHost, tenantPort, admin, username)

	r = a.do(t, http.MethodPost, "/login", "", echo.Map{"username": username, "password": "pw-" + username, "ip": "192.168.1.20"})
	require.Equal(t, http.StatusOK, r.code, r.body)
	tok, _ := r.body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func target() database.Target {
	t, _ := database.ParseTarget(tenantHost, tenantPort)
	return t
}
