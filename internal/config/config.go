package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The directory database stores user accounts and
// login logs; tenant databases are reached through the host/port recorded on
// each account and share the same credentials.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username (directory and tenants)
	DBPass          string        // database password (optional)
	DBHost          string        // directory database host
	DBPort          string        // directory database port
	DBName          string        // directory database name
	TenantDBName    string        // reporting database on each tenant server
	ProductDBName   string        // product/stock schema on each tenant server
	JWTSecret       string        // secret used to sign session tokens
	SessionTTLMin   int           // session token lifetime in minutes
	ResetTTLMin     int           // password reset ticket lifetime in minutes
	BcryptCost      int           // bcrypt cost for password hashing
	FrontendBaseURL string        // base URL used to build reset links
	CORSOrigins     []string      // allowed browser origins
	AuthTimeout     time.Duration // deadline for auth DB work
	ReportTimeout   time.Duration // deadline for a whole report pipeline run
	StagingLockTTL  time.Duration // how long a staging lock survives a crashed holder
	TargetCacheTTL  time.Duration // how long a resolved tenant target is cached
	AMQPURL         string        // RabbitMQ broker for stock events; empty disables publishing
	LogLevel        string        // logrus level name
	SMTP            SMTPConfig
}

// SMTPConfig holds the mail relay used for password reset messages.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "5000"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          envStr("DB_PORT", "3306"),
		DBName:          envStr("DB_NAME", "RTPOS_MAIN"),
		TenantDBName:    envStr("TENANT_DB_NAME", "RT_WEB"),
		ProductDBName:   envStr("PRODUCT_DB_NAME", "POSBACK_SYSTEM"),
		JWTSecret:       must("JWT_SECRET"),
		SessionTTLMin:   envInt("SESSION_TTL_MIN", 60),
		ResetTTLMin:     envInt("RESET_TTL_MIN", 60),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		FrontendBaseURL: envStr("FRONTEND_BASE_URL", "http://localhost:3000/"),
		CORSOrigins:     splitList(envStr("CORS_ORIGINS", "http://localhost:3000")),
		AuthTimeout:     envDur("AUTH_TIMEOUT", 5*time.Second),
		ReportTimeout:   envDur("REPORT_TIMEOUT", 60*time.Second),
		StagingLockTTL:  envDur("STAGING_LOCK_TTL", 2*time.Minute),
		TargetCacheTTL:  envDur("TARGET_CACHE_TTL", 5*time.Minute),
		AMQPURL:         firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		SMTP: SMTPConfig{
			Host:     envStr("SMTP_HOST", "smtp.gmail.com"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     envStr("SMTP_FROM", os.Getenv("SMTP_USER")),
		},
	}
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool { return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production") }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
