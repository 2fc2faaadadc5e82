package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pos-backoffice/internal/model"
)

const userColumns = `id, username, password, email, admin, dashboard, ip_address, port, registered_by, resetToken, resetTokenExpiry`

// UserRepo reads and writes directory accounts (`tb_USERS`) and login logs.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByUsername fetches an account by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.UserAccount, error) {
	var u model.UserAccount
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM tb_USERS WHERE username = ? LIMIT 1", username)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// FindByUsernameOrEmail returns the first account whose username or email
// matches, or ErrNotFound.
func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (model.UserAccount, error) {
	var u model.UserAccount
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM tb_USERS WHERE username = ? OR email = ? ORDER BY id LIMIT 1",
		username, email)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a new account with an already hashed password.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tb_USERS (username, email, password) VALUES (?, ?, ?)",
		username, email, passwordHash)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrDuplicate
	}
	return err
}

// InsertLoginLog appends a row to tb_LOG.
func (r *UserRepo) InsertLoginLog(ctx context.Context, l model.LoginLog) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tb_LOG (username, ip, datetime) VALUES (?, ?, ?)",
		l.Username, l.Origin, l.At.Format("2006-01-02 15:04:05"))
	return err
}

// SetResetTicket stores a reset token and its expiry, replacing any
// previous ticket of the account.
func (r *UserRepo) SetResetTicket(ctx context.Context, username, token string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tb_USERS SET resetToken = ?, resetTokenExpiry = ? WHERE username = ?",
		token, exp.UnixMilli(), username)
	if err != nil {
		return err
	}
	return expectRows(res)
}

// GetByResetToken fetches the account carrying token.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (model.UserAccount, error) {
	var u model.UserAccount
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM tb_USERS WHERE resetToken = ? LIMIT 1", token)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// ConsumeResetTicket sets the new password hash and clears the ticket.  The
// update is keyed on the token so a ticket can only be consumed once.
func (r *UserRepo) ConsumeResetTicket(ctx context.Context, token, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tb_USERS SET password = ?, resetToken = NULL, resetTokenExpiry = NULL WHERE resetToken = ?",
		passwordHash, token)
	if err != nil {
		return err
	}
	return expectRows(res)
}

// TargetUpdate carries the connection fields to change.  Nil fields are left
// untouched.
type TargetUpdate struct {
	Username     string
	Host         *string
	Port         *string
	RegisteredBy string
}

// UpdateConnectionTarget rewrites the host and/or port of an account.
func (r *UserRepo) UpdateConnectionTarget(ctx context.Context, u TargetUpdate) error {
	q := "UPDATE tb_USERS SET registered_by = ?"
	args := []interface{}{u.RegisteredBy}
	if u.Host != nil {
		q += ", ip_address = ?"
		args = append(args, *u.Host)
	}
	if u.Port != nil {
		q += ", port = ?"
		args = append(args, *u.Port)
	}
	q += " WHERE username = ?"
	args = append(args, u.Username)
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return expectRows(res)
}

func expectRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
