package model

import (
    "database/sql"
    "strings"
    "time"
)

// UserAccount mirrors a row of the directory table `tb_USERS`.  Role flags
// are single characters ("T" or "F") and are passed through to the session
// token unchanged because the browser client reads them as strings.
//
// Fields:
//  ID               – tb_USERS.id
//  Username         – unique login name
//  PasswordHash     – bcrypt hash
//  Email            – contact address for password resets
//  Admin, Dashboard – role flags
//  Host, Port       – tenant server recorded by support staff; both may be empty
//  RegisteredBy     – who last changed the connection target
//  ResetToken       – live password reset ticket (null when none)
//  ResetTokenExpiry – ticket expiry in Unix milliseconds
type UserAccount struct {
    ID               int64          `db:"id"`
    Username         string         `db:"username"`
    PasswordHash     string         `db:"password"`
    Email            sql.NullString `db:"email"`
    Admin            sql.NullString `db:"admin"`
    Dashboard        sql.NullString `db:"dashboard"`
    Host             sql.NullString `db:"ip_address"`
    Port             sql.NullString `db:"port"`
    RegisteredBy     sql.NullString `db:"registered_by"`
    ResetToken       sql.NullString `db:"resetToken"`
    ResetTokenExpiry sql.NullInt64  `db:"resetTokenExpiry"`
}

// IsAdmin reports whether the admin flag is set.
func (u UserAccount) IsAdmin() bool { return FlagSet(u.Admin.String) }

// ResetExpiresAt returns the ticket expiry, or the zero time when absent.
func (u UserAccount) ResetExpiresAt() time.Time {
    if !u.ResetTokenExpiry.Valid {
        return time.Time{}
    }
    return time.UnixMilli(u.ResetTokenExpiry.Int64)
}

// FlagSet interprets a T/F role flag.
func FlagSet(v string) bool { return strings.EqualFold(strings.TrimSpace(v), "T") }

// LoginLog is one row of `tb_LOG`.
type LoginLog struct {
    Username string
    Origin   string
    At       time.Time
}
