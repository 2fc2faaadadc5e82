// Package repository holds the SQL for the directory database and the
// tenant reporting database.  Sentinel errors below let services tell
// "nothing matched" apart from driver failures.
package repository

import "errors"

// ErrNotFound is returned when a lookup or single-row mutation matched no
// row.
var ErrNotFound = errors.New("not found")

// ErrNoDataFound is returned by the stock finalize transaction when there
// was nothing to move, either before the insert or at the delete.
var ErrNoDataFound = errors.New("no data found")

// ErrStaleRows is returned by the stock finalize transaction when staged
// rows it copied were removed before its delete ran.
var ErrStaleRows = errors.New("staged rows changed during finalize")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate key")
