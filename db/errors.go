package db

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE codes reported when a procedure cannot be called at all
const (
	codeUndefinedFunction     = pq.ErrorCode("42883")
	codeInsufficientPrivilege = pq.ErrorCode("42501")
)

// IsProcedureUnavailable reports whether err means the called procedure is
// missing or the role may not execute it. Only the SQLSTATE code is consulted.
func IsProcedureUnavailable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeUndefinedFunction || pqErr.Code == codeInsufficientPrivilege
}
