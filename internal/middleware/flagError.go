package middleware

import (
	"errors"

	"github.com/palletworks/pallet/internal/errs"
	"github.com/palletworks/pallet/internal/logger"
)

// ErrLogged signals that the user already saw a full message, so the
// caller should exit non-zero without printing anything more.
var ErrLogged = errors.New("already logged")

// FlagComboError prints the usage text for a known bad invocation and
// returns ErrLogged.
func FlagComboError(code errs.Code, a ...any) error {
	msg := errs.Msg(code, a...)
	logger.LogError("%s", msg)
	return ErrLogged
}
