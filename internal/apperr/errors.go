package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrWrongNetwork = errors.New("wrong network")
	ErrBusy         = errors.New("another transaction is in flight")
	ErrNotConnected = errors.New("wallet not connected")
	ErrNoSigner     = errors.New("no signing key configured")
	ErrTxFailed     = errors.New("transaction failed")
)
