package common

import "errors"

// errorCodes names the sentinels that cross the HTTP boundary. The server
// puts the code in error bodies and the client turns it back into the
// sentinel, so errors.Is works on both sides.
var errorCodes = []struct {
	code string
	err  error
}{
	{"not_found", ErrorNotFound},
	{"already_exists", ErrorAlreadyExists},
	{"unauthorized", ErrorUnauthorized},
	{"forbidden", ErrForbidden},
	{"incorrect_metadata", ErrorIncorrectMetadata},
	{"invalid_token", ErrInvalidToken},
	{"token_expired", ErrTokenExpired},
	{"refresh_token_expired", ErrRefreshTokenExpired},
	{"account_rejected", ErrAccountRejected},
	{"blob_unavailable", ErrBlobUnavailable},
	{"invalid_transition", ErrInvalidTransition},
	{"escrow_missing", ErrEscrowMissing},
	{"escrow_corrupt", ErrEscrowCorrupt},
}

// CodeOf returns the wire code of the first sentinel err matches, or "".
func CodeOf(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ErrorForCode is the inverse of CodeOf. Unknown codes yield nil.
func ErrorForCode(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
