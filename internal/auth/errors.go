package auth

import "errors"

// ErrInvalidToken covers every verification failure: bad signature,
// malformed payload, expired or not-yet-valid timestamps. Callers get no
// finer detail.
var ErrInvalidToken = errors.New("auth: invalid token")
