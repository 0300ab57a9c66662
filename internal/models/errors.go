package models

import "errors"

// ErrNotFound is returned when a photo does not exist or belongs to
// another user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")
