package imports

import "errors"

// ErrUnknownPolicy is returned by ParsePolicy for strings other than keep/report.
var ErrUnknownPolicy = errors.New("unknown import policy")
