package oracle

import "errors"

// ErrNoResponse signals a client that has nothing left to say. Call sites
// fall back to their schema-valid defaults.
var ErrNoResponse = errors.New("oracle: no response available")
