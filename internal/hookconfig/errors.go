package hookconfig

import "errors"

// ErrConfigInvalid is the taxonomy sentinel of §7 category 2: an explicitly
// named --config path could not be resolved, or a configuration file that
// exists is malformed or violates a hook invariant. It is never returned for
// a merely absent layer file — that is a normal, silent skip (§4.2).
var ErrConfigInvalid = errors.New("config-error")
