package ros1msg

import "errors"

// errUnknownType is returned when a field or array element type cannot be
// resolved against the primitive set or the compile cache.
var errUnknownType = errors.New("ros1msg: unknown message type")
