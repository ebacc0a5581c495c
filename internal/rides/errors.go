package rides

import "errors"

// ErrInvalidStatusFilter is returned by ListRides when the caller-supplied
// status filter is not one of domain's ride statuses.
var ErrInvalidStatusFilter = errors.New("invalid ride status filter")
