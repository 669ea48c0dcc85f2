package pricing

import "errors"

var (
	// ErrInsufficientData is returned when fewer than 2 usable price points remain.
	ErrInsufficientData = errors.New("pricing: insufficient competitor data")
	// ErrDegenerateInput is returned when prices have no variation and no line can be fit.
	ErrDegenerateInput = errors.New("pricing: insufficient price variation")
)
