package blend

import "errors"

// Sentinel kinds for blending errors. Callers distinguish them with
// errors.Is so a presentation layer can render an actionable message.
var (
	ErrInsufficientInput = errors.New("no valid qualifying entries")
	ErrInference         = errors.New("model inference failed")
)
