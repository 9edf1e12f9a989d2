package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	ErrInvalidArtifact  = errors.New("invalid model artifact")
	ErrBadFeatureVector = errors.New("bad feature vector")
)
