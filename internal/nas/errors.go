package nas

import "github.com/pkg/errors"

var (
	// ErrShapeMismatch reports a tensor whose shape violates a construction
	// or call contract, such as a channel count not divisible by
	// PartialChannels.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrUnknownPrimitive reports an operation name outside the primitive set.
	ErrUnknownPrimitive = errors.New("unknown primitive")

	// ErrMissingCheckpoint reports that no checkpoint exists at the expected path.
	ErrMissingCheckpoint = errors.New("checkpoint not found")

	// ErrInvalidConfig reports an unusable network configuration.
	ErrInvalidConfig = errors.New("invalid network config")
)
