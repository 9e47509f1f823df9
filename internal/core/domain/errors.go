package domain

import (
	"errors"
	"fmt"
)

// Error kinds, one per failure class of the pipeline. Validation failures are
// recoverable (batch callers skip and report); retrieval, synthesis and store
// failures are fatal to the current call and propagate without retry.
var (
	ErrValidation = errors.New("invalid record")
	ErrRetrieval  = errors.New("retrieval failed")
	ErrSynthesis  = errors.New("synthesis failed")
	ErrStore      = errors.New("store failed")
	ErrNotFound   = errors.New("not found")
	ErrTemporary  = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
