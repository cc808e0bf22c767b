package gate

import (
	"context"
	"io"
)

// Mirror stores an offsite copy of backup archives. Mirroring is best
// effort: a mirror failure is recorded in the job's lastResult but does
// not fail the local backup.
type Mirror interface {
	// Put stores the archive content under key. size is the number of
	// bytes that will be read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// ValidateSetup verifies the mirror is accessible and configured.
	ValidateSetup(ctx context.Context) error
}
