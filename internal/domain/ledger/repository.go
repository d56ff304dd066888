package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DuplicatePostError reports that a journal with the same natural dedup key
// already exists. The post is reported, not retried, and never applied a
// second time.
type DuplicatePostError struct {
	DedupKey string
}

// Error implements the error interface
func (e *DuplicatePostError) Error() string {
	return fmt.Sprintf("journal already posted for %s", e.DedupKey)
}

// Repository posts validated journal payloads. Post is idempotent on the
// payload's dedup key: a second post of the same event returns
// DuplicatePostError and writes nothing.
type Repository interface {
	Post(ctx context.Context, payload *Payload) error
	FindByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) ([]*Payload, error)
}
