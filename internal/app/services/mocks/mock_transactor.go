package mocks

import (
	"context"

	"github.com/yigit/schoolsphere/internal/db"
)

// InlineTransactor runs the function directly and counts calls. A non-nil
// CommitErr is returned after fn succeeds, as a failed commit would be.
type InlineTransactor struct {
	Calls     int
	CommitErr error
}

func (t *InlineTransactor) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	t.Calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return t.CommitErr
}
