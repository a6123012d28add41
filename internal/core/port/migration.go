package port

import "context"

type Migrator interface {
	CurrentVersion(ctx context.Context) (int, error)
	ApplyPending(ctx context.Context) error
}
