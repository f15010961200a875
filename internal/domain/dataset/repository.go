package dataset

import "context"

// Provider fetches a dataset from upstream. Season 0 requests unseasoned datasets.
type Provider interface {
	Fetch(ctx context.Context, name Name, season int) (Batch, error)
}

// Repository describes table materialization needs from use cases.
type Repository interface {
	Insert(ctx context.Context, batch Batch, table string, policy ConflictPolicy) (int, error)
	DropTable(ctx context.Context, table string) error
}
