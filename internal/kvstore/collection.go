package kvstore

import "context"

// Collection is the record-level API of a Table. Consumers depend on it so
// tests can substitute failing or instrumented tables.
type Collection[T any] interface {
	Add(ctx context.Context, rec T) (T, error)
	Put(ctx context.Context, rec T) (T, error)
	Get(ctx context.Context, key any) (T, bool, error)
	GetAll(ctx context.Context) ([]T, error)
	GetAllFromIndex(ctx context.Context, index string, value any, limit int) ([]T, error)
	Delete(ctx context.Context, key any) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

var _ Collection[struct{}] = (*Table[struct{}])(nil)
