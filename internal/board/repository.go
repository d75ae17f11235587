package board

import "context"

// Repository persists the whole board document. Load returns (nil, nil) when
// no document has been saved yet.
type Repository interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
