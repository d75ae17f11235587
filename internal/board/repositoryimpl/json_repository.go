package repositoryimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"boardd/internal/board"
	"boardd/pkg/cerr"
	"boardd/pkg/storage"
)

// DocumentPath is where the board document lives inside storage. The web
// client persists the same logical shape to localStorage, so the file is
// plain indented JSON to keep it diffable and hand-editable.
const DocumentPath = "board/board.json"

type JSONRepository struct {
	storage storage.Storage
}

func NewJSONRepository(s storage.Storage) *JSONRepository {
	return &JSONRepository{storage: s}
}

func (r *JSONRepository) Load(ctx context.Context) (*board.Document, error) {
	data, err := r.storage.Read(ctx, DocumentPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, cerr.WrapStorageReadError("board document", err)
	}
	var doc board.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, cerr.NewError(cerr.DataLoss, "board document is corrupt", fmt.Errorf("failed to unmarshal board document: %w", err))
	}
	return &doc, nil
}

func (r *JSONRepository) Save(ctx context.Context, doc *board.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal board document: %w", err))
	}
	if err := r.storage.Write(ctx, DocumentPath, append(data, '\n')); err != nil {
		return cerr.WrapStorageWriteError("board document", err)
	}
	return nil
}
