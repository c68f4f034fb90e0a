// Package store persists the append-only operation log.
package store

import (
	"context"

	"reelops/models"
)

// OperationStore is the operation log. Append is all-or-nothing: either every
// record of the batch is stored or none is. List returns records in the
// backend's natural order (newest first for queryable stores, append order for
// flat files).
type OperationStore interface {
	Append(ctx context.Context, records []models.OperationRecord) error
	List(ctx context.Context) ([]models.OperationRecord, error)
	Clear(ctx context.Context) error
	Close() error
}
