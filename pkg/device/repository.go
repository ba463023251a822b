package device

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tendant/device-idm/pkg/identity"
)

// AttributeName is the identity attribute holding a user's serialized device records.
const AttributeName = "deviceAttributes"

// RecordRepository reads and replaces a user's device record collection.
type RecordRepository interface {
	Records(ctx context.Context, userID uuid.UUID) ([]string, error)
	// SetRecords stages a full replacement of the collection.
	SetRecords(ctx context.Context, userID uuid.UUID, records []string) error
	Commit(ctx context.Context, userID uuid.UUID) error
}

// IdentityRecordRepository keeps device records in an identity attribute.
type IdentityRecordRepository struct {
	repo identity.Repository
}

// NewRecordRepository creates a RecordRepository over any identity repository.
func NewRecordRepository(repo identity.Repository) *IdentityRecordRepository {
	return &IdentityRecordRepository{repo: repo}
}

func (r *IdentityRecordRepository) Records(ctx context.Context, userID uuid.UUID) ([]string, error) {
	records, err := r.repo.GetAttribute(ctx, userID, AttributeName)
	if err != nil {
		return nil, fmt.Errorf("failed to read device records: %w", err)
	}
	return records, nil
}

func (r *IdentityRecordRepository) SetRecords(ctx context.Context, userID uuid.UUID, records []string) error {
	if err := r.repo.SetAttribute(ctx, userID, AttributeName, records); err != nil {
		return fmt.Errorf("failed to stage device records: %w", err)
	}
	return nil
}

func (r *IdentityRecordRepository) Commit(ctx context.Context, userID uuid.UUID) error {
	if err := r.repo.Commit(ctx, userID); err != nil {
		return fmt.Errorf("failed to commit device records: %w", err)
	}
	return nil
}
