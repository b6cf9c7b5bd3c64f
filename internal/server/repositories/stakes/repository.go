package stakes

import (
	"context"

	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, itemID string) (*models.Stake, error)
	Insert(ctx context.Context, stake models.Stake) error
	Touch(ctx context.Context, itemID string, at int64) error
	Delete(ctx context.Context, itemID string) error
	ListByHolder(ctx context.Context, holder string) ([]models.Stake, error)
	List(ctx context.Context) ([]models.Stake, error)
	Count(ctx context.Context) (uint64, error)
}
