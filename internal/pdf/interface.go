package pdf

import (
	"context"

	"github.com/marginspect/marginspect/pkg/models"
)

type MarginSource interface {
	PageCount() int
	PageDims(pageIndex int) (models.PageDims, error)
	Extract(ctx context.Context, pageIndex int) (models.PageMargins, error)
	ExtractAll(ctx context.Context) ([]models.PageMargins, []int, error)
	Close() error
}
