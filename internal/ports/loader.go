package ports

import (
	"context"

	"github.com/avolkov/backsim/internal/domain"
)

// TickLoader produces trade streams from a historical source (bin
// files, database). The simulation core never reads files itself.
type TickLoader interface {
	LoadStreams(ctx context.Context) ([]*domain.TradeStream, error)
}
