package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sweepguard/internal/domain/models"
)

// PaperGateway simulates a broker against an in-memory account. Orders
// fill immediately at the requested price; floating profit only moves
// through MarkProfit, which tests and the dry-run loop drive explicitly.
type PaperGateway struct {
	mu      sync.Mutex
	balance float64
	profit  float64
	orders  []models.OrderRequest
}

func NewPaperGateway(balance float64) *PaperGateway {
	return &PaperGateway{balance: balance}
}

func (g *PaperGateway) Account(ctx context.Context) (models.AccountInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.AccountInfo{
		Balance: g.balance,
		Equity:  g.balance + g.profit,
		Profit:  g.profit,
	}, nil
}

func (g *PaperGateway) SubmitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return models.OrderResult{Status: models.OrderTimeout}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if req.Volume <= 0 {
		return models.OrderResult{
			Status:          models.OrderRejected,
			RejectionReason: "non-positive volume",
		}, fmt.Errorf("%w: non-positive volume", ErrRejected)
	}

	g.mu.Lock()
	g.orders = append(g.orders, req)
	g.mu.Unlock()

	return models.OrderResult{
		OrderID:      uuid.NewString(),
		Status:       models.OrderFilled,
		FillPrice:    req.Price,
		FilledVolume: req.Volume,
	}, nil
}

// Orders returns a copy of everything submitted so far.
func (g *PaperGateway) Orders() []models.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.OrderRequest, len(g.orders))
	copy(out, g.orders)
	return out
}

// MarkProfit sets the floating profit used for the daily-loss guard.
func (g *PaperGateway) MarkProfit(p float64) {
	g.mu.Lock()
	g.profit = p
	g.mu.Unlock()
}
