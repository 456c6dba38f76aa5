package cart

import (
	"slices"

	"github.com/example/dinein/pkg/models"
	"github.com/shopspring/decimal"
)

func (e *Engine) TableID() string { return e.tableID }

func (e *Engine) CartID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cartID
}

// Lines returns a copy of the current lines.
func (e *Engine) Lines() []models.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.lines)
}

func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// ItemCount is the number of units across all lines.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.CountUnits(e.lines)
}

func (e *Engine) Empty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines) == 0
}

func (e *Engine) Version() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}
