package cart

import (
	"context"

	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type persistJob struct {
	seq       uint64
	cartID    string
	itemsJSON string
	total     decimal.Decimal
}

// snapshotLocked must be called with e.mu held.
func (e *Engine) snapshotLocked() (persistJob, error) {
	raw, err := models.EncodeLines(e.lines)
	if err != nil {
		return persistJob{}, err
	}
	e.seq++
	return persistJob{seq: e.seq, cartID: e.cartID, itemsJSON: raw, total: e.total}, nil
}

func (e *Engine) persistAsync(ctx context.Context, job persistJob) {
	ctx = context.WithoutCancel(ctx)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		if err := e.persist(ctx, job); err != nil {
			e.notifier.Notify(notify.Notice{
				Level:   notify.LevelError,
				Title:   "Error",
				Message: "Failed to save cart: " + err.Error(),
				Err:     err,
			})
		}
	}()
}

// persist writes job unless a newer snapshot of this engine was already sent.
func (e *Engine) persist(ctx context.Context, job persistJob) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	if job.seq <= e.attempted {
		return nil
	}
	e.attempted = job.seq

	var ifVersion int64
	if e.policy == VersionCheck {
		e.mu.Lock()
		ifVersion = e.version
		e.mu.Unlock()
	}

	version, err := e.store.UpdateCart(ctx, models.CartUpdate{
		CartID:    job.cartID,
		ItemsJSON: job.itemsJSON,
		Total:     job.total,
		IfVersion: ifVersion,
	})
	if err != nil {
		e.logger.Error("Failed to save cart", zap.String("cart_id", job.cartID), zap.Error(err))
		return err
	}

	e.mu.Lock()
	e.version = version
	e.mu.Unlock()
	e.logger.Debug("Cart saved", zap.String("cart_id", job.cartID), zap.Int64("version", version))
	return nil
}

// Save writes the current cart synchronously.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.cartID == "" {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	job, err := e.snapshotLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	return e.persist(ctx, job)
}

// Flush waits until every background write started so far has finished.
func (e *Engine) Flush() {
	e.inflight.Wait()
}
