package itemflow

import (
	"testing"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	statuses := []models.ItemStatus{models.ItemPending, models.ItemPreparing, models.ItemPrepared, models.ItemDelivered}
	legal := map[Action]map[models.ItemStatus]models.ItemStatus{
		MarkPrepared:  {models.ItemPending: models.ItemPrepared, models.ItemPreparing: models.ItemPrepared},
		MarkDelivered: {models.ItemPrepared: models.ItemDelivered},
		UndoDelivery:  {models.ItemDelivered: models.ItemPrepared},
	}

	for action, allowed := range legal {
		for _, from := range statuses {
			got, err := Next(from, action)
			if want, ok := allowed[from]; ok {
				assert.NoError(t, err, "%s from %s", action, from)
				assert.Equal(t, want, got)
				assert.True(t, Allowed(from, action))
			} else {
				assert.True(t, apperr.IsStateTransition(err), "%s from %s", action, from)
				assert.Equal(t, from, got)
				assert.False(t, Allowed(from, action))
			}
		}
	}
}

func TestNoPathBackToPending(t *testing.T) {
	for _, a := range []Action{MarkPrepared, MarkDelivered, UndoDelivery} {
		for _, from := range []models.ItemStatus{models.ItemPrepared, models.ItemDelivered} {
			to, err := Next(from, a)
			if err == nil {
				assert.NotEqual(t, models.ItemPending, to)
				assert.NotEqual(t, models.ItemPreparing, to)
			}
		}
	}
}

func TestApply(t *testing.T) {
	item := &models.OrderItem{ID: "i1", Status: models.ItemPending}

	err := Apply(item, MarkDelivered)
	assert.EqualError(t, err, "cannot deliver item i1 in status Pending")
	assert.Equal(t, models.ItemPending, item.Status)

	assert.NoError(t, Apply(item, MarkPrepared))
	assert.NoError(t, Apply(item, MarkDelivered))
	assert.NoError(t, Apply(item, UndoDelivery))
	assert.Equal(t, models.ItemPrepared, item.Status)
}
