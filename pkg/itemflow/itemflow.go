// Package itemflow is the status graph of an order item:
//
//	Pending --prepare--> Prepared --deliver--> Delivered
//	                     Prepared <--undo----- Delivered
//
// Preparing is display-only. Items carrying it may still be prepared, but no
// action leads into Preparing or back to Pending.
package itemflow

import (
	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
)

type Action string

const (
	MarkPrepared  Action = "prepare"
	MarkDelivered Action = "deliver"
	UndoDelivery  Action = "undo delivery of"
)

var edges = map[Action]map[models.ItemStatus]models.ItemStatus{
	MarkPrepared: {
		models.ItemPending:   models.ItemPrepared,
		models.ItemPreparing: models.ItemPrepared,
	},
	MarkDelivered: {
		models.ItemPrepared: models.ItemDelivered,
	},
	UndoDelivery: {
		models.ItemDelivered: models.ItemPrepared,
	},
}

// Next returns the status reached from current by a.
func Next(current models.ItemStatus, a Action) (models.ItemStatus, error) {
	if to, ok := edges[a][current]; ok {
		return to, nil
	}
	return current, &apperr.StateTransitionError{From: string(current), Action: string(a)}
}

// Apply moves item along a, leaving it untouched on error.
func Apply(item *models.OrderItem, a Action) error {
	to, err := Next(item.Status, a)
	if err != nil {
		return &apperr.StateTransitionError{ItemID: item.ID, From: string(item.Status), Action: string(a)}
	}
	item.Status = to
	return nil
}

// Allowed reports whether a can be applied to an item in status s.
func Allowed(s models.ItemStatus, a Action) bool {
	_, ok := edges[a][s]
	return ok
}
