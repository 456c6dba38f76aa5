// Package feedback collects per-dish ratings for a settled bill.
package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
)

type Dish struct {
	MenuItemID string
	Name       string
}

// Rating is one customer's verdict on a dish.
type Rating struct {
	Stars    int
	Comments string
}

// Dishes lists the distinct dishes of a bill in the order they were billed.
func Dishes(b models.Bill) ([]Dish, error) {
	lines, err := models.DecodeLines(b.ItemsJSON)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(lines))
	var dishes []Dish
	for _, l := range lines {
		if l.ItemID == "" || seen[l.ItemID] {
			continue
		}
		seen[l.ItemID] = true
		dishes = append(dishes, Dish{MenuItemID: l.ItemID, Name: l.Name})
	}
	return dishes, nil
}

// Submit stores a rating for every dish of the bill. When any dish lacks a
// rating between 1 and 5 nothing is stored and the error names those dishes.
func Submit(ctx context.Context, s store.MenuStore, b models.Bill, ratings map[string]Rating) error {
	dishes, err := Dishes(b)
	if err != nil {
		return err
	}

	var missing []string
	for _, d := range dishes {
		r, ok := ratings[d.MenuItemID]
		if !ok || r.Stars < 1 || r.Stars > 5 {
			missing = append(missing, d.Name)
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("rating", fmt.Sprintf("Please rate: %s", strings.Join(missing, ", ")))
	}

	for _, d := range dishes {
		r := ratings[d.MenuItemID]
		err := s.SubmitDishFeedback(ctx, models.DishFeedback{
			BillID:     b.ID,
			MenuItemID: d.MenuItemID,
			Rating:     r.Stars,
			Comments:   strings.TrimSpace(r.Comments),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
