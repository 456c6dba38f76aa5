package feedback

import (
	"context"
	"testing"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMenuStore struct {
	mock.Mock
	store.MenuStore
}

func (m *MockMenuStore) SubmitDishFeedback(ctx context.Context, fb models.DishFeedback) error {
	return m.Called(ctx, fb).Error(0)
}

var bill = models.Bill{
	ID:        "b1",
	ItemsJSON: `[{"id":"A","name":"Dal","price":120,"quantity":1},{"id":"B","name":"Naan","price":30,"quantity":2},{"id":"A","name":"Dal","price":120,"quantity":1}]`,
}

func TestDishes(t *testing.T) {
	dishes, err := Dishes(bill)
	require.NoError(t, err)
	assert.Equal(t, []Dish{{MenuItemID: "A", Name: "Dal"}, {MenuItemID: "B", Name: "Naan"}}, dishes)

	_, err = Dishes(models.Bill{ItemsJSON: "x"})
	assert.True(t, apperr.IsDataIntegrity(err))
}

func TestSubmitRequiresEveryRating(t *testing.T) {
	m := &MockMenuStore{}
	err := Submit(context.Background(), m, bill, map[string]Rating{"A": {Stars: 5}, "B": {Stars: 0}})

	assert.EqualError(t, err, "rating: Please rate: Naan")
	m.AssertNotCalled(t, "SubmitDishFeedback", mock.Anything, mock.Anything)
}

func TestSubmit(t *testing.T) {
	m := &MockMenuStore{}
	m.On("SubmitDishFeedback", mock.Anything, mock.MatchedBy(func(fb models.DishFeedback) bool {
		return fb.BillID == "b1" && fb.Rating >= 1
	})).Return(nil)

	err := Submit(context.Background(), m, bill, map[string]Rating{
		"A": {Stars: 4, Comments: " tasty "},
		"B": {Stars: 3},
	})
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "SubmitDishFeedback", 2)
	m.AssertCalled(t, "SubmitDishFeedback", mock.Anything, models.DishFeedback{BillID: "b1", MenuItemID: "A", Rating: 4, Comments: "tasty"})
}
