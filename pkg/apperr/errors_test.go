package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "name: Customer name is required", Validation("name", "Customer name is required").Error())
	assert.Equal(t, "Cart is empty", Validation("", "Cart is empty").Error())
}

func TestStoreWrapsSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"not found", fmt.Errorf("lookup: %w", ErrNotFound), CodeNotFound},
		{"conflict", ErrConflict, CodeConflict},
		{"other", errors.New("connection reset"), CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Store("fetchCart", tt.err)
			assert.True(t, IsStore(err))
			assert.Equal(t, tt.want, CodeOf(err))
		})
	}
}

func TestStoreKeepsExistingStoreError(t *testing.T) {
	inner := NotFound("fetchTable", "table", "t1")
	assert.Same(t, inner, Store("outer", inner))
	assert.Nil(t, Store("noop", nil))
}

func TestKindHelpers(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", &DataIntegrityError{Source: "cart items", Err: errors.New("bad json")})
	assert.True(t, IsDataIntegrity(wrapped))
	assert.False(t, IsValidation(wrapped))

	st := &StateTransitionError{ItemID: "i1", From: "Pending", Action: "deliver"}
	assert.True(t, IsStateTransition(st))
	assert.Equal(t, "cannot deliver item i1 in status Pending", st.Error())
	assert.True(t, errors.Is(Conflict("updateCart", "cart", "c1"), ErrConflict))
}
