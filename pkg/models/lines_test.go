package models

import (
	"testing"

	"github.com/example/dinein/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLines(t *testing.T) {
	lines := []CartItem{
		{ItemID: "a", Name: "Paneer Tikka", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		{ItemID: "b", Name: "Lassi", UnitPrice: decimal.RequireFromString("49.50"), Quantity: 1},
	}
	raw, err := EncodeLines(lines)
	require.NoError(t, err)

	got, err := DecodeLines(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Paneer Tikka", got[0].Name)
	assert.Equal(t, 2, got[0].Quantity)
	assert.True(t, got[1].UnitPrice.Equal(decimal.RequireFromString("49.5")))
	assert.True(t, SumLines(got).Equal(decimal.RequireFromString("249.5")))
	assert.Equal(t, 3, CountUnits(got))
}

func TestEncodeNilLines(t *testing.T) {
	raw, err := EncodeLines(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestMergeLines(t *testing.T) {
	lines := []CartItem{
		{ItemID: "a", Name: "Paneer Tikka", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
		{ItemID: "b", Name: "Lassi", UnitPrice: decimal.NewFromInt(50), Quantity: 0},
		{ItemID: "a", Name: "Paneer Tikka", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		{ItemID: "c", Name: "Naan", UnitPrice: decimal.NewFromInt(30), Quantity: 1},
	}

	id, dup := DuplicateItemID(lines)
	assert.True(t, dup)
	assert.Equal(t, "a", id)

	got := MergeLines(lines)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ItemID)
	assert.Equal(t, 3, got[0].Quantity)
	assert.Equal(t, "c", got[1].ItemID)
	assert.Equal(t, 1, lines[0].Quantity, "input untouched")

	_, dup = DuplicateItemID(got)
	assert.False(t, dup)
}

func TestDecodeLinesLenientFields(t *testing.T) {
	got, err := DecodeLines(`[{"id":"x","price":"abc","quantity":null},{"id":"y","name":"Dal","price":120,"quantity":"3"}]`)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Unnamed Item", got[0].Name)
	assert.True(t, got[0].UnitPrice.IsZero())
	assert.Equal(t, 0, got[0].Quantity)

	assert.Equal(t, 3, got[1].Quantity)
	assert.True(t, got[1].LineTotal().Equal(decimal.NewFromInt(360)))
}

func TestDecodeLinesCorrupted(t *testing.T) {
	got, err := DecodeLines(`{not json`)
	assert.True(t, apperr.IsDataIntegrity(err))
	assert.Empty(t, got)

	got, err = DecodeLines("  ")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestTableNameFallback(t *testing.T) {
	assert.Equal(t, "T-4", Table{ID: "1234567890", DisplayName: "T-4"}.Name())
	assert.Equal(t, "TBL-12345678", Table{ID: "1234567890"}.Name())
	assert.Equal(t, "TBL-abc", FallbackTableName("abc"))
}

func TestStatusParsing(t *testing.T) {
	_, err := ParseBillStatus("Paid")
	assert.Error(t, err)
	st, err := ParseBillStatus("Confirmed")
	assert.NoError(t, err)
	assert.Equal(t, BillConfirmed, st)

	_, err = ParseItemStatus("Cooking")
	assert.Error(t, err)
	assert.True(t, ItemPreparing.Valid())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "INR 250.00", FormatMoney(decimal.NewFromInt(250), "INR"))
	assert.Equal(t, "12.50", FormatMoney(decimal.RequireFromString("12.5"), ""))
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"guest@example.com", true},
		{"a@b.in", true},
		{"guest@example", false},
		{"guest example@x.com", false},
		{"@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidEmail(tt.in), tt.in)
	}
}
