package models

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/example/dinein/pkg/apperr"
	"github.com/shopspring/decimal"
)

const unnamedItem = "Unnamed Item"

// EncodeLines serializes cart lines into the items blob format.
func EncodeLines(lines []CartItem) (string, error) {
	if lines == nil {
		lines = []CartItem{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeLines parses an items blob. An empty blob is an empty list. A blob
// that is not a JSON array yields a DataIntegrityError; individual fields are
// read leniently (missing name becomes "Unnamed Item", unreadable numbers
// become zero).
func DecodeLines(raw string) ([]CartItem, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []CartItem{}, nil
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []CartItem{}, &apperr.DataIntegrityError{Source: "items", Err: err}
	}

	lines := make([]CartItem, 0, len(entries))
	for _, e := range entries {
		line := CartItem{
			ItemID:    rawString(e["id"]),
			Name:      rawString(e["name"]),
			UnitPrice: rawDecimal(e["price"]),
			Quantity:  int(rawDecimal(e["quantity"]).IntPart()),
		}
		if line.Name == "" {
			line.Name = unnamedItem
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// MergeLines folds lines with the same item id into the first occurrence,
// summing quantities, and drops lines left with no quantity. Order of first
// appearance is kept.
func MergeLines(lines []CartItem) []CartItem {
	out := make([]CartItem, 0, len(lines))
	at := make(map[string]int, len(lines))
	for _, l := range lines {
		if i, ok := at[l.ItemID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		at[l.ItemID] = len(out)
		out = append(out, l)
	}
	return slices.DeleteFunc(out, func(l CartItem) bool { return l.Quantity <= 0 })
}

// DuplicateItemID reports the first item id that appears on more than one line.
func DuplicateItemID(lines []CartItem) (string, bool) {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ItemID]; ok {
			return l.ItemID, true
		}
		seen[l.ItemID] = struct{}{}
	}
	return "", false
}

// SumLines is the sum of quantity times unit price over lines.
func SumLines(lines []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// CountUnits is the sum of quantities over lines.
func CountUnits(lines []CartItem) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func rawString(m json.RawMessage) string {
	if len(m) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return strings.Trim(string(m), `"`)
}

func rawDecimal(m json.RawMessage) decimal.Decimal {
	s := strings.Trim(strings.TrimSpace(string(m)), `"`)
	if s == "" || s == "null" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
