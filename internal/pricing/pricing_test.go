package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/domain"
)

func TestComputeTotals(t *testing.T) {
	testCases := []struct {
		name  string
		lines []Line
		want  Totals
	}{
		{
			name: "two lines",
			lines: []Line{
				{Name: "5L Bottle", Price: Num(5.00), Quantity: Num(2)},
				{Name: "10L Bottle", Price: Num(10.00), Quantity: Num(1)},
			},
			want: Totals{Subtotal: 20.00, VAT: 3.00, Total: 23.00},
		},
		{
			name:  "empty",
			lines: nil,
			want:  Totals{},
		},
		{
			name: "zero quantity ignored",
			lines: []Line{
				{Name: "5L Bottle", Price: Num(5.00), Quantity: Num(0)},
				{Name: "1L Bottle", Price: Num(1.50), Quantity: Num(4)},
			},
			want: Totals{Subtotal: 6.00, VAT: 0.90, Total: 6.90},
		},
		{
			name: "rounding",
			lines: []Line{
				{Name: "300ml", Price: Num(0.33), Quantity: Num(7)},
			},
			want: Totals{Subtotal: 2.31, VAT: 0.35, Total: 2.66},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(tc.lines)
			assert.InDelta(t, tc.want.Subtotal, got.Subtotal, 1e-9)
			assert.InDelta(t, tc.want.VAT, got.VAT, 1e-9)
			assert.InDelta(t, tc.want.Total, got.Total, 1e-9)
		})
	}
}

func TestComputeTotals_SkipsMalformedLines(t *testing.T) {
	var lines []Line
	raw := `[
		{"name": "5L Bottle", "price": 5, "quantity": 2},
		{"name": "Broken", "price": "abc", "quantity": 1},
		{"name": "Broken qty", "price": 3, "quantity": "two"}
	]`
	require.NoError(t, json.Unmarshal([]byte(raw), &lines))

	got := ComputeTotals(lines)
	assert.InDelta(t, 10.00, got.Subtotal, 1e-9)
	assert.InDelta(t, 1.50, got.VAT, 1e-9)
	assert.InDelta(t, 11.50, got.Total, 1e-9)
	assert.Equal(t, 2, got.Skipped)
}

func TestNumeric_JSON(t *testing.T) {
	var n Numeric
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &n))
	assert.Equal(t, Num(12.5), n)

	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &n))
	assert.False(t, n.Valid)

	require.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.False(t, n.Valid)

	out, err := json.Marshal(Numeric{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestValidateCheckout(t *testing.T) {
	assert.ErrorIs(t, ValidateCheckout(nil), ErrEmptyCart)
	assert.ErrorIs(t, ValidateCheckout([]domain.CartItem{{ProductID: "p1", Quantity: 0}}), ErrEmptyCart)
	assert.NoError(t, ValidateCheckout([]domain.CartItem{{ProductID: "p1", Quantity: 1}}))
}

func TestTotalsMatch(t *testing.T) {
	a := Totals{Subtotal: 20, VAT: 3, Total: 23}
	assert.True(t, TotalsMatch(a, Totals{Subtotal: 20.01, VAT: 3, Total: 23.01}))
	assert.False(t, TotalsMatch(a, Totals{Subtotal: 20, VAT: 3, Total: 23.05}))
}
