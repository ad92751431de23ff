package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStock_JSON(t *testing.T) {
	var s Stock
	require.NoError(t, json.Unmarshal([]byte(`"N/A"`), &s))
	assert.True(t, s.Unlimited)

	require.NoError(t, json.Unmarshal([]byte(`12`), &s))
	assert.Equal(t, LimitedStock(12), s)

	require.NoError(t, json.Unmarshal([]byte(`"7"`), &s))
	assert.Equal(t, LimitedStock(7), s)

	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &s))

	out, err := json.Marshal(UnlimitedStock())
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(out))

	out, err = json.Marshal(LimitedStock(3))
	require.NoError(t, err)
	assert.Equal(t, `3`, string(out))
}

func TestStock_Allows(t *testing.T) {
	assert.True(t, UnlimitedStock().Allows(1000))
	assert.True(t, LimitedStock(2).Allows(2))
	assert.False(t, LimitedStock(2).Allows(3))
}

func TestOrder_CloneIsDeep(t *testing.T) {
	driver := "drv-1"
	o := &Order{
		ID:                "o1",
		DriverID:          &driver,
		RequestedProducts: map[string]int{"5L": 1},
		Pricing:           &Pricing{Total: 10},
	}

	c := o.Clone()
	*c.DriverID = "drv-2"
	c.RequestedProducts["5L"] = 5
	c.Pricing.Total = 99

	assert.Equal(t, "drv-1", *o.DriverID)
	assert.Equal(t, 1, o.RequestedProducts["5L"])
	assert.Equal(t, 10.0, o.Pricing.Total)
}

func TestIsFailureReason(t *testing.T) {
	assert.Len(t, FailureReasons, 15)
	assert.True(t, IsFailureReason("Vehicle breakdown"))
	assert.False(t, IsFailureReason("vehicle breakdown"))
}
