package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewDiscountTarget(t *testing.T) {
	target, err := NewDiscountTarget(strPtr("item-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, ItemTarget("item-1"), target)

	target, err = NewDiscountTarget(strPtr("  "), strPtr("set-1"))
	require.NoError(t, err)
	assert.Equal(t, SetTarget("set-1"), target)

	_, err = NewDiscountTarget(strPtr("item-1"), strPtr("set-1"))
	assert.ErrorIs(t, err, ErrInvalidDiscountTarget)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewDiscountTarget(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDiscountTarget)
}

func TestDiscountTargetColumns(t *testing.T) {
	itemID, setID := ItemTarget("i").Columns()
	require.NotNil(t, itemID)
	assert.Equal(t, "i", *itemID)
	assert.Nil(t, setID)

	itemID, setID = SetTarget("s").Columns()
	assert.Nil(t, itemID)
	require.NotNil(t, setID)
	assert.Equal(t, "s", *setID)
}

func TestDiscountActiveAt(t *testing.T) {
	d := Discount{IsActive: true, StartTime: MustTimeOfDay(9, 0), EndTime: MustTimeOfDay(11, 0)}
	assert.True(t, d.ActiveAt(MustTimeOfDay(10, 0)))

	d.IsActive = false
	assert.False(t, d.ActiveAt(MustTimeOfDay(10, 0)))
}

func TestValidPercentage(t *testing.T) {
	assert.True(t, ValidPercentage(decimal.Zero))
	assert.True(t, ValidPercentage(decimal.NewFromInt(100)))
	assert.False(t, ValidPercentage(decimal.NewFromInt(-1)))
	assert.False(t, ValidPercentage(decimal.RequireFromString("100.01")))
}

func TestDiscountJSONCarriesFlatTargetFields(t *testing.T) {
	d := Discount{
		ID:         "d-1",
		Target:     SetTarget("set-9"),
		Percentage: decimal.NewFromInt(15),
		StartTime:  MustTimeOfDay(12, 0),
		EndTime:    MustTimeOfDay(14, 30),
		IsActive:   true,
	}
	b, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Nil(t, out["menu_item_id"])
	assert.Equal(t, "set-9", out["set_id"])
	assert.Equal(t, "12:00", out["start_time"])
	assert.Equal(t, "14:30", out["end_time"])
	assert.Equal(t, map[string]interface{}{"type": "set", "id": "set-9"}, out["target"])
}
