package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/duel-client/internal/protocol"
)

func unit(id int64, name string, hp, hpMax int64, deflect int) protocol.UnitSnapshot {
	return protocol.UnitSnapshot{PlayerID: id, DisplayName: name, UnitName: name + "-unit", HP: hp, HPMax: hpMax, DeflectionCurrent: deflect}
}

func TestReconcile_FirstSeenWinsAndStaysPut(t *testing.T) {
	r := NewReconciler()

	// Bob shows up alone first, so he takes slot 1 even though Alice comes first later.
	r.Reconcile([]protocol.UnitSnapshot{unit(2, "Bob", 100, 100, 2)})
	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 3), unit(2, "Bob", 90, 100, 2)})

	sequence := [][]protocol.UnitSnapshot{
		{unit(1, "Alice", 70, 100, 3)},
		{unit(2, "Bob", 50, 100, 1), unit(1, "Alice", 60, 100, 2)},
		{unit(1, "Alice", 40, 100, 2), unit(2, "Bob", 30, 100, 1)},
	}
	for _, units := range sequence {
		r.Reconcile(units)

		bob, ok := r.SlotOf(2)
		require.True(t, ok)
		assert.Equal(t, 1, bob)

		alice, ok := r.SlotOf(1)
		require.True(t, ok)
		assert.Equal(t, 2, alice)
	}
}

func TestReconcile_OnlyTouchedSlotsChange(t *testing.T) {
	r := NewReconciler()
	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 3), unit(2, "Bob", 100, 100, 2)})

	changed, dropped := r.Reconcile([]protocol.UnitSnapshot{unit(2, "Bob", 10, 100, 2)})
	require.Len(t, changed, 1)
	assert.Empty(t, dropped)
	assert.Equal(t, 2, changed[0].Slot)

	// Alice is absent from the last frame but her slot is not implicitly cleared.
	alice := r.View(1)
	assert.False(t, alice.Empty)
	assert.Equal(t, "Alice", alice.DisplayName)
}

func TestReconcile_ThirdPlayerDropped(t *testing.T) {
	r := NewReconciler()
	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 3), unit(2, "Bob", 100, 100, 2)})

	changed, dropped := r.Reconcile([]protocol.UnitSnapshot{unit(3, "Eve", 100, 100, 1)})
	assert.Empty(t, changed)
	require.Len(t, dropped, 1)
	assert.Equal(t, int64(3), dropped[0].PlayerID)
}

func TestReconcile_DeflectionCapacityFixedUntilCleared(t *testing.T) {
	r := NewReconciler()

	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 3)})
	v := r.View(1)
	assert.Equal(t, 3, v.DeflectionCapacity)
	assert.Equal(t, 3, v.DeflectionActive)

	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 1)})
	v = r.View(1)
	assert.Equal(t, 3, v.DeflectionCapacity)
	assert.Equal(t, 1, v.DeflectionActive)

	// Out of range values are clamped into the fixed capacity.
	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 7)})
	assert.Equal(t, 3, r.View(1).DeflectionActive)
	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, -2)})
	assert.Equal(t, 0, r.View(1).DeflectionActive)

	changed, _ := r.Reconcile(nil)
	require.Len(t, changed, 2)
	assert.True(t, changed[0].Empty)
	assert.Equal(t, WaitingImage, changed[0].ImagePath)
	assert.Equal(t, 0, changed[0].DeflectionCapacity)

	// After clearing the next observation sets the capacity again.
	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 5)})
	assert.Equal(t, 5, r.View(1).DeflectionCapacity)

	slot, ok := r.SlotOf(1)
	require.True(t, ok)
	assert.Equal(t, 1, slot, "ownership survives clearing")
}

func TestReconcile_ClearedSlotsArePlaceholders(t *testing.T) {
	r := NewReconciler()
	changed, _ := r.Reconcile([]protocol.UnitSnapshot{})
	require.Len(t, changed, 2)
	assert.Equal(t, "Waiting for your unit…", changed[0].DisplayName)
	assert.Equal(t, "Waiting for opponent…", changed[1].DisplayName)
	assert.Zero(t, changed[1].HealthRatio)
}

func TestReconcile_SlotByName(t *testing.T) {
	r := NewReconciler()
	r.Reconcile([]protocol.UnitSnapshot{unit(1, "Alice", 100, 100, 3), unit(2, "Bob", 100, 100, 2)})

	slot, ok := r.SlotByName("Bob")
	require.True(t, ok)
	assert.Equal(t, 2, slot)

	_, ok = r.SlotByName("Eve")
	assert.False(t, ok)

	r.Reconcile(nil)
	_, ok = r.SlotByName("Bob")
	assert.False(t, ok, "cleared slots do not match names")
}

func TestHealthRatio(t *testing.T) {
	cases := []struct {
		name      string
		hp, hpMax int64
		want      float64
	}{
		{"half", 50, 100, 0.5},
		{"full", 100, 100, 1},
		{"over max", 150, 100, 1},
		{"negative", -10, 100, 0},
		{"zero max", 10, 0, 0},
		{"negative max", 10, -5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, HealthRatio(tc.hp, tc.hpMax), 1e-9)
		})
	}
}
