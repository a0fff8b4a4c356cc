package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkDestroyed_Idempotent(t *testing.T) {
	d := NewDestruction()

	added, blocks := d.MarkDestroyed("Bob", Head)
	assert.True(t, added)
	assert.True(t, blocks)
	once := d.All()

	added, blocks = d.MarkDestroyed("Bob", Head)
	assert.False(t, added)
	assert.False(t, blocks)
	assert.Equal(t, once, d.All())
	assert.True(t, d.IsDestroyed("Bob", Head))
	assert.False(t, d.IsDestroyed("Bob", Chest))
	assert.False(t, d.IsDestroyed("Alice", Head))
}

func TestMarkDestroyed_LocalUnitNeverBlocks(t *testing.T) {
	d := NewDestruction()
	d.SetLocal("Alice", "Knight")

	added, blocks := d.MarkDestroyed("Knight", LeftArm)
	assert.True(t, added)
	assert.False(t, blocks)
	assert.False(t, d.Blocked(LeftArm))
	assert.True(t, d.IsDestroyed("Knight", LeftArm))

	_, blocks = d.MarkDestroyed("Orc", LeftArm)
	assert.True(t, blocks)
	assert.True(t, d.Blocked(LeftArm))
}

func TestMarkEvent_FallsBackToPlayerName(t *testing.T) {
	d := NewDestruction()
	d.SetLocal("Alice", "")

	added, blocks := d.MarkEvent("Alice", "", Head)
	assert.True(t, added)
	assert.False(t, blocks)
	assert.False(t, d.Blocked(Head))

	added, blocks = d.MarkEvent("Bob", "", Head)
	assert.True(t, added)
	assert.True(t, blocks)
	assert.True(t, d.Blocked(Head))

	added, _ = d.MarkEvent("Bob", "", Head)
	assert.False(t, added)
}

func TestBlocked_LateLocalIdentity(t *testing.T) {
	d := NewDestruction()
	d.MarkDestroyed("Knight", Chest)
	assert.True(t, d.Blocked(Chest))

	// Once INIT says Knight is ours, its parts stop blocking selection.
	d.SetLocal("Alice", "Knight")
	assert.False(t, d.Blocked(Chest))
}

func TestParseBodyPart(t *testing.T) {
	assert.Equal(t, LeftLeg, ParseBodyPart(" left_leg "))
	assert.Equal(t, BodyPart("TORSO"), ParseBodyPart("torso"))
}
