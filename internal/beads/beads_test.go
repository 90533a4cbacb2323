package beads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAvailableFalseWhenNoBeadsDir(t *testing.T) {
	c := New(t.TempDir())
	assert.False(t, c.IsAvailable())
}

func TestSnapshotDiffersDetectsAddedIssue(t *testing.T) {
	assert.True(t, SnapshotDiffers([]string{"a"}, []string{"a", "b"}))
}

func TestSnapshotDiffersIgnoresOrder(t *testing.T) {
	assert.False(t, SnapshotDiffers([]string{"a", "b"}, []string{"b", "a"}))
}

func TestSnapshotDiffersFalseWhenIdentical(t *testing.T) {
	assert.False(t, SnapshotDiffers([]string{"a", "b"}, []string{"a", "b"}))
}

func TestSnapshotDiffersTrueWhenBothEmptyToEmpty(t *testing.T) {
	assert.False(t, SnapshotDiffers(nil, nil))
}
