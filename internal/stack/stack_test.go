package stack

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePatchName(t *testing.T) {
	valid := []string{"p1", "fix-bug", "v1.2.3", "Ab", "feature.x", "0day"}
	for _, name := range valid {
		assert.NoError(t, ValidatePatchName(name), name)
	}

	invalid := []string{"", "-leading", ".hidden", "has space", "has/slash", "has~tilde", "colon:"}
	for _, name := range invalid {
		assert.Error(t, ValidatePatchName(name), name)
	}
}

func TestNameFromMessage(t *testing.T) {
	taken := func(string) bool { return false }

	assert.Equal(t, "fix-the-parser", NameFromMessage("Fix the parser\n\nlong body\n", taken))
	assert.Equal(t, "patch", NameFromMessage("!!!", taken))
	assert.Equal(t, "patch", NameFromMessage("", taken))

	name := NameFromMessage("Add feature: handle UTF-8 input correctly and then some more words beyond the cap", taken)
	assert.LessOrEqual(t, len(name), 41)
	assert.NoError(t, ValidatePatchName(name))
}

func TestNameFromMessageUniquifies(t *testing.T) {
	existing := map[string]bool{"fix": true, "fix-2": true}
	name := NameFromMessage("fix", func(n string) bool { return existing[n] })
	assert.Equal(t, "fix-3", name)
}

func TestStateClone(t *testing.T) {
	h1 := plumbing.NewHash("1111111111111111111111111111111111111111")
	orig := State{
		Head:    h1,
		Base:    h1,
		Applied: []string{"p1"},
		Patches: map[string]plumbing.Hash{"p1": h1},
	}

	clone := orig.Clone()
	clone.Applied = append(clone.Applied, "p2")
	clone.Patches["p2"] = h1
	clone.InProgress = &ConflictRecord{Patch: "p2"}

	assert.Equal(t, []string{"p1"}, orig.Applied)
	assert.Len(t, orig.Patches, 1)
	assert.Nil(t, orig.InProgress)
}

func TestStateQueries(t *testing.T) {
	h := plumbing.NewHash("2222222222222222222222222222222222222222")
	base := plumbing.NewHash("3333333333333333333333333333333333333333")
	s := State{
		Head:      h,
		Base:      base,
		Applied:   []string{"p1", "p2"},
		Unapplied: []string{"p3"},
		Hidden:    []string{"p4"},
		Patches: map[string]plumbing.Hash{
			"p1": h, "p2": h, "p3": h, "p4": h,
		},
	}

	assert.True(t, s.Has("p1"))
	assert.True(t, s.Has("p4"))
	assert.False(t, s.Has("nope"))
	assert.True(t, s.IsApplied("p2"))
	assert.False(t, s.IsApplied("p3"))
	assert.True(t, s.IsHidden("p4"))

	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, "p2", top)
	assert.Equal(t, h, s.TopCommit())

	s.Applied = nil
	_, ok = s.Top()
	assert.False(t, ok)
	assert.Equal(t, base, s.TopCommit())

	assert.Equal(t, []string{"p3", "p4"}, s.AllPatches())
}

func TestRefNames(t *testing.T) {
	assert.Equal(t, "refs/stax/stacks/main", StackRef("main"))
	assert.Equal(t, "refs/stax/patches/main/p1", PatchRef("main", "p1"))
	assert.Equal(t, "refs/stax/redo/main", RedoRef("main"))
	assert.Equal(t, "refs/heads/main", BranchRef("main"))
}
