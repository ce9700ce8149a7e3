package stack_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/stack"
	"stax.dev/stax/testhelpers"
)

func TestInitializeAndLoad(t *testing.T) {
	s := testhelpers.NewScene(t)

	stk := s.InitStack()
	assert.Equal(t, "main", stk.Branch)
	assert.Equal(t, stk.Base, stk.Head)
	assert.Empty(t, stk.Applied)
	assert.False(t, stk.StateCommit.IsZero())

	loaded := s.LoadStack()
	assert.Equal(t, stk.Head, loaded.Head)
	assert.Equal(t, stk.StateCommit, loaded.StateCommit)
}

func TestInitializeTwiceFails(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()

	_, err := stack.Initialize(s.Store, "main")
	assert.Error(t, err)
}

func TestInitializeMissingBranch(t *testing.T) {
	s := testhelpers.NewScene(t)

	_, err := stack.Initialize(s.Store, "no-such-branch")
	assert.Error(t, err)
}

func TestLoadWithoutStack(t *testing.T) {
	s := testhelpers.NewScene(t)

	_, err := stack.Load(s.Store, "main")
	assert.ErrorIs(t, err, errors.ErrNoStack)
}

func TestSerializeDeterministic(t *testing.T) {
	s := testhelpers.NewScene(t)
	stk := s.InitStack()

	t1, err := stack.Serialize(s.Store, &stk.State)
	require.NoError(t, err)
	t2, err := stack.Serialize(s.Store, &stk.State)
	require.NoError(t, err)
	assert.Equal(t, t1, t2)
}

func TestStateRoundTrip(t *testing.T) {
	s := testhelpers.NewScene(t)
	stk := s.InitStack()
	s.AddPatch("p1", map[string]string{"p1.txt": "p1\n"})
	s.AddPatch("p2", map[string]string{"p2.txt": "p2\n"})

	loaded := s.LoadStack()
	assert.Equal(t, []string{"p1", "p2"}, loaded.Applied)
	assert.Empty(t, loaded.Unapplied)
	assert.Len(t, loaded.Patches, 2)
	assert.Equal(t, stk.Base, loaded.Base)
	assert.Equal(t, loaded.Patches["p2"], loaded.Head)

	state, err := stack.ReadStateAt(s.Store, "main", loaded.StateCommit)
	require.NoError(t, err)
	assert.Equal(t, loaded.State, *state)
}

func TestValidateDetectsBrokenChain(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()
	s.AddPatch("p1", map[string]string{"p1.txt": "p1\n"})
	s.AddPatch("p2", map[string]string{"p2.txt": "p2\n"})

	stk := s.LoadStack()

	// Swap the applied order without rewriting commits; the parent chain
	// no longer matches.
	broken := stk.State.Clone()
	broken.Applied = []string{"p2", "p1"}
	broken.Head = broken.Patches["p1"]
	commit, err := stack.WriteStateCommit(s.Store, &broken, stk.StateCommit, "corrupt")
	require.NoError(t, err)
	require.NoError(t, s.Store.UpdateRef(stack.StackRef("main"), stk.StateCommit, commit))

	_, err = stack.Load(s.Store, "main")
	assert.ErrorIs(t, err, errors.ErrCorruptStack)
}

func TestValidateDetectsMissingPatchCommit(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()
	s.AddPatch("p1", map[string]string{"p1.txt": "p1\n"})

	stk := s.LoadStack()
	broken := stk.State.Clone()
	broken.Patches["ghost"] = plumbing.NewHash("4444444444444444444444444444444444444444")
	broken.Unapplied = append(broken.Unapplied, "ghost")
	commit, err := stack.WriteStateCommit(s.Store, &broken, stk.StateCommit, "corrupt")
	require.NoError(t, err)
	require.NoError(t, s.Store.UpdateRef(stack.StackRef("main"), stk.StateCommit, commit))

	_, err = stack.Load(s.Store, "main")
	assert.ErrorIs(t, err, errors.ErrCorruptStack)
}

func TestValidateDetectsDuplicateListing(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()
	s.AddPatch("p1", map[string]string{"p1.txt": "p1\n"})

	stk := s.LoadStack()
	broken := stk.State.Clone()
	broken.Unapplied = append(broken.Unapplied, "p1")
	commit, err := stack.WriteStateCommit(s.Store, &broken, stk.StateCommit, "corrupt")
	require.NoError(t, err)
	require.NoError(t, s.Store.UpdateRef(stack.StackRef("main"), stk.StateCommit, commit))

	_, err = stack.Load(s.Store, "main")
	assert.ErrorIs(t, err, errors.ErrCorruptStack)
}
