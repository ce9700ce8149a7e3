package engine_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/stack"
	"stax.dev/stax/testhelpers"
)

func TestRunBlocksWhileConflictPending(t *testing.T) {
	s := conflictScene(t)

	_, err := engine.Run(s.Store, "main", "push p3", engine.RunOptions{}, func(tx *engine.Transaction) error {
		_, err := tx.PushPatch("p3")
		return err
	})
	require.NoError(t, err)

	_, err = engine.Run(s.Store, "main", "new", engine.RunOptions{}, func(tx *engine.Transaction) error {
		return tx.NewPatch("p4", "p4")
	})
	assert.ErrorIs(t, err, errors.ErrConflictPending)

	// AllowConflict admits the resolution path.
	_, err = engine.Run(s.Store, "main", "noop", engine.RunOptions{AllowConflict: true}, func(tx *engine.Transaction) error {
		require.NotNil(t, tx.Conflict())
		return nil
	})
	require.NoError(t, err)
}

func TestRunDetectsForeignBranchMove(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()

	// A commit made outside the stack moves the branch head away.
	s.WriteFile("outside.txt", "outside\n")
	s.CommitAll("outside commit")

	_, err := engine.Run(s.Store, "main", "new", engine.RunOptions{}, func(tx *engine.Transaction) error {
		return tx.NewPatch("p1", "p1")
	})
	assert.ErrorIs(t, err, errors.ErrCorruptStack)
	assert.Contains(t, err.Error(), "repair")
}

func TestRunOnUntrackedBranch(t *testing.T) {
	s := testhelpers.NewScene(t)

	_, err := engine.Run(s.Store, "main", "new", engine.RunOptions{}, func(tx *engine.Transaction) error {
		return tx.NewPatch("p1", "p1")
	})
	assert.ErrorIs(t, err, errors.ErrNoStack)
}

func TestRunAbortsOnCallbackError(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()
	before := s.LoadStack()

	_, err := engine.Run(s.Store, "main", "new", engine.RunOptions{}, func(tx *engine.Transaction) error {
		if err := tx.NewPatch("p1", "p1"); err != nil {
			return err
		}
		return errors.NewInvalidOperationError("boom")
	})
	require.Error(t, err)

	after := s.LoadStack()
	assert.Equal(t, before.StateCommit, after.StateCommit)
	assert.Empty(t, after.Applied)
}

func TestRepairImportsForeignCommits(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()
	s.WriteFile("fix.txt", "fix\n")
	fix := s.CommitAll("Fix the widget")
	s.WriteFile("more.txt", "more\n")
	more := s.CommitAll("More work")

	stk, imported, err := engine.Repair(s.Store, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"fix-the-widget", "more-work"}, imported)
	assert.Equal(t, []string{"fix-the-widget", "more-work"}, stk.Applied)
	assert.Equal(t, fix, stk.Patches["fix-the-widget"])
	assert.Equal(t, more, stk.Patches["more-work"])
	assert.Equal(t, more, stk.Head)

	// The repaired stack validates and operates normally again.
	loaded := s.LoadStack()
	assert.Equal(t, stk.StateCommit, loaded.StateCommit)
	s.Run("new p1", func(tx *engine.Transaction) error {
		return tx.NewPatch("p1", "p1")
	})
}

func TestRepairNothingToDo(t *testing.T) {
	s := testhelpers.NewScene(t)
	before := s.InitStack()

	stk, imported, err := engine.Repair(s.Store, "main")
	require.NoError(t, err)
	assert.Empty(t, imported)
	assert.Equal(t, before.StateCommit, stk.StateCommit)
}

func TestConcurrentRefMoveLosesCleanly(t *testing.T) {
	s := testhelpers.NewScene(t)
	s.InitStack()
	before, err := s.Store.Ref(stack.StackRef("main"))
	require.NoError(t, err)

	// Move the branch ref mid-transaction. The commit's branch CAS loses,
	// the retry observes the moved ref, and the operation fails as a
	// concurrent modification; no stack state is written either way.
	var racer plumbing.Hash
	_, err = engine.Run(s.Store, "main", "new", engine.RunOptions{}, func(tx *engine.Transaction) error {
		if racer.IsZero() {
			s.WriteFile("race.txt", "race\n")
			racer = s.CommitAll("racing commit")
		}
		return tx.NewPatch("p1", "p1")
	})
	assert.ErrorIs(t, err, errors.ErrConcurrentModification)

	after, err := s.Store.Ref(stack.StackRef("main"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	branchHead, err := s.Store.Ref(stack.BranchRef("main"))
	require.NoError(t, err)
	assert.Equal(t, racer, branchHead)
}
