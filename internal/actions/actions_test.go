package actions_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stax.dev/stax/internal/actions"
	"stax.dev/stax/internal/config"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/output"
	"stax.dev/stax/internal/runtime"
	"stax.dev/stax/testhelpers"
)

func newTestContext(s *testhelpers.Scene) *runtime.Context {
	splog := output.NewSplog()
	splog.SetQuiet(true)
	return &runtime.Context{
		Store:    s.Store,
		Splog:    splog,
		Config:   &config.RepoConfig{},
		RepoRoot: s.Dir,
	}
}

func readWorkFile(t *testing.T, s *testhelpers.Scene, path string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.Dir, path))
	require.NoError(t, err)
	return string(data)
}

func TestNewRefreshPushPopFlow(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	require.NoError(t, actions.InitAction(ctx))

	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p1"}))
	s.WriteFile("p1.txt", "p1\n")
	s.StageAll()
	require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))

	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p2", Message: "second patch"}))
	s.WriteFile("p2.txt", "p2\n")
	s.StageAll()
	require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))

	stk := s.LoadStack()
	assert.Equal(t, []string{"p1", "p2"}, stk.Applied)

	// The worktree tracks the stack head.
	assert.Equal(t, "p2\n", readWorkFile(t, s, "p2.txt"))

	require.NoError(t, actions.PopAction(ctx, actions.PopOptions{}))
	stk = s.LoadStack()
	assert.Equal(t, []string{"p1"}, stk.Applied)
	assert.Equal(t, []string{"p2"}, stk.Unapplied)

	// Popping checked out the shorter head; p2's file is gone.
	_, err := os.Stat(filepath.Join(s.Dir, "p2.txt"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, actions.PushAction(ctx, actions.PushOptions{All: true}))
	stk = s.LoadStack()
	assert.Equal(t, []string{"p1", "p2"}, stk.Applied)
	assert.Equal(t, "p2\n", readWorkFile(t, s, "p2.txt"))
}

func TestConflictAndResolveFlow(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	s.WriteFile("shared.txt", "one\ntwo\nthree\n")
	s.CommitAll("add shared")
	require.NoError(t, actions.InitAction(ctx))

	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p3"}))
	s.WriteFile("shared.txt", "one\ntwo\nP3\n")
	s.StageAll()
	require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))
	require.NoError(t, actions.PopAction(ctx, actions.PopOptions{}))

	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p2"}))
	s.WriteFile("shared.txt", "one\ntwo\nP2\n")
	s.StageAll()
	require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))

	// Pushing p3 collides with p2's change.
	err := actions.PushAction(ctx, actions.PushOptions{Names: []string{"p3"}})
	require.ErrorIs(t, err, errors.ErrConflict)

	stk := s.LoadStack()
	require.NotNil(t, stk.InProgress)
	assert.Equal(t, "p3", stk.InProgress.Patch)

	// The conflicted file is checked out with markers.
	content := readWorkFile(t, s, "shared.txt")
	assert.Contains(t, content, "<<<<<<<")

	// A mutating command is refused while the conflict stands.
	err = actions.NewAction(ctx, actions.NewOptions{Name: "p4"})
	assert.ErrorIs(t, err, errors.ErrConflictPending)

	// Refresh with markers still present is refused.
	err = actions.RefreshAction(ctx, actions.RefreshOptions{})
	assert.ErrorIs(t, err, errors.ErrInvalidOperation)

	// Resolve and refresh.
	s.WriteFile("shared.txt", "one\ntwo\nP2+P3\n")
	s.StageAll()
	require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))

	stk = s.LoadStack()
	assert.Nil(t, stk.InProgress)
	assert.Equal(t, []string{"p2", "p3"}, stk.Applied)

	resolved, ok := s.FileAt(s.HeadTree(), "shared.txt")
	require.True(t, ok)
	assert.Equal(t, "one\ntwo\nP2+P3\n", resolved)
}

func TestDeleteActionRepushesIncidental(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	require.NoError(t, actions.InitAction(ctx))
	for _, name := range []string{"p1", "p2"} {
		require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: name}))
		s.WriteFile(name+".txt", name+"\n")
		s.StageAll()
		require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))
	}

	require.NoError(t, actions.DeleteAction(ctx, actions.DeleteOptions{Names: []string{"p1"}, Force: true}))

	stk := s.LoadStack()
	assert.Equal(t, []string{"p2"}, stk.Applied)
	assert.False(t, stk.Has("p1"))

	_, err := os.Stat(filepath.Join(s.Dir, "p1.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "p2\n", readWorkFile(t, s, "p2.txt"))
}

func TestUndoRedoActions(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	require.NoError(t, actions.InitAction(ctx))
	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p1"}))
	s.WriteFile("p1.txt", "p1\n")
	s.StageAll()
	require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))

	require.NoError(t, actions.UndoAction(ctx))
	_, err := os.Stat(filepath.Join(s.Dir, "p1.txt"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, actions.RedoAction(ctx))
	assert.Equal(t, "p1\n", readWorkFile(t, s, "p1.txt"))
}

func TestGotoAction(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	require.NoError(t, actions.InitAction(ctx))
	for _, name := range []string{"p1", "p2", "p3"} {
		require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: name}))
		s.WriteFile(name+".txt", name+"\n")
		s.StageAll()
		require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))
	}

	require.NoError(t, actions.GotoAction(ctx, actions.GotoOptions{Name: "p1"}))
	stk := s.LoadStack()
	assert.Equal(t, []string{"p1"}, stk.Applied)
	assert.Equal(t, []string{"p2", "p3"}, stk.Unapplied)

	require.NoError(t, actions.GotoAction(ctx, actions.GotoOptions{Name: "p3"}))
	stk = s.LoadStack()
	assert.Equal(t, []string{"p1", "p2", "p3"}, stk.Applied)
}

func TestSeriesAndLogActions(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	require.NoError(t, actions.InitAction(ctx))
	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p1"}))

	assert.NoError(t, actions.SeriesAction(ctx, actions.SeriesOptions{Description: true}))
	assert.NoError(t, actions.LogAction(ctx, actions.LogOptions{}))
}

func TestRepairAction(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	require.NoError(t, actions.InitAction(ctx))
	s.WriteFile("outside.txt", "outside\n")
	s.CommitAll("Outside commit")

	// Patch commands refuse to run until the stack is repaired.
	err := actions.NewAction(ctx, actions.NewOptions{Name: "p1"})
	assert.ErrorIs(t, err, errors.ErrCorruptStack)

	require.NoError(t, actions.RepairAction(ctx))
	stk := s.LoadStack()
	assert.Equal(t, []string{"outside-commit"}, stk.Applied)

	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p1"}))
}

func TestRefreshRecordsFileDeletion(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	s.WriteFile("doomed.txt", "doomed\n")
	s.CommitAll("add doomed")
	require.NoError(t, actions.InitAction(ctx))
	require.NoError(t, actions.NewAction(ctx, actions.NewOptions{Name: "p1"}))

	s.RemoveFile("doomed.txt")
	require.NoError(t, actions.RefreshAction(ctx, actions.RefreshOptions{}))

	_, ok := s.FileAt(s.HeadTree(), "doomed.txt")
	assert.False(t, ok)

	// Popping the patch brings the file back.
	require.NoError(t, actions.PopAction(ctx, actions.PopOptions{}))
	assert.Equal(t, "doomed\n", readWorkFile(t, s, "doomed.txt"))
}

func TestInitWritesRepoConfig(t *testing.T) {
	s := testhelpers.NewScene(t)
	ctx := newTestContext(s)

	require.NoError(t, actions.InitAction(ctx))

	cfg, err := config.GetRepoConfig(s.Store.GitDir())
	require.NoError(t, err)
	require.NotNil(t, cfg.DefaultBranch)
	assert.Equal(t, "main", *cfg.DefaultBranch)
}
