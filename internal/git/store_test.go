package git_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/testhelpers"
)

func TestBlobRoundTrip(t *testing.T) {
	s := testhelpers.NewScene(t)

	hash, err := s.Store.WriteBlob([]byte("content\n"))
	require.NoError(t, err)

	data, err := s.Store.BlobBytes(hash)
	require.NoError(t, err)
	assert.Equal(t, "content\n", string(data))
}

func TestWriteBlobDeterministic(t *testing.T) {
	s := testhelpers.NewScene(t)

	h1, err := s.Store.WriteBlob([]byte("same"))
	require.NoError(t, err)
	h2, err := s.Store.WriteBlob([]byte("same"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestCommitRoundTrip(t *testing.T) {
	s := testhelpers.NewScene(t)

	tree := s.TreeWith(map[string]string{"f.txt": "x\n"})
	sig := object.Signature{Name: "a", Email: "a@b.c"}
	hash, err := s.Store.WriteCommit(git.CommitFields{
		Tree:      tree,
		Author:    sig,
		Committer: sig,
		Message:   "test commit\n",
	})
	require.NoError(t, err)

	commit, err := s.Store.Commit(hash)
	require.NoError(t, err)
	assert.Equal(t, tree, commit.TreeHash)
	assert.Equal(t, "test commit\n", commit.Message)
	assert.Equal(t, 0, commit.NumParents())
}

func TestFlattenBuildRoundTrip(t *testing.T) {
	s := testhelpers.NewScene(t)

	tree := s.TreeWith(map[string]string{
		"top.txt":        "top\n",
		"dir/nested.txt": "nested\n",
		"dir/sub/d.txt":  "deep\n",
	})

	paths, err := s.Store.FlattenTree(tree)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filemode.Regular, paths["dir/nested.txt"].Mode)

	rebuilt, err := s.Store.BuildTree(paths)
	require.NoError(t, err)
	assert.Equal(t, tree, rebuilt)
}

func TestUpdateRefCreateAndUpdate(t *testing.T) {
	s := testhelpers.NewScene(t)

	c1 := s.TreeWith(map[string]string{"a": "1\n"})
	c2 := s.TreeWith(map[string]string{"a": "2\n"})
	ref := "refs/stax/test"

	// Absent ref reads as zero.
	h, err := s.Store.Ref(ref)
	require.NoError(t, err)
	assert.True(t, h.IsZero())

	require.NoError(t, s.Store.UpdateRef(ref, plumbing.ZeroHash, c1))
	h, err = s.Store.Ref(ref)
	require.NoError(t, err)
	assert.Equal(t, c1, h)

	require.NoError(t, s.Store.UpdateRef(ref, c1, c2))
	h, _ = s.Store.Ref(ref)
	assert.Equal(t, c2, h)
}

func TestUpdateRefStaleOldValue(t *testing.T) {
	s := testhelpers.NewScene(t)

	c1 := s.TreeWith(map[string]string{"a": "1\n"})
	c2 := s.TreeWith(map[string]string{"a": "2\n"})
	ref := "refs/stax/test"
	require.NoError(t, s.Store.UpdateRef(ref, plumbing.ZeroHash, c1))

	// Wrong expected-old value is refused, ref untouched.
	err := s.Store.UpdateRef(ref, c2, c1)
	assert.ErrorIs(t, err, errors.ErrRefConflict)
	h, _ := s.Store.Ref(ref)
	assert.Equal(t, c1, h)

	// Create against an existing ref is refused too.
	err = s.Store.UpdateRef(ref, plumbing.ZeroHash, c2)
	assert.ErrorIs(t, err, errors.ErrRefConflict)
}

func TestUpdateRefDelete(t *testing.T) {
	s := testhelpers.NewScene(t)

	c1 := s.TreeWith(map[string]string{"a": "1\n"})
	ref := "refs/stax/test"
	require.NoError(t, s.Store.UpdateRef(ref, plumbing.ZeroHash, c1))
	require.NoError(t, s.Store.UpdateRef(ref, c1, plumbing.ZeroHash))

	h, err := s.Store.Ref(ref)
	require.NoError(t, err)
	assert.True(t, h.IsZero())
}

func TestListRefs(t *testing.T) {
	s := testhelpers.NewScene(t)

	c1 := s.TreeWith(map[string]string{"a": "1\n"})
	require.NoError(t, s.Store.UpdateRef("refs/stax/patches/main/p1", plumbing.ZeroHash, c1))
	require.NoError(t, s.Store.UpdateRef("refs/stax/patches/main/p2", plumbing.ZeroHash, c1))
	require.NoError(t, s.Store.UpdateRef("refs/stax/other", plumbing.ZeroHash, c1))

	refs, err := s.Store.ListRefs("refs/stax/patches/")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
	assert.Equal(t, c1, refs["main/p1"])
	assert.Equal(t, c1, refs["main/p2"])
}

func TestCurrentBranch(t *testing.T) {
	s := testhelpers.NewScene(t)

	branch, err := s.Store.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestLockExcludes(t *testing.T) {
	s := testhelpers.NewScene(t)

	lock, err := s.Store.AcquireLock()
	require.NoError(t, err)

	_, err = s.Store.AcquireLock()
	assert.ErrorIs(t, err, errors.ErrLockHeld)

	require.NoError(t, lock.Release())
	lock2, err := s.Store.AcquireLock()
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}
