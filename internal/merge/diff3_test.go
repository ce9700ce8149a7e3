package merge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge3CleanDistinctRegions(t *testing.T) {
	base := []byte("one\ntwo\nthree\nfour\nfive\n")
	ours := []byte("ONE\ntwo\nthree\nfour\nfive\n")
	theirs := []byte("one\ntwo\nthree\nfour\nFIVE\n")

	merged, clean := Merge3(base, ours, theirs, "current", "patch")
	require.True(t, clean)
	assert.Equal(t, "ONE\ntwo\nthree\nfour\nFIVE\n", string(merged))
}

func TestMerge3OnlyOneSideChanged(t *testing.T) {
	base := []byte("a\nb\nc\n")
	ours := []byte("a\nb2\nc\n")

	merged, clean := Merge3(base, ours, base, "current", "patch")
	require.True(t, clean)
	assert.Equal(t, string(ours), string(merged))

	merged, clean = Merge3(base, base, ours, "current", "patch")
	require.True(t, clean)
	assert.Equal(t, string(ours), string(merged))
}

func TestMerge3IdenticalChanges(t *testing.T) {
	base := []byte("a\nb\nc\n")
	both := []byte("a\nB\nc\n")

	merged, clean := Merge3(base, both, both, "current", "patch")
	require.True(t, clean)
	assert.Equal(t, string(both), string(merged))
}

func TestMerge3Conflict(t *testing.T) {
	base := []byte("a\nb\nc\n")
	ours := []byte("a\nours\nc\n")
	theirs := []byte("a\ntheirs\nc\n")

	merged, clean := Merge3(base, ours, theirs, "current", "patch")
	require.False(t, clean)

	text := string(merged)
	assert.Contains(t, text, "<<<<<<< current\n")
	assert.Contains(t, text, "ours\n")
	assert.Contains(t, text, "=======\n")
	assert.Contains(t, text, "theirs\n")
	assert.Contains(t, text, ">>>>>>> patch\n")
	assert.True(t, strings.HasPrefix(text, "a\n"))
	assert.True(t, strings.HasSuffix(text, "c\n"))
}

func TestMerge3AppendsAtBothEnds(t *testing.T) {
	base := []byte("middle\n")
	ours := []byte("top\nmiddle\n")
	theirs := []byte("middle\nbottom\n")

	merged, clean := Merge3(base, ours, theirs, "current", "patch")
	require.True(t, clean)
	assert.Equal(t, "top\nmiddle\nbottom\n", string(merged))
}

func TestMerge3Deletions(t *testing.T) {
	base := []byte("a\nb\nc\nd\n")
	ours := []byte("a\nc\nd\n")
	theirs := []byte("a\nb\nc\n")

	merged, clean := Merge3(base, ours, theirs, "current", "patch")
	require.True(t, clean)
	assert.Equal(t, "a\nc\n", string(merged))
}

func TestMerge3DeleteVersusEdit(t *testing.T) {
	base := []byte("a\nb\nc\n")
	ours := []byte("a\nc\n")
	theirs := []byte("a\nb changed\nc\n")

	_, clean := Merge3(base, ours, theirs, "current", "patch")
	assert.False(t, clean)
}

func TestMerge3EmptyBase(t *testing.T) {
	ours := []byte("hello\n")
	theirs := []byte("hello\n")

	merged, clean := Merge3(nil, ours, theirs, "current", "patch")
	require.True(t, clean)
	assert.Equal(t, "hello\n", string(merged))
}

func TestMerge3NoTrailingNewlineInConflict(t *testing.T) {
	base := []byte("x")
	ours := []byte("y")
	theirs := []byte("z")

	merged, clean := Merge3(base, ours, theirs, "current", "patch")
	require.False(t, clean)
	assert.True(t, strings.HasSuffix(string(merged), ">>>>>>> patch\n"))
}
