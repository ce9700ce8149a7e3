package stack

import (
	"encoding/json"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/git"
)

const stateFileName = "stack.json"
const stateVersion = 1

// wireState is the JSON encoding of a State inside a state commit's tree
type wireState struct {
	Version    int               `json:"version"`
	Head       string            `json:"head"`
	Base       string            `json:"base"`
	Applied    []string          `json:"applied"`
	Unapplied  []string          `json:"unapplied"`
	Hidden     []string          `json:"hidden,omitempty"`
	Patches    map[string]string `json:"patches"`
	InProgress *ConflictRecord   `json:"inProgress,omitempty"`
}

// Serialize writes the state's JSON blob and wrapping tree, returning the
// tree hash. Pure with respect to refs; identical states produce identical
// trees.
func Serialize(store *git.Store, state *State) (plumbing.Hash, error) {
	wire := wireState{
		Version:    stateVersion,
		Head:       state.Head.String(),
		Base:       state.Base.String(),
		Applied:    emptyNotNil(state.Applied),
		Unapplied:  emptyNotNil(state.Unapplied),
		Hidden:     state.Hidden,
		Patches:    make(map[string]string, len(state.Patches)),
		InProgress: state.InProgress,
	}
	for name, h := range state.Patches {
		wire.Patches[name] = h.String()
	}

	data, err := json.MarshalIndent(&wire, "", "  ")
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to marshal stack state: %w", err)
	}
	data = append(data, '\n')

	blob, err := store.WriteBlob(data)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return store.WriteTree([]object.TreeEntry{
		{Name: stateFileName, Mode: filemode.Regular, Hash: blob},
	})
}

func emptyNotNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// WriteStateCommit serializes the state and wraps it in a commit whose
// parent is the previous state commit, forming the append-only history the
// undo log walks. The caller performs the ref update.
func WriteStateCommit(store *git.Store, state *State, prev plumbing.Hash, message string) (plumbing.Hash, error) {
	tree, err := Serialize(store, state)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	sig := store.DefaultSignature()
	fields := git.CommitFields{
		Tree:      tree,
		Author:    sig,
		Committer: sig,
		Message:   message + "\n",
	}
	if !prev.IsZero() {
		fields.Parents = []plumbing.Hash{prev}
	}
	return store.WriteCommit(fields)
}

// ReadStateAt decodes the state stored at a specific state commit
func ReadStateAt(store *git.Store, branch string, stateCommit plumbing.Hash) (*State, error) {
	tree, err := store.CommitTree(stateCommit)
	if err != nil {
		return nil, err
	}

	var blob plumbing.Hash
	for _, entry := range tree.Entries {
		if entry.Name == stateFileName {
			blob = entry.Hash
		}
	}
	if blob.IsZero() {
		return nil, errors.NewCorruptStackError(branch, "state commit has no "+stateFileName)
	}

	data, err := store.BlobBytes(blob)
	if err != nil {
		return nil, err
	}

	var wire wireState
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.NewCorruptStackError(branch, fmt.Sprintf("unparseable state: %v", err))
	}
	if wire.Version != stateVersion {
		return nil, errors.NewCorruptStackError(branch, fmt.Sprintf("unsupported state version %d", wire.Version))
	}

	state := &State{
		Head:       plumbing.NewHash(wire.Head),
		Base:       plumbing.NewHash(wire.Base),
		Applied:    wire.Applied,
		Unapplied:  wire.Unapplied,
		Hidden:     wire.Hidden,
		Patches:    make(map[string]plumbing.Hash, len(wire.Patches)),
		InProgress: wire.InProgress,
	}
	for name, h := range wire.Patches {
		state.Patches[name] = plumbing.NewHash(h)
	}
	return state, nil
}

// Load reads and validates the stack for a branch. A branch without a
// stack ref yields ErrNoStack; state violating the ancestry invariant
// yields ErrCorruptStack and is never auto-repaired.
func Load(store *git.Store, branch string) (*Stack, error) {
	stateCommit, err := store.Ref(StackRef(branch))
	if err != nil {
		return nil, err
	}
	if stateCommit.IsZero() {
		return nil, errors.NewNoStackError(branch)
	}

	state, err := ReadStateAt(store, branch, stateCommit)
	if err != nil {
		return nil, err
	}

	stk := &Stack{Branch: branch, StateCommit: stateCommit, State: *state}
	if err := Validate(store, stk); err != nil {
		return nil, err
	}
	return stk, nil
}

// Validate checks the invariants every loaded stack must satisfy: each
// listed patch resolves to an existing commit, no patch appears in two
// lists, and the applied patches form a linear parent chain from base to
// the recorded head.
func Validate(store *git.Store, stk *Stack) error {
	seen := make(map[string]bool)
	for _, name := range stk.AllPatches() {
		if seen[name] {
			return errors.NewCorruptStackError(stk.Branch, fmt.Sprintf("patch %s listed twice", name))
		}
		seen[name] = true

		h, ok := stk.Patches[name]
		if !ok {
			return errors.NewCorruptStackError(stk.Branch, fmt.Sprintf("patch %s has no commit", name))
		}
		if !store.HasObject(h) {
			return errors.NewCorruptStackError(stk.Branch, fmt.Sprintf("patch %s commit %s missing from store", name, h))
		}
	}
	for name := range stk.Patches {
		if !seen[name] {
			return errors.NewCorruptStackError(stk.Branch, fmt.Sprintf("patch %s not in any list", name))
		}
	}

	// Applied prefix must be a linear ancestor chain base -> head.
	expected := stk.Base
	for _, name := range stk.Applied {
		commit, err := store.Commit(stk.Patches[name])
		if err != nil {
			return errors.NewCorruptStackError(stk.Branch, fmt.Sprintf("patch %s unreadable: %v", name, err))
		}
		if commit.NumParents() == 0 || commit.ParentHashes[0] != expected {
			return errors.NewCorruptStackError(stk.Branch,
				fmt.Sprintf("applied patch %s is not parented on %s", name, expected))
		}
		expected = stk.Patches[name]
	}
	if stk.Head != expected {
		return errors.NewCorruptStackError(stk.Branch,
			fmt.Sprintf("recorded head %s does not match applied chain top %s", stk.Head, expected))
	}

	return nil
}

// Initialize creates an empty managed stack for a branch, based at the
// branch's current head.
func Initialize(store *git.Store, branch string) (*Stack, error) {
	existing, err := store.Ref(StackRef(branch))
	if err != nil {
		return nil, err
	}
	if !existing.IsZero() {
		return nil, errors.NewInvalidOperationError("branch %s already has a patch stack", branch)
	}

	head, err := store.Ref(BranchRef(branch))
	if err != nil {
		return nil, err
	}
	if head.IsZero() {
		return nil, errors.NewInvalidOperationError("branch %s does not exist", branch)
	}

	state := State{
		Head:    head,
		Base:    head,
		Patches: make(map[string]plumbing.Hash),
	}
	stateCommit, err := WriteStateCommit(store, &state, plumbing.ZeroHash, "initialize")
	if err != nil {
		return nil, err
	}
	if err := store.UpdateRef(StackRef(branch), plumbing.ZeroHash, stateCommit); err != nil {
		return nil, err
	}

	return &Stack{Branch: branch, StateCommit: stateCommit, State: state}, nil
}
