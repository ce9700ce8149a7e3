package git

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"

	"stax.dev/stax/internal/errors"
)

// Store wraps a go-git repository with the object store operations the
// stack engine relies on.
type Store struct {
	repo *gogit.Repository
	root string

	// identity override, applied over repository config
	identityName  string
	identityEmail string
}

// SetIdentity overrides the signature used for commits written by stax
func (s *Store) SetIdentity(name, email string) {
	s.identityName = name
	s.identityEmail = email
}

// OpenStore opens the repository containing path
func OpenStore(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	root := absPath
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &Store{repo: repo, root: root}, nil
}

// NewStore wraps an already-open repository. Used by tests that build
// repositories directly.
func NewStore(repo *gogit.Repository, root string) *Store {
	return &Store{repo: repo, root: root}
}

// Root returns the worktree root directory
func (s *Store) Root() string {
	return s.root
}

// Repo exposes the underlying go-git repository for worktree operations
func (s *Store) Repo() *gogit.Repository {
	return s.repo
}

// GitDir returns the repository's .git directory
func (s *Store) GitDir() string {
	return filepath.Join(s.root, ".git")
}

// Commit reads a commit object
func (s *Store) Commit(h plumbing.Hash) (*object.Commit, error) {
	c, err := object.GetCommit(s.repo.Storer, h)
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("read commit %s", h), err)
	}
	return c, nil
}

// Tree reads a tree object
func (s *Store) Tree(h plumbing.Hash) (*object.Tree, error) {
	t, err := object.GetTree(s.repo.Storer, h)
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("read tree %s", h), err)
	}
	return t, nil
}

// CommitTree reads the tree of a commit
func (s *Store) CommitTree(h plumbing.Hash) (*object.Tree, error) {
	c, err := s.Commit(h)
	if err != nil {
		return nil, err
	}
	return s.Tree(c.TreeHash)
}

// BlobBytes reads the full content of a blob
func (s *Store) BlobBytes(h plumbing.Hash) ([]byte, error) {
	b, err := object.GetBlob(s.repo.Storer, h)
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("read blob %s", h), err)
	}
	r, err := b.Reader()
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("open blob %s", h), err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewStoreError(fmt.Sprintf("read blob %s", h), err)
	}
	return data, nil
}

// WriteBlob writes blob content and returns its hash. Identical content
// produces an identical hash, so duplicate writes are free.
func (s *Store) WriteBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("write blob", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, errors.NewStoreError("write blob", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("write blob", err)
	}

	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("store blob", err)
	}
	return h, nil
}

// WriteTree writes a tree from the given entries. Entries are sorted into
// canonical git tree order before encoding.
func (s *Store) WriteTree(entries []object.TreeEntry) (plumbing.Hash, error) {
	sorted := make([]object.TreeEntry, len(entries))
	copy(sorted, entries)
	SortTreeEntries(sorted)

	tree := &object.Tree{Entries: sorted}
	obj := s.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("encode tree", err)
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("store tree", err)
	}
	return h, nil
}

// CommitFields holds the data needed to write a commit object
type CommitFields struct {
	Tree      plumbing.Hash
	Parents   []plumbing.Hash
	Author    object.Signature
	Committer object.Signature
	Message   string
}

// WriteCommit writes a commit object and returns its hash
func (s *Store) WriteCommit(f CommitFields) (plumbing.Hash, error) {
	commit := &object.Commit{
		Author:       f.Author,
		Committer:    f.Committer,
		Message:      f.Message,
		TreeHash:     f.Tree,
		ParentHashes: f.Parents,
	}
	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("encode commit", err)
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("store commit", err)
	}
	return h, nil
}

// Ref resolves a ref name to its hash. Returns ZeroHash with no error if
// the ref does not exist.
func (s *Store) Ref(name string) (plumbing.Hash, error) {
	ref, err := s.repo.Storer.Reference(plumbing.ReferenceName(name))
	if err == plumbing.ErrReferenceNotFound {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, errors.NewStoreError(fmt.Sprintf("read ref %s", name), err)
	}
	return ref.Hash(), nil
}

// UpdateRef performs a compare-and-swap ref update: the ref must currently
// point at old (ZeroHash meaning "must not exist") and is atomically moved
// to new (ZeroHash meaning deletion). A mismatch returns ErrRefConflict.
func (s *Store) UpdateRef(name string, old, new plumbing.Hash) error {
	refName := plumbing.ReferenceName(name)

	current, err := s.Ref(name)
	if err != nil {
		return err
	}
	if current != old {
		return fmt.Errorf("%w: %s is at %s, expected %s", errors.ErrRefConflict, name, current, old)
	}

	if new.IsZero() {
		if err := s.repo.Storer.RemoveReference(refName); err != nil {
			return errors.NewStoreError(fmt.Sprintf("delete ref %s", name), err)
		}
		return nil
	}

	newRef := plumbing.NewHashReference(refName, new)
	if old.IsZero() {
		if err := s.repo.Storer.SetReference(newRef); err != nil {
			return errors.NewStoreError(fmt.Sprintf("create ref %s", name), err)
		}
		return nil
	}

	oldRef := plumbing.NewHashReference(refName, old)
	if err := s.repo.Storer.CheckAndSetReference(newRef, oldRef); err != nil {
		if err == storage.ErrReferenceHasChanged {
			return fmt.Errorf("%w: %s changed underneath the update", errors.ErrRefConflict, name)
		}
		return errors.NewStoreError(fmt.Sprintf("update ref %s", name), err)
	}
	return nil
}

// ListRefs returns all refs under the given prefix, keyed by the name with
// the prefix stripped.
func (s *Store) ListRefs(prefix string) (map[string]plumbing.Hash, error) {
	iter, err := s.repo.Storer.IterReferences()
	if err != nil {
		return nil, errors.NewStoreError("list refs", err)
	}

	result := make(map[string]plumbing.Hash)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if strings.HasPrefix(name, prefix) {
			result[strings.TrimPrefix(name, prefix)] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("list refs", err)
	}
	return result, nil
}

// HasObject reports whether an object with the given hash exists
func (s *Store) HasObject(h plumbing.Hash) bool {
	_, err := s.repo.Storer.EncodedObject(plumbing.AnyObject, h)
	return err == nil
}

// ResolveRevision resolves a revision expression (branch, tag, hash
// prefix, HEAD~n and friends) to a commit hash.
func (s *Store) ResolveRevision(rev string) (plumbing.Hash, error) {
	h, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, errors.NewStoreError("resolve "+rev, err)
	}
	return *h, nil
}

// CurrentBranch returns the short name of the branch HEAD points at
func (s *Store) CurrentBranch() (string, error) {
	head, err := s.repo.Head()
	if err != nil {
		return "", errors.NewStoreError("read HEAD", err)
	}
	if !head.Name().IsBranch() {
		return "", errors.NewInvalidOperationError("HEAD is not on a branch")
	}
	return head.Name().Short(), nil
}

// DefaultSignature builds a signature from the repository configuration,
// falling back to a fixed identity when none is configured.
func (s *Store) DefaultSignature() object.Signature {
	sig := object.Signature{
		Name:  "stax",
		Email: "stax@localhost",
		When:  time.Now(),
	}
	if cfg, err := s.repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
		if cfg.User.Name != "" {
			sig.Name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			sig.Email = cfg.User.Email
		}
	}
	if s.identityName != "" {
		sig.Name = s.identityName
	}
	if s.identityEmail != "" {
		sig.Email = s.identityEmail
	}
	return sig
}
