// Package stack defines the patch stack data model and its persisted
// representation. A stack revision is stored as a commit under
// refs/stax/stacks/<branch> whose tree holds the serialized state; the
// commit's parent chain is the stack's history and doubles as the undo
// log. Every patch is additionally reachable through
// refs/stax/patches/<branch>/<name> so plain git tooling can inspect it.
package stack

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Ref namespaces for persisted stack state
const (
	StackRefPrefix = "refs/stax/stacks/"
	PatchRefPrefix = "refs/stax/patches/"
	RedoRefPrefix  = "refs/stax/redo/"
)

// StackRef returns the state ref for a branch
func StackRef(branch string) string {
	return StackRefPrefix + branch
}

// PatchRef returns the patch ref for a named patch on a branch
func PatchRef(branch, name string) string {
	return PatchRefPrefix + branch + "/" + name
}

// RedoRef returns the redo pointer ref for a branch
func RedoRef(branch string) string {
	return RedoRefPrefix + branch
}

// BranchRef returns the heads ref for a branch
func BranchRef(branch string) string {
	return "refs/heads/" + branch
}

// ConflictRecord marks the patch whose merge halted a transaction. While
// present, mutating operations other than refresh and undo are refused.
type ConflictRecord struct {
	Patch string   `json:"patch"`
	Kind  string   `json:"kind"` // "push" or "pop"
	Paths []string `json:"paths,omitempty"`
}

// State is one revision of a stack: patch ordering, per-patch commits,
// and the base/head boundary commits.
type State struct {
	Head       plumbing.Hash
	Base       plumbing.Hash
	Applied    []string
	Unapplied  []string
	Hidden     []string
	Patches    map[string]plumbing.Hash
	InProgress *ConflictRecord
}

// Stack is a loaded stack: a state plus its identity in the repository
type Stack struct {
	Branch      string
	StateCommit plumbing.Hash // commit holding this state, zero before first write
	State
}

// Clone returns a deep copy; transactions mutate the copy, never the
// loaded stack.
func (s *State) Clone() State {
	c := State{
		Head:      s.Head,
		Base:      s.Base,
		Applied:   append([]string(nil), s.Applied...),
		Unapplied: append([]string(nil), s.Unapplied...),
		Hidden:    append([]string(nil), s.Hidden...),
		Patches:   make(map[string]plumbing.Hash, len(s.Patches)),
	}
	for name, h := range s.Patches {
		c.Patches[name] = h
	}
	if s.InProgress != nil {
		rec := *s.InProgress
		rec.Paths = append([]string(nil), s.InProgress.Paths...)
		c.InProgress = &rec
	}
	return c
}

// AllPatches returns every patch name in stack order: applied bottom-up,
// then unapplied, then hidden.
func (s *State) AllPatches() []string {
	all := make([]string, 0, len(s.Applied)+len(s.Unapplied)+len(s.Hidden))
	all = append(all, s.Applied...)
	all = append(all, s.Unapplied...)
	all = append(all, s.Hidden...)
	return all
}

// Has reports whether a patch with the given name exists in any list
func (s *State) Has(name string) bool {
	_, ok := s.Patches[name]
	return ok
}

// IsApplied reports whether the named patch is currently applied
func (s *State) IsApplied(name string) bool {
	return contains(s.Applied, name)
}

// IsHidden reports whether the named patch is hidden
func (s *State) IsHidden(name string) bool {
	return contains(s.Hidden, name)
}

// Top returns the topmost applied patch name, if any
func (s *State) Top() (string, bool) {
	if len(s.Applied) == 0 {
		return "", false
	}
	return s.Applied[len(s.Applied)-1], true
}

// TopCommit returns the commit of the topmost applied patch, or the base
// when nothing is applied.
func (s *State) TopCommit() plumbing.Hash {
	if name, ok := s.Top(); ok {
		return s.Patches[name]
	}
	return s.Base
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

var patchNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidatePatchName rejects names that cannot serve as ref components
func ValidatePatchName(name string) error {
	if !patchNamePattern.MatchString(name) {
		return fmt.Errorf("invalid patch name %q", name)
	}
	return nil
}

const maxDerivedNameLen = 40

// NameFromMessage derives a patch name from a commit message's first
// line. The name is lowercased, squeezed to ref-safe characters, and
// suffixed with a counter until taken reports it free.
func NameFromMessage(message string, taken func(string) bool) string {
	line := message
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(line)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
		if b.Len() >= maxDerivedNameLen {
			break
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" || ValidatePatchName(name) != nil {
		name = "patch"
	}

	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
