// Package engine implements the patch stack transaction engine. A
// transaction snapshots the loaded stack, applies a sequence of stack
// operations to an in-memory copy, and commits the result atomically:
// object writes are inert until the final compare-and-swap ref updates, so
// an interrupted transaction leaves the repository at its pre-transaction
// state. A merge conflict does not roll the transaction back; the
// conflicted tree is committed as the branch head and the offending patch
// is recorded in progress so the user can resolve it in place.
package engine
