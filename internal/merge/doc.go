// Package merge computes three-way merges of git trees. Applying a patch
// merges the patch's change (its commit versus the commit's parent) onto a
// target tree; unapplying runs the same merge with the roles reversed. A
// merge either produces a clean tree or a tree containing conflict markers
// for the colliding paths. The package reads and writes objects but never
// touches refs.
package merge
