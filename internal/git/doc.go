// Package git adapts a go-git repository into the narrow object store
// interface the stack engine needs: content-addressed reads and writes of
// blobs, trees, and commits, plus compare-and-swap ref updates. The ref
// update is the only durability boundary; object writes are inert until a
// ref points at them.
package git
