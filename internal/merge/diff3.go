package merge

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// A hunk is a contiguous region of the base that one side replaced.
// Start == End describes a pure insertion before base line Start.
type hunk struct {
	Start, End int
	Text       string
	side       int // 0 = ours, 1 = theirs
}

// Merge3 performs a line-based three-way merge of ours and theirs against
// their common base. The second return value is false when the result
// contains conflict markers.
func Merge3(base, ours, theirs []byte, oursLabel, theirsLabel string) ([]byte, bool) {
	baseText := string(base)
	baseLines := splitLines(baseText)

	oursHunks := diffHunks(baseText, string(ours), 0)
	theirsHunks := diffHunks(baseText, string(theirs), 1)

	all := append(append([]hunk{}, oursHunks...), theirsHunks...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End < all[j].End
	})

	var out strings.Builder
	clean := true
	pos := 0
	i := 0
	for i < len(all) {
		// Group hunks whose base ranges overlap. A region that is a pure
		// insertion also absorbs other hunks starting at the same point.
		lo, hi := all[i].Start, all[i].End
		j := i + 1
		for j < len(all) && (all[j].Start < hi || (lo == hi && all[j].Start == hi)) {
			if all[j].End > hi {
				hi = all[j].End
			}
			j++
		}
		group := all[i:j]

		// Unchanged base lines before the region.
		out.WriteString(joinLines(baseLines, pos, lo))
		pos = hi

		oursText, oursChanged := regionText(group, 0, baseLines, lo, hi)
		theirsText, theirsChanged := regionText(group, 1, baseLines, lo, hi)

		switch {
		case !theirsChanged:
			out.WriteString(oursText)
		case !oursChanged:
			out.WriteString(theirsText)
		case oursText == theirsText:
			out.WriteString(oursText)
		default:
			clean = false
			out.WriteString("<<<<<<< " + oursLabel + "\n")
			out.WriteString(ensureNewline(oursText))
			out.WriteString("=======\n")
			out.WriteString(ensureNewline(theirsText))
			out.WriteString(">>>>>>> " + theirsLabel + "\n")
		}
		i = j
	}
	out.WriteString(joinLines(baseLines, pos, len(baseLines)))

	return []byte(out.String()), clean
}

// diffHunks computes the regions where side differs from base, expressed
// in base line coordinates.
func diffHunks(base, side string, tag int) []hunk {
	dmp := diffmatchpatch.New()
	c1, c2, lines := dmp.DiffLinesToChars(base, side)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lines)

	var hunks []hunk
	baseIdx := 0
	open := -1 // index into hunks of the hunk being grown
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			open = -1
			baseIdx += n
		case diffmatchpatch.DiffDelete:
			if open < 0 {
				hunks = append(hunks, hunk{Start: baseIdx, End: baseIdx, side: tag})
				open = len(hunks) - 1
			}
			baseIdx += n
			hunks[open].End = baseIdx
		case diffmatchpatch.DiffInsert:
			if open < 0 {
				hunks = append(hunks, hunk{Start: baseIdx, End: baseIdx, side: tag})
				open = len(hunks) - 1
			}
			hunks[open].Text += d.Text
		}
	}
	return hunks
}

// regionText reconstructs one side's content for the base region [lo, hi),
// interleaving that side's hunks with the untouched base gaps between them.
// The second return value reports whether the side changed the region.
func regionText(group []hunk, side int, baseLines []string, lo, hi int) (string, bool) {
	var b strings.Builder
	pos := lo
	changed := false
	for _, h := range group {
		if h.side != side {
			continue
		}
		changed = true
		b.WriteString(joinLines(baseLines, pos, h.Start))
		b.WriteString(h.Text)
		pos = h.End
	}
	b.WriteString(joinLines(baseLines, pos, hi))
	return b.String(), changed
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

func joinLines(lines []string, lo, hi int) string {
	var b strings.Builder
	for i := lo; i < hi && i < len(lines); i++ {
		b.WriteString(lines[i])
	}
	return b.String()
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
