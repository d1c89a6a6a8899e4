package diff

import (
	"html"
	"strings"
)

// Op classifies a run of words in a diff.
type Op int

const (
	OpEqual Op = iota
	OpInsert
	OpDelete
)

// Segment is one run of words sharing an operation. Markup, when non-empty,
// carries pre-rendered HTML for runs produced by the merge heuristic, where
// only a character span inside a word changed.
type Segment struct {
	Op     Op
	Words  []string
	Markup string
}

// WordDiff computes a word-granularity diff between two texts: a sequence of
// unchanged, inserted and deleted runs. Longest-common-run recursion over the
// tokenized inputs.
func WordDiff(oldText, newText string) []Segment {
	return diffWords(strings.Fields(oldText), strings.Fields(newText))
}

func diffWords(oldWords, newWords []string) []Segment {
	if len(oldWords) == 0 && len(newWords) == 0 {
		return nil
	}

	index := make(map[string][]int, len(oldWords))
	for i, w := range oldWords {
		index[w] = append(index[w], i)
	}

	var startOld, startNew, subLen int
	overlap := map[int]int{}
	for inew, w := range newWords {
		next := make(map[int]int, len(index[w]))
		for _, iold := range index[w] {
			length := overlap[iold-1] + 1
			next[iold] = length
			if length > subLen {
				subLen = length
				startOld = iold - length + 1
				startNew = inew - length + 1
			}
		}
		overlap = next
	}

	if subLen == 0 {
		segs := make([]Segment, 0, 2)
		if len(oldWords) > 0 {
			segs = append(segs, Segment{Op: OpDelete, Words: oldWords})
		}
		if len(newWords) > 0 {
			segs = append(segs, Segment{Op: OpInsert, Words: newWords})
		}
		return segs
	}

	segs := diffWords(oldWords[:startOld], newWords[:startNew])
	segs = append(segs, Segment{Op: OpEqual, Words: newWords[startNew : startNew+subLen]})
	segs = append(segs, diffWords(oldWords[startOld+subLen:], newWords[startNew+subLen:])...)
	return segs
}

// Merge collapses delete/insert pairs where a single word on one side is a
// prefix or suffix of a word on the other side, marking only the changed
// character span. A plain word diff would otherwise render "Bob" -> "Bob,"
// as a whole-word delete plus a whole-word insert.
func Merge(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for i := 0; i < len(segs); i++ {
		if i+1 < len(segs) && segs[i].Op == OpDelete && segs[i+1].Op == OpInsert {
			if merged, ok := mergePair(segs[i], segs[i+1]); ok {
				out = append(out, merged)
				i++
				continue
			}
		}
		out = append(out, segs[i])
	}
	return out
}

func mergePair(del, ins Segment) (Segment, bool) {
	if len(del.Words) == 1 {
		w := del.Words[0]
		first := ins.Words[0]
		last := ins.Words[len(ins.Words)-1]

		if first != w && strings.HasPrefix(first, w) {
			markup := html.EscapeString(w) + wrap("ins", first[len(w):])
			if len(ins.Words) > 1 {
				markup += " " + wrap("ins", strings.Join(ins.Words[1:], " "))
			}
			return Segment{Op: OpInsert, Words: ins.Words, Markup: markup}, true
		}
		if last != w && strings.HasSuffix(last, w) {
			var markup string
			if len(ins.Words) > 1 {
				markup = wrap("ins", strings.Join(ins.Words[:len(ins.Words)-1], " ")) + " "
			}
			markup += wrap("ins", last[:len(last)-len(w)]) + html.EscapeString(w)
			return Segment{Op: OpInsert, Words: ins.Words, Markup: markup}, true
		}
	}

	if len(ins.Words) == 1 {
		w := ins.Words[0]
		first := del.Words[0]
		last := del.Words[len(del.Words)-1]

		if first != w && strings.HasPrefix(first, w) {
			markup := html.EscapeString(w) + wrap("del", first[len(w):])
			if len(del.Words) > 1 {
				markup += " " + wrap("del", strings.Join(del.Words[1:], " "))
			}
			return Segment{Op: OpInsert, Words: ins.Words, Markup: markup}, true
		}
		if last != w && strings.HasSuffix(last, w) {
			var markup string
			if len(del.Words) > 1 {
				markup = wrap("del", strings.Join(del.Words[:len(del.Words)-1], " ")) + " "
			}
			markup += wrap("del", last[:len(last)-len(w)]) + html.EscapeString(w)
			return Segment{Op: OpInsert, Words: ins.Words, Markup: markup}, true
		}
	}

	return Segment{}, false
}

// MarkupFragment renders merged segments as the paragraph body handed to the
// rendering engine: plain text for unchanged runs, <ins>/<del> for the rest.
func MarkupFragment(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if seg.Markup != "" {
			parts = append(parts, seg.Markup)
			continue
		}
		text := strings.Join(seg.Words, " ")
		switch seg.Op {
		case OpEqual:
			parts = append(parts, html.EscapeString(text))
		case OpInsert:
			parts = append(parts, wrap("ins", text))
		case OpDelete:
			parts = append(parts, wrap("del", text))
		}
	}
	return strings.Join(parts, " ")
}

func wrap(tag, text string) string {
	return "<" + tag + ">" + html.EscapeString(text) + "</" + tag + ">"
}
