package segment

import "github.com/simp-lee/epubcards/chunk"

// mergeSeparator joins merged chunk texts.
const mergeSeparator = "\n\n"

// mergeTiny folds short text chunks into the text chunk that follows them and
// re-indexes the result densely. slots maps every raw position, plus the
// one-past-the-end position, to the index of the chunk that now holds it.
func mergeTiny(raw []chunk.Original, opts Options) (out []chunk.Original, slots []int) {
	slots = make([]int, len(raw)+1)

	var pending chunk.Original
	hasPending := false

	emitPending := func() {
		if hasPending {
			pending.Index = len(out)
			out = append(out, pending)
			hasPending = false
		}
	}

	for i, c := range raw {
		if c.Kind == chunk.KindImage {
			emitPending()
			slots[i] = len(out)
			c.Index = len(out)
			out = append(out, c)
			continue
		}

		if hasPending && canMerge(pending, c, opts) {
			shift := len(pending.Text) + len(mergeSeparator)
			links := make([]chunk.Link, 0, len(pending.Links)+len(c.Links))
			links = append(links, pending.Links...)
			links = append(links, chunk.ShiftLinks(c.Links, shift)...)
			if len(links) == 0 {
				links = nil
			}
			pending.Text = pending.Text + mergeSeparator + c.Text
			pending.Links = links
			slots[i] = len(out)
			continue
		}

		emitPending()
		pending = c
		pending.Links = chunk.CloneLinks(c.Links)
		hasPending = true
		slots[i] = len(out)
	}
	emitPending()
	slots[len(raw)] = len(out)
	return out, slots
}

func canMerge(pending, next chunk.Original, opts Options) bool {
	if pending.Section != next.Section || pending.SourceKey != next.SourceKey || pending.Heading != next.Heading {
		return false
	}
	words := pending.Words()
	return words < opts.MergeBelow && words+next.Words() <= opts.MaxWords
}
