package daat

import "github.com/hupe1980/songsim/lexical/spimi"

const exhausted = ^uint32(0)

// termIterator walks a posting list in document order.
type termIterator struct {
	postings []spimi.Posting
	idx      int
	weight   WeightFunc
}

// doc returns the current document ordinal, or exhausted.
func (it *termIterator) doc() uint32 {
	if it.idx >= len(it.postings) {
		return exhausted
	}
	return it.postings[it.idx].Doc
}

func (it *termIterator) tf() uint32 {
	return it.postings[it.idx].TF
}

func (it *termIterator) next() {
	it.idx++
}
