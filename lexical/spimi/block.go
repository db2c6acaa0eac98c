package spimi

import (
	"cmp"
	"maps"
	"slices"
)

// Approximate heap cost of block entries, used for the memory budget.
const (
	postingCost = 8
	termCost    = 64
	docCost     = 48
)

// block is the in-memory dictionary of one SPIMI pass. Postings reference
// documents by arrival order until the block is sorted.
type block struct {
	docs        []DocInfo
	postings    map[string][]Posting
	numPostings int
	reserved    int64
}

func newBlock() *block {
	return &block{postings: make(map[string][]Posting)}
}

func (b *block) empty() bool { return len(b.docs) == 0 }

// cost estimates the memory needed to add a document with the given term
// counts.
func (b *block) cost(id string, counts map[string]uint32) int64 {
	c := int64(docCost + len(id))
	for term := range counts {
		if _, ok := b.postings[term]; !ok {
			c += int64(termCost + len(term))
		}
		c += postingCost
	}
	return c
}

func (b *block) add(doc DocInfo, counts map[string]uint32) {
	ord := uint32(len(b.docs))
	b.docs = append(b.docs, doc)
	for term, tf := range counts {
		b.postings[term] = append(b.postings[term], Posting{Doc: ord, TF: tf})
	}
	b.numPostings += len(counts)
}

// sorted returns the block's document table ordered by id, its vocabulary
// in term order, and each term's postings remapped to the sorted table.
func (b *block) sorted() ([]DocInfo, []string, [][]Posting) {
	order := make([]int, len(b.docs))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(x, y int) int {
		return cmp.Compare(b.docs[x].ID, b.docs[y].ID)
	})

	docs := make([]DocInfo, len(b.docs))
	remap := make([]uint32, len(b.docs))
	for pos, old := range order {
		docs[pos] = b.docs[old]
		remap[old] = uint32(pos)
	}

	terms := slices.Sorted(maps.Keys(b.postings))
	lists := make([][]Posting, len(terms))
	for i, term := range terms {
		list := b.postings[term]
		for j := range list {
			list[j].Doc = remap[list[j].Doc]
		}
		slices.SortFunc(list, comparePostings)
		lists[i] = list
	}
	return docs, terms, lists
}

func comparePostings(a, b Posting) int {
	return cmp.Compare(a.Doc, b.Doc)
}
