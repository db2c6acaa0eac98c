// Package lexical defines the document and ranking contracts of the text
// retrieval path.
//
// The spimi subpackage builds an inverted index from a Source. Rankers in
// the tfidf and bm25 subpackages score an index against free-text queries:
//
//	idx, _ := spimi.Load(ctx, store)
//	var r lexical.Ranker = tfidf.New(idx)
//	results, _ := r.TopK("blue moon", "en", 10)
package lexical
