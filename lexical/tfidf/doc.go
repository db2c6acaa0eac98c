// Package tfidf ranks documents of a merged inverted index with TF-IDF
// weighting.
//
// A document's score for a query is
//
//	sum over query terms t: qtf(t) * tf(t, d) * ln(N / df(t))
//
// where qtf is the term's multiplicity in the query. With cosine
// normalization the score is divided by the Euclidean norm of the
// document's TF-IDF vector. Every document containing at least one query
// term is a candidate, including documents that only contain terms present
// in every document and therefore score zero.
package tfidf
