// Package bm25 ranks documents of a merged inverted index with Okapi BM25.
//
// It implements the same lexical.Ranker contract as package tfidf and is
// offered as the alternative ranking strategy for comparisons.
//
// # Parameters
//
// Defaults to the standard BM25 parameters: k1=1.2, b=0.75
package bm25
