// Package analysis turns raw text into index terms.
//
// A document's language selects the case mapping, the stopword list and the
// Snowball stemmer. When no language is given it is detected from the text
// and restricted to the languages the analyzer can stem.
package analysis
