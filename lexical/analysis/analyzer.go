package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Options configures an Analyzer.
type Options struct {
	// DefaultLanguage is used when detection is unreliable.
	DefaultLanguage string

	// Stem applies the language's Snowball stemmer.
	Stem bool

	// RemoveStopwords drops the language's stopwords.
	RemoveStopwords bool

	// MinTokenLength drops shorter tokens, counted in runes.
	MinTokenLength int
}

// DefaultOptions contains the default analyzer configuration.
var DefaultOptions = Options{
	DefaultLanguage: English,
	Stem:            true,
	RemoveStopwords: true,
	MinTokenLength:  1,
}

// Analyzer normalizes, tokenizes, filters and stems text. It is safe for
// concurrent use.
type Analyzer struct {
	opts Options
}

// New creates an analyzer.
func New(optFns ...func(o *Options)) *Analyzer {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Analyzer{opts: opts}
}

// Language resolves the language to analyze text with: hint when given,
// otherwise a reliable detection, otherwise the default language.
func (a *Analyzer) Language(text, hint string) string {
	if hint != "" {
		return strings.ToLower(hint)
	}
	if d := Detect(text); d.Reliable && d.Language != "" {
		return d.Language
	}
	return a.opts.DefaultLanguage
}

// Analyze returns the index terms of text in document order. Languages
// without rules are only normalized and lowercased.
func (a *Analyzer) Analyze(text, lang string) []string {
	text = norm.NFC.String(text)
	text = cases.Lower(language.Make(lang)).String(text)

	rules, known := languages[lang]
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	out := tokens[:0]
	for _, tok := range tokens {
		if known && a.opts.RemoveStopwords && rules.stopword(tok) {
			continue
		}
		if known && a.opts.Stem {
			if stemmed, err := snowball.Stem(tok, rules.stemmer, true); err == nil && stemmed != "" {
				tok = stemmed
			}
		}
		if utf8.RuneCountInString(tok) < a.opts.MinTokenLength {
			continue
		}
		out = append(out, tok)
	}
	return out
}
