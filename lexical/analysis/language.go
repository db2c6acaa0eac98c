package analysis

import (
	"github.com/abadojack/whatlanggo"
	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/french"
	"github.com/kljensen/snowball/russian"
	"github.com/kljensen/snowball/spanish"
	"github.com/kljensen/snowball/swedish"
)

// Supported ISO 639-1 language codes.
const (
	English = "en"
	Spanish = "es"
	French  = "fr"
	Russian = "ru"
	Swedish = "sv"
)

type languageRules struct {
	detect   whatlanggo.Lang
	stemmer  string
	stopword func(string) bool
}

var languages = map[string]languageRules{
	English: {detect: whatlanggo.Eng, stemmer: "english", stopword: english.IsStopWord},
	Spanish: {detect: whatlanggo.Spa, stemmer: "spanish", stopword: spanish.IsStopWord},
	French:  {detect: whatlanggo.Fra, stemmer: "french", stopword: french.IsStopWord},
	Russian: {detect: whatlanggo.Rus, stemmer: "russian", stopword: russian.IsStopWord},
	Swedish: {detect: whatlanggo.Swe, stemmer: "swedish", stopword: swedish.IsStopWord},
}

var detectOptions = func() whatlanggo.Options {
	wl := make(map[whatlanggo.Lang]bool, len(languages))
	for _, r := range languages {
		wl[r.detect] = true
	}
	return whatlanggo.Options{Whitelist: wl}
}()

// Supported reports whether lang has stemming and stopword rules.
func Supported(lang string) bool {
	_, ok := languages[lang]
	return ok
}

// Detection is the outcome of language detection.
type Detection struct {
	Language   string
	Confidence float64
	Reliable   bool
}

// Detect identifies the language of text among the supported languages.
func Detect(text string) Detection {
	info := whatlanggo.DetectWithOptions(text, detectOptions)
	return Detection{
		Language:   info.Lang.Iso6391(),
		Confidence: info.Confidence,
		Reliable:   info.IsReliable(),
	}
}
