package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_English(t *testing.T) {
	a := New()
	assert.Equal(t, []string{"love", "song"}, a.Analyze("Love songs", English))
	assert.Equal(t, []string{"blue", "moon"}, a.Analyze("The BLUE moon!", English))
	assert.Equal(t, []string{"run", "run"}, a.Analyze("running, runs", English))
}

func TestAnalyze_NoStemming(t *testing.T) {
	a := New(func(o *Options) {
		o.Stem = false
		o.RemoveStopwords = false
	})
	assert.Equal(t, []string{"the", "songs", "of", "2024"}, a.Analyze("The songs of 2024", English))
}

func TestAnalyze_UnknownLanguage(t *testing.T) {
	a := New()
	// No rules for German: lowercase and split only.
	assert.Equal(t, []string{"die", "lieder"}, a.Analyze("Die Lieder", "de"))
}

func TestAnalyze_Normalization(t *testing.T) {
	a := New(func(o *Options) { o.Stem = false })
	// Decomposed "é" (e + U+0301) composes to the same term as precomposed.
	assert.Equal(t, []string{"caf\u00e9"}, a.Analyze("cafe\u0301", French))
}

func TestAnalyze_MinTokenLength(t *testing.T) {
	a := New(func(o *Options) {
		o.MinTokenLength = 3
		o.RemoveStopwords = false
		o.Stem = false
	})
	assert.Equal(t, []string{"abc"}, a.Analyze("a ab abc", English))
}

func TestAnalyze_Empty(t *testing.T) {
	assert.Empty(t, New().Analyze("  ...  ", English))
}

func TestLanguage(t *testing.T) {
	a := New()
	assert.Equal(t, Spanish, a.Language("anything", "ES"))
	assert.Equal(t, English, a.Language("", ""))

	text := "Dans la nuit froide, je pense encore à toi et à nos souvenirs perdus sous la pluie de Paris."
	assert.Equal(t, French, a.Language(text, ""))
}

func TestDetect(t *testing.T) {
	d := Detect("Estoy caminando por la calle bajo la lluvia pensando en ti todas las noches.")
	assert.Equal(t, Spanish, d.Language)
	assert.True(t, d.Reliable)
	assert.Greater(t, d.Confidence, 0.0)

	assert.True(t, Supported(English))
	assert.False(t, Supported("de"))
}
