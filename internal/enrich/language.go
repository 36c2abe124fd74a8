package enrich

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// maxLanguageSample caps how much content feeds language detection.
const maxLanguageSample = 2000

// LanguageDetector detects the language of document content. Safe for
// concurrent use; construct once per build.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

// NewLanguageDetector builds a detector over all supported languages.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{
		detector: lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
	}
}

// Detect returns a lowercase ISO 639-1 code for the content's
// language. Detection never errors: empty input and inconclusive
// detection both degrade to "".
func (d *LanguageDetector) Detect(content string) Outcome[string] {
	sample := strings.TrimSpace(content)
	if sample == "" {
		return degraded("", "empty content")
	}
	sample = sampleText(sample, maxLanguageSample)

	language, found := d.detector.DetectLanguageOf(sample)
	if !found {
		return degraded("", "detection inconclusive")
	}
	return ok(strings.ToLower(language.IsoCode639_1().String()))
}
