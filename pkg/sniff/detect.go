// Package sniff inspects the raw bytes of an uploaded file to settle on a
// text encoding and field delimiter before structured parsing. Detection
// never fails: every uncertain outcome falls back to UTF-8 and comma, and
// genuinely undecodable content surfaces later as per-row parse errors.
package sniff

import (
	"strings"

	"github.com/saintfish/chardet"
)

const (
	// DefaultEncoding is used when detection is not confident enough.
	DefaultEncoding = "utf-8"
	// DefaultDelimiter is used when no candidate appears in the first line.
	DefaultDelimiter = ","

	// sampleSize bounds how many leading bytes the charset detector sees.
	sampleSize = 10 * 1024
	// confidenceThreshold is the minimum chardet confidence (0-100 scale)
	// required to accept a detected charset.
	confidenceThreshold = 70
)

// delimiterCandidates in priority order; ties resolve to the earliest.
var delimiterCandidates = []string{",", ";", "\t", "|"}

// Detection is the outcome of inspecting raw bytes.
type Detection struct {
	Encoding  string
	Delimiter string
}

// Detect runs encoding then delimiter detection over the raw bytes.
func Detect(raw []byte) Detection {
	enc := DetectEncoding(raw)
	return Detection{
		Encoding:  enc,
		Delimiter: DetectDelimiter(raw, enc),
	}
}

// DetectEncoding samples the first ~10KB and runs statistical charset
// detection. The detected charset is accepted only when confidence
// exceeds the threshold; anything else, including detector errors and
// empty input, falls back to UTF-8.
func DetectEncoding(raw []byte) string {
	sample := raw
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil || result.Confidence <= confidenceThreshold || result.Charset == "" {
		return DefaultEncoding
	}
	return strings.ToLower(result.Charset)
}

// DetectDelimiter decodes enough of the input to take the first line,
// counts each candidate delimiter on it and picks the highest count.
// All-zero counts default to comma.
func DetectDelimiter(raw []byte, encoding string) string {
	firstLine := firstLineOf(DecodeBytes(raw, encoding))

	best := DefaultDelimiter
	bestCount := 0
	for _, cand := range delimiterCandidates {
		if n := strings.Count(firstLine, cand); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

func firstLineOf(text []byte) string {
	s := string(text)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSuffix(s, "\r")
}
