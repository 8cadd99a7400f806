package shows

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	yearPattern        = regexp.MustCompile(`\s*\(\d{4}(?:-\d{2,4})?\)`)
	codecPattern       = regexp.MustCompile(`(?i)\b(?:x264|x265|h\.?264|h\.?265|hevc|avc|10bit|8bit)\b`)
	resolutionPattern  = regexp.MustCompile(`(?i)\b(?:\d{3,4}p|4k|uhd|hd)\b`)
	seasonTokenPattern = regexp.MustCompile(`(?i)\b(?:season\s*\d{1,2}|s\d{1,2})\b`)
	dotsUnderscores    = regexp.MustCompile(`[._]+`)
)

// CleanName strips release noise from a folder or file name so it can
// serve as a show title: dot/underscore separators, years, codec and
// resolution tokens, and season markers.
func CleanName(name string) string {
	s := dotsUnderscores.ReplaceAllString(name, " ")
	s = yearPattern.ReplaceAllString(s, "")
	s = codecPattern.ReplaceAllString(s, "")
	s = resolutionPattern.ReplaceAllString(s, "")
	s = seasonTokenPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize folds a show name into a grouping key: lowercase, accents
// stripped, punctuation dropped, whitespace collapsed. Two names that
// differ only by case, accents, or stray whitespace normalize equal.
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = removeAccents(s)

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
