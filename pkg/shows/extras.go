package shows

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultExtrasMarkers are the stock patterns identifying bonus
// material. They are applied case-insensitively to folder paths and
// filenames, and can be overridden in configuration.
var DefaultExtrasMarkers = []string{
	`extras?`,
	`bonus\s*features?`,
	`dvd\s*special\s*features?`,
	`featurettes?`,
	`behind\s*the\s*scenes?`,
	`bts`,
	`deleted\s*scenes?`,
	`making\s*of`,
	`blooper`,
	`gag\s*reel`,
	`commentary`,
}

// CompileMarkers compiles extras marker patterns case-insensitively.
func CompileMarkers(patterns []string) ([]*regexp.Regexp, error) {
	markers := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("extras marker %q: %w", p, err)
		}
		markers = append(markers, re)
	}
	return markers, nil
}

// MatchesAny reports whether s matches any of the compiled markers.
func MatchesAny(s string, markers []*regexp.Regexp) bool {
	for _, m := range markers {
		if m.MatchString(s) {
			return true
		}
	}
	return false
}

// extrasDirWide casts a wider net than the markers when hunting for the
// extras directory itself; folder names in the wild are messier than
// filenames.
var (
	extrasDirWide = regexp.MustCompile(`(?i)\b(extras?|bonus|featurettes?|deleted\s*scenes?|behind\s*the\s*scenes?|special\s*features?|interviews?|lost\s*interviews?|making\s*of|blooper|gag\s*reel|commentary|on[-\s]?set|dvd|alternate\s*takes?|takes?)\b`)
	nonShowDir    = regexp.MustCompile(`(?i)\b(shorts?|extras?|specials?|bonus|featurettes?|dvd|deleted\s*scenes|making\s*of|gag\s*reel|behind\s*the\s*scenes?|special\s*features?|alternate\s*takes?|takes?|lost\s*interviews?)\b`)
	qualityDir    = regexp.MustCompile(`(?i)\b(?:x264|x265|h\.264|h\.265|hevc|1080p|720p|2160p|4k|uhd|hd|web-dl|webrip|bluray|brrip)\b`)
	yearAnywhere  = regexp.MustCompile(`\s*\(?\d{4}(?:-\d{2,4})?\)?`)
)

// ShowFromExtrasPath associates a bonus file with a show by walking its
// path: find the extras-like directory, then look upward for the first
// ancestor that could plausibly be the show folder.
func ShowFromExtrasPath(path string) string {
	parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
	for i := len(parts) - 1; i > 0; i-- {
		if !extrasDirWide.MatchString(parts[i]) {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			candidate := parts[j]
			if IsSeasonFolder(candidate) || IsGenericFolder(candidate) {
				continue
			}
			if nonShowDir.MatchString(candidate) || qualityDir.MatchString(candidate) {
				continue
			}

			show := yearAnywhere.ReplaceAllString(candidate, "")
			show = dotsUnderscores.ReplaceAllString(show, " ")
			show = strings.Join(strings.Fields(show), " ")

			if show == "" || len(show) <= 1 || nonShowDir.MatchString(show) {
				continue
			}
			return show
		}
	}
	return ""
}
