// Package shows derives show, season, and episode structure from media
// file paths, and provides name normalization and fuzzy matching for
// grouping files that belong to the same show.
package shows

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Info is the show structure parsed for one file.
type Info struct {
	Show    string
	Season  *int // 0 = specials
	Episode *int // nil when the filename carries no episode number
}

// PathInfo is the split form of a media path handed to matchers.
type PathInfo struct {
	Filename string   // base name including extension
	Stem     string   // base name without extension
	Dirs     []string // ancestor directory names, nearest first
}

// SplitPath decomposes a path for matching.
func SplitPath(path string) PathInfo {
	filename := filepath.Base(path)
	var dirs []string
	for dir := filepath.Dir(path); dir != "." && dir != "/" && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		dirs = append(dirs, filepath.Base(dir))
	}
	return PathInfo{
		Filename: filename,
		Stem:     strings.TrimSuffix(filename, filepath.Ext(filename)),
		Dirs:     dirs,
	}
}

// Matcher recognizes one episode layout convention.
type Matcher struct {
	Name string
	Try  func(PathInfo) (Info, bool)
}

// Matchers is tried in order; the first match decides the structure.
// Order matters: directory structure beats filename tokens, and the
// explicit SxxEyy form beats the looser NxMM and bare-number forms.
var Matchers = []Matcher{
	{Name: "specials directory", Try: matchSpecialsDir},
	{Name: "season directory", Try: matchSeasonDir},
	{Name: "SxxEyy", Try: matchEpisodeToken(sxxEyyPattern)},
	{Name: "NxMM", Try: matchEpisodeToken(nxmmPattern)},
	{Name: "season N episode M", Try: matchEpisodeToken(seasonEpisodeWords)},
	{Name: "episode number only", Try: matchEpisodeOnly},
}

// Parse derives show structure from a media file path. ok is false when
// the path carries no recognizable season or episode structure, which
// callers treat as "not a show".
func Parse(path string) (Info, bool) {
	p := SplitPath(path)
	for _, m := range Matchers {
		if info, ok := m.Try(p); ok {
			return info, true
		}
	}
	return Info{}, false
}

// Filename token patterns. The NxMM form is deliberately lowercase-x
// only; an uppercase X is far more often part of a title.
var (
	sxxEyyPattern      = regexp.MustCompile(`[Ss](\d{1,2})[Ee](\d{1,2})`)
	nxmmPattern        = regexp.MustCompile(`(\d{1,2})x(\d{1,2})`)
	seasonEpisodeWords = regexp.MustCompile(`(?i)season\s*(\d{1,2}).*episode\s*(\d{1,2})`)
)

// seasonEpisodePatterns carry both a season and an episode group.
var seasonEpisodePatterns = []*regexp.Regexp{sxxEyyPattern, nxmmPattern, seasonEpisodeWords}

// episodeOnlyPatterns carry an episode number but no season; the season
// defaults to 1.
var episodeOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Ee](\d{1,2})(?:[^\d]|$)`),
	regexp.MustCompile(`(?i)episode\s*(\d{1,2})`),
	regexp.MustCompile(`^(\d{1,2})(?:[^\dx]|$)`),
}

// Directory name patterns.
var (
	// seasonDirPatterns extract a season number from a directory name.
	seasonDirPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^season\s*(\d{1,2})(?:\s|$)`),           // Season 1
		regexp.MustCompile(`(?i)^s(\d{1,2})(?:\s|$)`),                   // S01
		regexp.MustCompile(`(?i)\s+(?:\d{3,4}p\s+)?s(\d{1,2})(?:\s|$)`), // Show S01, Show 1080p S01
	}
	seasonFolderCheck = regexp.MustCompile(`^[sS](eason)?\s*\d+`)
	specialsFolder    = regexp.MustCompile(`(?i)\b(?:specials?|shorts?)\b`)
)

// genericFolders never serve as a show name.
var genericFolders = map[string]bool{
	"tv": true, "shows": true, "tv shows": true, "series": true,
	"media": true, "movies": true, "encoded": true, "reencode": true,
	"x264": true, "x265": true, "hevc": true,
}

// SeasonFromDir extracts a season number from a directory name.
func SeasonFromDir(name string) (int, bool) {
	for _, p := range seasonDirPatterns {
		if m := p.FindStringSubmatch(name); m != nil {
			return atoi(m[1]), true
		}
	}
	return 0, false
}

// IsSeasonFolder reports whether a directory name looks like a season
// folder ("Season 1", "S01", "s2").
func IsSeasonFolder(name string) bool {
	return seasonFolderCheck.MatchString(name)
}

// IsSpecialsFolder reports whether a directory holds specials or shorts,
// which map to season 0.
func IsSpecialsFolder(name string) bool {
	return specialsFolder.MatchString(name)
}

// IsGenericFolder reports whether a directory name is library plumbing
// ("TV", "Movies", "x265") rather than a show title.
func IsGenericFolder(name string) bool {
	return genericFolders[strings.ToLower(name)]
}

// HasEpisodeToken reports whether a filename carries any recognizable
// episode numbering.
func HasEpisodeToken(filename string) bool {
	for _, p := range seasonEpisodePatterns {
		if p.MatchString(filename) {
			return true
		}
	}
	for _, p := range episodeOnlyPatterns {
		if p.MatchString(filename) {
			return true
		}
	}
	return false
}

func matchSpecialsDir(p PathInfo) (Info, bool) {
	if len(p.Dirs) == 0 || !IsSpecialsFolder(p.Dirs[0]) {
		return Info{}, false
	}
	season := 0
	info := Info{Season: &season}
	if show := showFromAncestors(p.Dirs, 1); show != "" {
		info.Show = show
	} else {
		info.Show = CleanName(strings.SplitN(p.Filename, ".", 2)[0])
	}
	info.Episode = episodeNumber(p.Filename, seasonEpisodePatterns, 2)
	return info, true
}

func matchSeasonDir(p PathInfo) (Info, bool) {
	// The season folder is usually the parent but occasionally one or
	// two levels up ("Season 2/Part 1/...").
	for i, dir := range p.Dirs[:min(len(p.Dirs), 3)] {
		season, ok := SeasonFromDir(dir)
		if !ok {
			continue
		}
		info := Info{Season: &season}
		show := CleanName(dir)
		if len(show) <= 1 || IsGenericFolder(show) {
			show = showFromAncestors(p.Dirs, i+1)
		}
		if show == "" {
			show = CleanName(strings.SplitN(p.Filename, ".", 2)[0])
		}
		info.Show = show
		// Folder decides the season even if the filename disagrees;
		// the filename only contributes the episode number.
		if ep := episodeNumber(p.Filename, seasonEpisodePatterns, 2); ep != nil {
			info.Episode = ep
		} else {
			info.Episode = episodeNumber(p.Filename, episodeOnlyPatterns, 1)
		}
		return info, true
	}
	return Info{}, false
}

func matchEpisodeToken(pattern *regexp.Regexp) func(PathInfo) (Info, bool) {
	return func(p PathInfo) (Info, bool) {
		loc := pattern.FindStringSubmatchIndex(p.Filename)
		if loc == nil {
			return Info{}, false
		}
		season := atoi(p.Filename[loc[2]:loc[3]])
		episode := atoi(p.Filename[loc[4]:loc[5]])
		show := showFromContext(p, p.Filename[:loc[0]])
		return Info{Show: show, Season: &season, Episode: &episode}, true
	}
}

func matchEpisodeOnly(p PathInfo) (Info, bool) {
	for _, pattern := range episodeOnlyPatterns {
		loc := pattern.FindStringSubmatchIndex(p.Filename)
		if loc == nil {
			continue
		}
		season := 1
		episode := atoi(p.Filename[loc[2]:loc[3]])
		show := showFromContext(p, p.Filename[:loc[0]])
		return Info{Show: show, Season: &season, Episode: &episode}, true
	}
	return Info{}, false
}

// episodeNumber returns the capture group at index group from the first
// pattern matching the filename.
func episodeNumber(filename string, patterns []*regexp.Regexp, group int) *int {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(filename); m != nil {
			ep := atoi(m[group])
			return &ep
		}
	}
	return nil
}

// showFromContext derives a show name for a filename-token match:
// ancestor folders beyond the parent first, then the parent folder,
// then whatever precedes the token in the filename.
func showFromContext(p PathInfo, filenamePrefix string) string {
	if show := showFromAncestors(p.Dirs, 1); show != "" {
		return show
	}
	if len(p.Dirs) > 0 {
		parent := CleanName(p.Dirs[0])
		if len(parent) > 1 && !IsGenericFolder(parent) {
			return parent
		}
	}
	if show := CleanName(strings.TrimSpace(filenamePrefix)); show != "" {
		return show
	}
	return "Unknown"
}

// showFromAncestors walks up the directory names starting at skip,
// returning the first that cleans to a plausible show title.
func showFromAncestors(dirs []string, skip int) string {
	if skip > len(dirs) {
		return ""
	}
	for _, dir := range dirs[skip:min(len(dirs), skip+5)] {
		if IsSpecialsFolder(dir) || IsSeasonFolder(dir) || IsGenericFolder(dir) {
			continue
		}
		if show := CleanName(dir); len(show) > 1 {
			return show
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
