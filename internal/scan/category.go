package scan

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/pkg/shows"
)

// Categorize classifies a path before any probing happens.
// Priority: an extras marker anywhere in the directory path wins, then
// an episode token in the filename, then an extras marker in the
// filename itself (kept as a show when the file sits under a season
// folder, since "Behind the Scenes" is a real episode title), and
// everything left is a movie.
func Categorize(path string, markers []*regexp.Regexp) media.Category {
	filename := filepath.Base(path)
	dir := filepath.Dir(path)

	if shows.MatchesAny(dir, markers) {
		return media.CategoryExtra
	}
	if shows.HasEpisodeToken(filename) {
		return media.CategoryShow
	}
	if shows.MatchesAny(filename, markers) {
		if underSeasonFolder(dir) {
			return media.CategoryShow
		}
		return media.CategoryExtra
	}
	return media.CategoryMovie
}

func (s *Scanner) detectCategory(path string) media.Category {
	return Categorize(path, s.markers)
}

func underSeasonFolder(dir string) bool {
	for _, part := range strings.Split(filepath.Clean(dir), string(filepath.Separator)) {
		if shows.IsSeasonFolder(part) {
			return true
		}
	}
	return false
}

// detectShow fills the show fields and settles the movie/show boundary
// cases that category detection alone cannot. dirFiles is how many
// media files share the record's directory.
func (s *Scanner) detectShow(rec *media.Record, dirFiles int) {
	if rec.Category == media.CategoryExtra {
		rec.ShowName = shows.ShowFromExtrasPath(rec.Path)
		return
	}

	parent := filepath.Base(filepath.Dir(rec.Path))

	// A lone media file whose name echoes its parent folder is a movie
	// in its own directory. Season, specials, and extras folders are
	// the exception: a one-episode season is still a show.
	if dirFiles <= 1 && !shows.HasEpisodeToken(rec.Filename) {
		parentClean := strings.ToLower(shows.CleanName(parent))
		stem := strings.TrimSuffix(rec.Filename, filepath.Ext(rec.Filename))
		stemClean := strings.ToLower(collapseSeparators(stem))
		echoes := parentClean != "" && stemClean != "" &&
			(strings.Contains(stemClean, parentClean) || strings.Contains(parentClean, stemClean))
		if echoes && !shows.IsSeasonFolder(parent) && !shows.IsSpecialsFolder(parent) &&
			!shows.MatchesAny(parent, s.markers) {
			rec.Category = media.CategoryMovie
			return
		}
	}

	info, ok := shows.Parse(rec.Path)
	if !ok {
		return
	}
	rec.Category = media.CategoryShow
	rec.ShowName = info.Show
	rec.Season = info.Season
	rec.Episode = info.Episode
}

func collapseSeparators(s string) string {
	s = strings.NewReplacer(".", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// associateExtras canonicalizes extras' show names against the shows
// found in the same scan. ShowFromExtrasPath guesses from folder names,
// which drift from the real title ("Show Bonus", "Show.2008"); a fuzzy
// match against the known shows snaps the guess to the canonical name.
func (s *Scanner) associateExtras(records []*media.Record) {
	known := make(map[string]bool)
	for _, r := range records {
		if r != nil && r.Category == media.CategoryShow && r.ShowName != "" {
			known[r.ShowName] = true
		}
	}
	if len(known) == 0 {
		return
	}
	candidates := make([]string, 0, len(known))
	for name := range known {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)

	for _, r := range records {
		if r == nil || r.Category != media.CategoryExtra || r.ShowName == "" {
			continue
		}
		if m := shows.Match(r.ShowName, candidates); m.Confidence >= shows.ConfidenceMedium {
			r.ShowName = m.Name
		}
	}
}
