// Package decision implements the release-acceptance and best-pick rules
// built on top of pkg/parser and pkg/quality descriptors.
package decision

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/quality"
)

// RejectReason enumerates why a release failed acceptance.
type RejectReason string

const (
	RejectBlocklisted      RejectReason = "blocklisted"
	RejectMismatchedMovie  RejectReason = "mismatched_movie"
	RejectQualityDisallowed RejectReason = "quality_disallowed"
	RejectSizeOutOfRange   RejectReason = "size_out_of_range"
	RejectLanguageMismatch RejectReason = "language_mismatch"
	RejectNoUpgrade        RejectReason = "no_upgrade"
	RejectCutoffMet        RejectReason = "cutoff_met"
)

// Acceptability is the verdict produced by Evaluate.
type Acceptability struct {
	Accepted bool
	Score    int
	Reason   RejectReason
}

// BlocklistChecker abstracts the blocklist gate so this package has no
// direct dependency on pkg/blocklist's storage concerns.
type BlocklistChecker interface {
	IsBlocked(ctx context.Context, indexerID int64, guid string) (bool, error)
}

// Input bundles everything Evaluate needs beyond the release itself.
type Input struct {
	Movie        domain.Movie
	Profile      quality.QualityProfile
	CurrentFile  *domain.MovieFile // nil if the movie has no file yet
	SceneGroup   *domain.SceneGroup
	Blocked      bool
	Now          time.Time
	FuzzyThreshold float64 // title-match similarity threshold, default 0.2 if zero
}

// defaultFuzzyThreshold is tuned for the Jaccard token-overlap formulation
// titleSimilarity uses: a release title carries several tokens (year,
// resolution, source, codec, group) a movie title doesn't, so even a
// correct match rarely clears much above ~0.25-0.3.
const defaultFuzzyThreshold = 0.2

// Evaluate applies the six ordered acceptance rules and returns a verdict.
func Evaluate(release domain.Release, in Input) Acceptability {
	if in.Blocked {
		return Acceptability{Reason: RejectBlocklisted}
	}

	threshold := in.FuzzyThreshold
	if threshold <= 0 {
		threshold = defaultFuzzyThreshold
	}
	if !matchesMovie(release, in.Movie, threshold) {
		return Acceptability{Reason: RejectMismatchedMovie}
	}

	if !in.Profile.Accepts(release.Quality.ID) {
		return Acceptability{Reason: RejectQualityDisallowed}
	}
	if release.Quality == quality.Unknown && !in.Profile.Accepts(quality.Unknown.ID) {
		return Acceptability{Reason: RejectQualityDisallowed}
	}

	sizeMB := release.Size >> 20
	if in.Profile.MinSizeMB > 0 && sizeMB < in.Profile.MinSizeMB {
		return Acceptability{Reason: RejectSizeOutOfRange}
	}
	if in.Profile.MaxSizeMB > 0 && sizeMB > in.Profile.MaxSizeMB {
		return Acceptability{Reason: RejectSizeOutOfRange}
	}

	allowsMulti := strings.EqualFold(in.Profile.Language, "multi")
	if in.Profile.Language != "" && !allowsMulti && release.Language != "" && !strings.EqualFold(release.Language, in.Profile.Language) {
		return Acceptability{Reason: RejectLanguageMismatch}
	}

	score := Score(release, in)

	if in.Movie.HasFile && in.CurrentFile != nil {
		if !in.Profile.UpgradeAllowed {
			return Acceptability{Reason: RejectNoUpgrade}
		}
		if in.Profile.MeetsCutoff(in.CurrentFile.Quality.ID) {
			return Acceptability{Reason: RejectCutoffMet}
		}
		currentScore := scoreQualityOnly(in.CurrentFile.Quality)
		if score <= currentScore {
			return Acceptability{Reason: RejectNoUpgrade}
		}
	}

	return Acceptability{Accepted: true, Score: score}
}

// PickBest filters releases to Accepts and returns the best by the tie-break
// chain, or ok=false if none accept.
func PickBest(releases []domain.Release, in Input) (domain.Release, bool) {
	type candidate struct {
		release domain.Release
		verdict Acceptability
	}

	var accepted []candidate
	for _, r := range releases {
		v := Evaluate(r, in)
		if v.Accepted {
			accepted = append(accepted, candidate{release: r, verdict: v})
		}
	}
	if len(accepted) == 0 {
		return domain.Release{}, false
	}

	preferredSize := preferredSizeMB(in.Profile)

	sort.SliceStable(accepted, func(i, j int) bool {
		a, b := accepted[i], accepted[j]

		if a.release.Quality.Weight != b.release.Quality.Weight {
			return a.release.Quality.Weight > b.release.Quality.Weight
		}

		aFmt, bFmt := formatSum(a.release), formatSum(b.release)
		if aFmt != bFmt {
			return aFmt > bFmt
		}

		if a.release.Freeleech != b.release.Freeleech {
			return a.release.Freeleech
		}

		aSeed, bSeed := seedersOf(a.release), seedersOf(b.release)
		if aSeed != bSeed {
			return aSeed > bSeed
		}

		aInRange, bInRange := withinPreferredRange(a.release.Size, preferredSize), withinPreferredRange(b.release.Size, preferredSize)
		if aInRange != bInRange {
			return aInRange
		}
		if aInRange && bInRange && a.release.Size != b.release.Size {
			return a.release.Size < b.release.Size
		}

		if !a.release.PublishedAt.Equal(b.release.PublishedAt) {
			return a.release.PublishedAt.After(b.release.PublishedAt)
		}

		return strings.ToLower(a.release.ReleaseGroup) < strings.ToLower(b.release.ReleaseGroup)
	})

	return accepted[0].release, true
}

// Score computes the combined ranking score.
func Score(release domain.Release, in Input) int {
	s := scoreQualityOnly(release.Quality)
	s += formatSum(release)
	s += reputationBonus(in.SceneGroup)
	if release.Freeleech {
		s += freeleechBonus
	}
	s += seedersBonus(seedersOf(release))
	s -= agePenalty(release.PublishedAt, in.Now)
	return s
}

const freeleechBonus = 50

func scoreQualityOnly(q quality.Quality) int {
	return q.Weight * 1000
}

func formatSum(release domain.Release) int {
	// The per-format score lookup (by id, with profile overrides) happens
	// in the caller that populates MatchedFormats/Score; here we only
	// reuse the precomputed sum already attached to the release.
	return release.Score
}

func reputationBonus(sg *domain.SceneGroup) int {
	if sg == nil {
		return 0
	}
	return int(float64(sg.Reputation) * sg.Confidence)
}

func seedersOf(r domain.Release) int {
	if r.Seeders == nil {
		return 0
	}
	return *r.Seeders
}

// seedersBonus uses a logarithmic curve capped at a reasonable ceiling so a
// handful of extra seeders beyond "plenty" doesn't dominate quality.
func seedersBonus(seeders int) int {
	if seeders <= 0 {
		return 0
	}
	bonus := int(math.Log2(float64(seeders+1)) * 10)
	const cap = 80
	if bonus > cap {
		return cap
	}
	return bonus
}

func agePenalty(published, now time.Time) int {
	if published.IsZero() || now.IsZero() {
		return 0
	}
	days := now.Sub(published).Hours() / 24
	if days <= 0 {
		return 0
	}
	penalty := int(days / 7) // 1 point per week old
	const cap = 100
	if penalty > cap {
		return cap
	}
	return penalty
}

func preferredSizeMB(p quality.QualityProfile) int64 {
	if p.MaxSizeMB > 0 && p.MinSizeMB > 0 {
		return (p.MaxSizeMB + p.MinSizeMB) / 2
	}
	return p.MaxSizeMB
}

func withinPreferredRange(sizeBytes int64, preferredMB int64) bool {
	if preferredMB <= 0 {
		return true
	}
	sizeMB := sizeBytes >> 20
	lo := float64(preferredMB) * 0.9
	hi := float64(preferredMB) * 1.25
	return float64(sizeMB) >= lo && float64(sizeMB) <= hi
}

// matchesMovie applies an ID match when the release payload carries one,
// falling back to the title+year heuristic otherwise.
func matchesMovie(release domain.Release, movie domain.Movie, threshold float64) bool {
	if release.TMDBID != nil && movie.TMDBID != nil && *release.TMDBID == *movie.TMDBID {
		return true
	}
	if release.IMDBID != "" && movie.IMDBID != nil && release.IMDBID == *movie.IMDBID {
		return true
	}

	if titleSimilarity(release.Title, movie.Title) < threshold {
		return false
	}
	return yearMatches(release.Year, movie.Year)
}

// yearMatches allows a release a year either side of the movie's release
// year, tolerating festival/regional release-date drift. A missing year on
// either side (0) doesn't fail the match on its own.
func yearMatches(releaseYear, movieYear int) bool {
	if releaseYear == 0 || movieYear == 0 {
		return true
	}
	diff := releaseYear - movieYear
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// titleSimilarity is a normalized token-overlap ratio (Jaccard over
// lowercased word sets) rather than a full edit-distance metric: release
// titles carry extraneous tokens (year, quality, group) that a strict
// Levenshtein comparison would punish unfairly.
func titleSimilarity(a, b string) float64 {
	wordsA := tokenize(a)
	wordsB := tokenize(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}

	matches := 0
	for _, w := range wordsA {
		if _, ok := setB[w]; ok {
			matches++
		}
	}

	union := len(setB)
	for _, w := range wordsA {
		if _, ok := setB[w]; !ok {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(matches) / float64(union)
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := fields[:0:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
