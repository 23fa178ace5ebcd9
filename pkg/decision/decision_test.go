package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuboski/reelwatch/pkg/domain"
	"github.com/kasuboski/reelwatch/pkg/quality"
)

func baseProfile() quality.QualityProfile {
	return quality.QualityProfile{
		Allowed:        []int64{8, 9}, // WEBDL-1080p, Bluray-1080p
		CutoffID:       9,
		UpgradeAllowed: true,
	}
}

func baseMovie() domain.Movie {
	return domain.Movie{ID: 1, Title: "The Matrix", Year: 1999}
}

func TestEvaluate_Accepts(t *testing.T) {
	release := domain.Release{
		Title:   "The.Matrix.1999.1080p.BluRay.x264-GROUP",
		Size:    10 * 1 << 30,
		Quality: mustQuality(9),
	}

	v := Evaluate(release, Input{Movie: baseMovie(), Profile: baseProfile(), Now: time.Now()})
	assert.True(t, v.Accepted)
}

func TestEvaluate_Blocklisted(t *testing.T) {
	release := domain.Release{Title: "The.Matrix.1999.1080p.BluRay.x264-GROUP", Quality: mustQuality(9)}
	v := Evaluate(release, Input{Movie: baseMovie(), Profile: baseProfile(), Blocked: true})
	require.False(t, v.Accepted)
	assert.Equal(t, RejectBlocklisted, v.Reason)
}

func TestEvaluate_MismatchedMovie(t *testing.T) {
	release := domain.Release{Title: "Completely.Unrelated.Show.S01E01.1080p.WEB-DL", Quality: mustQuality(8)}
	v := Evaluate(release, Input{Movie: baseMovie(), Profile: baseProfile()})
	require.False(t, v.Accepted)
	assert.Equal(t, RejectMismatchedMovie, v.Reason)
}

func TestEvaluate_QualityDisallowed(t *testing.T) {
	release := domain.Release{Title: "The.Matrix.1999.720p.HDTV.x264-GROUP", Quality: mustQuality(4)}
	v := Evaluate(release, Input{Movie: baseMovie(), Profile: baseProfile()})
	require.False(t, v.Accepted)
	assert.Equal(t, RejectQualityDisallowed, v.Reason)
}

func TestEvaluate_SizeOutOfRange(t *testing.T) {
	profile := baseProfile()
	profile.MaxSizeMB = 5000
	release := domain.Release{Title: "The.Matrix.1999.1080p.BluRay.x264-GROUP", Size: 10 * 1 << 30, Quality: mustQuality(9)}
	v := Evaluate(release, Input{Movie: baseMovie(), Profile: profile})
	require.False(t, v.Accepted)
	assert.Equal(t, RejectSizeOutOfRange, v.Reason)
}

func TestEvaluate_NoUpgradeWhenDisallowed(t *testing.T) {
	profile := baseProfile()
	profile.UpgradeAllowed = false
	movie := baseMovie()
	movie.HasFile = true
	release := domain.Release{Title: "The.Matrix.1999.1080p.BluRay.x264-GROUP", Quality: mustQuality(9)}
	v := Evaluate(release, Input{
		Movie:       movie,
		Profile:     profile,
		CurrentFile: &domain.MovieFile{Quality: mustQuality(8)},
	})
	require.False(t, v.Accepted)
	assert.Equal(t, RejectNoUpgrade, v.Reason)
}

func TestEvaluate_CutoffMet(t *testing.T) {
	movie := baseMovie()
	movie.HasFile = true
	release := domain.Release{Title: "The.Matrix.1999.1080p.BluRay.x264-GROUP", Quality: mustQuality(9)}
	v := Evaluate(release, Input{
		Movie:       movie,
		Profile:     baseProfile(),
		CurrentFile: &domain.MovieFile{Quality: mustQuality(9)},
	})
	require.False(t, v.Accepted)
	assert.Equal(t, RejectCutoffMet, v.Reason)
}

func TestPickBest_PrefersHigherQualityThenFreeleech(t *testing.T) {
	webdl := domain.Release{
		Title: "The.Matrix.1999.1080p.WEB-DL.x264-GROUPA", Size: 2 * (1 << 30),
		Quality: mustQuality(8), Seeders: intPtr(50),
	}
	bluray := domain.Release{
		Title: "The.Matrix.1999.1080p.BluRay.x264-GROUPB", Size: 10 * (1 << 30),
		Quality: mustQuality(9), Seeders: intPtr(40), Freeleech: true,
	}

	best, ok := PickBest([]domain.Release{webdl, bluray}, Input{Movie: baseMovie(), Profile: baseProfile(), Now: time.Now()})
	require.True(t, ok)
	assert.Equal(t, bluray.Title, best.Title)
}

func TestPickBest_NoneAccept(t *testing.T) {
	release := domain.Release{Title: "Unrelated.Title.2020.480p.SDTV-GROUP", Quality: mustQuality(1)}
	_, ok := PickBest([]domain.Release{release}, Input{Movie: baseMovie(), Profile: baseProfile()})
	assert.False(t, ok)
}

func TestMatchesMovie_TMDBIDOverridesTitleMismatch(t *testing.T) {
	tmdbID := int64(603)
	release := domain.Release{Title: "Completely Different Title", TMDBID: &tmdbID}
	movie := domain.Movie{Title: "The Matrix", Year: 1999, TMDBID: &tmdbID}
	assert.True(t, matchesMovie(release, movie, defaultFuzzyThreshold))
}

func TestMatchesMovie_IMDBIDOverridesTitleMismatch(t *testing.T) {
	imdbID := "tt0133093"
	release := domain.Release{Title: "Completely Different Title", IMDBID: imdbID}
	movie := domain.Movie{Title: "The Matrix", Year: 1999, IMDBID: &imdbID}
	assert.True(t, matchesMovie(release, movie, defaultFuzzyThreshold))
}

func TestMatchesMovie_YearOutsideToleranceRejects(t *testing.T) {
	release := domain.Release{Title: "The Matrix", Year: 2003}
	movie := domain.Movie{Title: "The Matrix", Year: 1999}
	assert.False(t, matchesMovie(release, movie, defaultFuzzyThreshold))
}

func TestMatchesMovie_YearWithinToleranceAccepts(t *testing.T) {
	release := domain.Release{Title: "The Matrix", Year: 2000}
	movie := domain.Movie{Title: "The Matrix", Year: 1999}
	assert.True(t, matchesMovie(release, movie, defaultFuzzyThreshold))
}

// TestEvaluate_NoisyReleaseTitleStillMatches guards the canonical happy
// path: a release title still carrying its quality/group noise must clear
// the movie-match gate once its cleaned title (what pkg/manager's search
// path assigns before calling Evaluate) is used.
func TestEvaluate_NoisyReleaseTitleStillMatches(t *testing.T) {
	release := domain.Release{
		Title:   "The Matrix", // cleaned by the parser before Evaluate sees it
		Year:    1999,
		Size:    10 * 1 << 30,
		Quality: mustQuality(9),
	}
	v := Evaluate(release, Input{Movie: baseMovie(), Profile: baseProfile(), Now: time.Now()})
	assert.True(t, v.Accepted)
}

func mustQuality(id int64) quality.Quality {
	q, ok := quality.ByID(id)
	if !ok {
		panic("unknown quality id in test fixture")
	}
	return q
}

func intPtr(i int) *int { return &i }
