package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kasuboski/reelwatch/pkg/parser"
	"github.com/kasuboski/reelwatch/pkg/quality"
)

func descriptor() parser.Descriptor {
	return parser.Descriptor{
		Title:        "The Matrix",
		ReleaseGroup: "GROUPB",
		Resolution:   "1080p",
		Source:       quality.SourceBluray,
		Edition:      "Director's Cut",
		Language:     "english",
		HDR:          []string{"HDR10"},
	}
}

func TestMatchSpec_releaseGroup(t *testing.T) {
	d := descriptor()
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecReleaseGroup, Value: "groupb"}, d))
	assert.False(t, matchSpec(quality.Specification{Kind: quality.SpecReleaseGroup, Value: "other"}, d))
}

func TestMatchSpec_negate(t *testing.T) {
	d := descriptor()
	assert.False(t, matchSpec(quality.Specification{Kind: quality.SpecReleaseGroup, Value: "groupb", Negate: true}, d))
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecReleaseGroup, Value: "other", Negate: true}, d))
}

func TestMatchSpec_resolutionSourceEditionLanguageHDR(t *testing.T) {
	d := descriptor()
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecResolution, Value: "1080p"}, d))
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecSource, Value: string(quality.SourceBluray)}, d))
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecEdition, Value: "director's cut"}, d))
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecLanguage, Value: "english"}, d))
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecHDR, Value: "hdr10"}, d))
}

func TestMatchSpec_titleRegex(t *testing.T) {
	d := descriptor()
	assert.True(t, matchSpec(quality.Specification{Kind: quality.SpecTitleRegex, Value: "(?i)matrix"}, d))
	assert.False(t, matchSpec(quality.Specification{Kind: quality.SpecTitleRegex, Value: "(?i)inception"}, d))
}

func TestFormatMatches_allSpecsMustPass(t *testing.T) {
	d := descriptor()
	cf := quality.CustomFormat{
		ID:      1,
		Name:    "Bluray Remux Group",
		Score:   25,
		Enabled: true,
		Specs: []quality.Specification{
			{Kind: quality.SpecSource, Value: string(quality.SourceBluray)},
			{Kind: quality.SpecReleaseGroup, Value: "groupb"},
		},
	}
	assert.True(t, formatMatches(cf, d))

	cf.Specs = append(cf.Specs, quality.Specification{Kind: quality.SpecReleaseGroup, Value: "other"})
	assert.False(t, formatMatches(cf, d))
}

func TestScoreFormats_sumsEnabledMatchesWithProfileOverride(t *testing.T) {
	d := descriptor()
	formats := []quality.CustomFormat{
		{ID: 1, Score: 10, Enabled: true, Specs: []quality.Specification{{Kind: quality.SpecReleaseGroup, Value: "groupb"}}},
		{ID: 2, Score: 20, Enabled: true, Specs: []quality.Specification{{Kind: quality.SpecReleaseGroup, Value: "nomatch"}}},
		{ID: 3, Score: 5, Enabled: false, Specs: []quality.Specification{{Kind: quality.SpecReleaseGroup, Value: "groupb"}}},
	}
	profile := quality.QualityProfile{FormatScores: map[int64]int{1: 100}}

	score, matched := scoreFormats(d, formats, profile)
	assert.Equal(t, 100, score)
	assert.Equal(t, []int64{1}, matched)
}

func TestScoreFormats_noMatches(t *testing.T) {
	d := descriptor()
	formats := []quality.CustomFormat{
		{ID: 1, Score: 10, Enabled: true, Specs: []quality.Specification{{Kind: quality.SpecReleaseGroup, Value: "nomatch"}}},
	}
	score, matched := scoreFormats(d, formats, quality.QualityProfile{})
	assert.Equal(t, 0, score)
	assert.Nil(t, matched)
}
