package manager

import (
	"regexp"
	"slices"
	"strings"

	"github.com/kasuboski/reelwatch/pkg/parser"
	"github.com/kasuboski/reelwatch/pkg/quality"
)

// matchSpec evaluates one Specification against a parsed release descriptor,
// applying Negate last.
func matchSpec(spec quality.Specification, d parser.Descriptor) bool {
	var matched bool
	switch spec.Kind {
	case quality.SpecReleaseGroup:
		matched = strings.EqualFold(d.ReleaseGroup, spec.Value)
	case quality.SpecResolution:
		matched = strings.EqualFold(d.Resolution, spec.Value)
	case quality.SpecSource:
		matched = strings.EqualFold(string(d.Source), spec.Value)
	case quality.SpecEdition:
		matched = d.Edition != "" && strings.Contains(strings.ToLower(d.Edition), strings.ToLower(spec.Value))
	case quality.SpecLanguage:
		matched = strings.EqualFold(d.Language, spec.Value)
	case quality.SpecTitleRegex:
		re, err := regexp.Compile(spec.Value)
		matched = err == nil && re.MatchString(d.Title)
	case quality.SpecHDR:
		matched = slices.ContainsFunc(d.HDR, func(h string) bool { return strings.EqualFold(h, spec.Value) })
	}
	if spec.Negate {
		return !matched
	}
	return matched
}

// formatMatches reports whether every spec of cf passes: AND of the
// non-negated specs, NONE of the negated ones (the custom format
// rule, each Specification's Negate already inverted by matchSpec).
func formatMatches(cf quality.CustomFormat, d parser.Descriptor) bool {
	for _, spec := range cf.Specs {
		if !matchSpec(spec, d) {
			return false
		}
	}
	return true
}

// scoreFormats evaluates every enabled CustomFormat against d and returns
// the summed score (profile.FormatScores overriding cf.Score where set)
// plus the matched format ids, populating what decision.Score's formatSum
// reads from a release.
func scoreFormats(d parser.Descriptor, formats []quality.CustomFormat, profile quality.QualityProfile) (score int, matched []int64) {
	for _, cf := range formats {
		if !cf.Enabled || !formatMatches(cf, d) {
			continue
		}
		points := cf.Score
		if override, ok := profile.FormatScores[cf.ID]; ok {
			points = override
		}
		score += points
		matched = append(matched, cf.ID)
	}
	return score, matched
}
