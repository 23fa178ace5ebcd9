package quality

// QualityProfile is a user-defined ordered set of allowed tiers with a
// cutoff and upgrade policy.
type QualityProfile struct {
	ID              int64
	Name            string
	Allowed         []int64 // Quality IDs, preference order best-first
	CutoffID        int64
	UpgradeAllowed  bool
	MinSizeMB       int64
	MaxSizeMB       int64
	Language        string
	FormatScores    map[int64]int // CustomFormat.ID -> score override for this profile
}

// Accepts reports whether a tier id is in the profile's allowed set.
func (p QualityProfile) Accepts(qualityID int64) bool {
	for _, id := range p.Allowed {
		if id == qualityID {
			return true
		}
	}
	return false
}

// Rank returns the preference rank of a quality id within the profile
// (lower is better) and whether it is present at all.
func (p QualityProfile) Rank(qualityID int64) (int, bool) {
	for i, id := range p.Allowed {
		if id == qualityID {
			return i, true
		}
	}
	return -1, false
}

// MeetsCutoff reports whether an allowed tier is at or above the profile's
// cutoff by tier weight, i.e. no further upgrade is needed once a file of
// this tier is held.
func (p QualityProfile) MeetsCutoff(qualityID int64) bool {
	if !p.Accepts(qualityID) || !p.Accepts(p.CutoffID) {
		return false
	}
	q, ok := ByID(qualityID)
	if !ok {
		return false
	}
	cutoff, ok := ByID(p.CutoffID)
	if !ok {
		return false
	}
	return q.Weight >= cutoff.Weight
}

// CustomFormat is a named rule evaluated against a release descriptor.
// Specifications are evaluated by the decision package,
// which has visibility into parsed release attributes; CustomFormat only
// carries the rule's identity and scoring metadata.
type CustomFormat struct {
	ID      int64
	Name    string
	Score   int
	Enabled bool
	Specs   []Specification
}

// Specification is one atomic predicate of a CustomFormat. Negate inverts
// its match result before the format's overall AND/NONE evaluation.
type Specification struct {
	Kind   SpecKind
	Value  string
	Negate bool
}

// SpecKind enumerates the attribute a Specification tests.
type SpecKind string

const (
	SpecReleaseGroup SpecKind = "release_group"
	SpecResolution   SpecKind = "resolution"
	SpecSource       SpecKind = "source"
	SpecEdition      SpecKind = "edition"
	SpecLanguage     SpecKind = "language"
	SpecTitleRegex   SpecKind = "title_regex"
	SpecHDR          SpecKind = "hdr"
)
