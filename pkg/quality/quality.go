// Package quality defines the Quality tier enumeration and the custom-format
// scoring model used by the decision engine.
package quality

import "fmt"

// SourceKind is the broad acquisition source of a release.
type SourceKind string

const (
	SourceUnknown SourceKind = "unknown"
	SourceHDTV    SourceKind = "hdtv"
	SourceWeb     SourceKind = "web"
	SourceBluray  SourceKind = "bluray"
	SourceRemux   SourceKind = "remux"
)

// Quality is one tier in the total order by Weight. Ties never occur:
// every defined tier has a distinct weight.
type Quality struct {
	ID          int64
	Name        string
	Weight      int
	Resolution  string
	Source      SourceKind
	TypicalMinMB int64
	TypicalMaxMB int64
}

func (q Quality) String() string {
	return q.Name
}

// Unknown is the fallback tier for releases whose resolution could not be determined.
var Unknown = Quality{ID: 0, Name: "Unknown", Weight: 0, Source: SourceUnknown}

// Tiers is the canonical, weight-ordered tier table. IDs are stable and are
// what QualityProfile.Allowed/Cutoff reference.
var Tiers = []Quality{
	Unknown,
	{ID: 1, Name: "SDTV", Weight: 100, Resolution: "480p", Source: SourceHDTV, TypicalMinMB: 300, TypicalMaxMB: 1200},
	{ID: 2, Name: "DVD", Weight: 150, Resolution: "480p", Source: SourceWeb, TypicalMinMB: 700, TypicalMaxMB: 2000},
	{ID: 3, Name: "WEBDL-480p", Weight: 160, Resolution: "480p", Source: SourceWeb, TypicalMinMB: 400, TypicalMaxMB: 1500},
	{ID: 4, Name: "HDTV-720p", Weight: 200, Resolution: "720p", Source: SourceHDTV, TypicalMinMB: 1000, TypicalMaxMB: 4000},
	{ID: 5, Name: "WEBDL-720p", Weight: 220, Resolution: "720p", Source: SourceWeb, TypicalMinMB: 1000, TypicalMaxMB: 4000},
	{ID: 6, Name: "Bluray-720p", Weight: 240, Resolution: "720p", Source: SourceBluray, TypicalMinMB: 4000, TypicalMaxMB: 8000},
	{ID: 7, Name: "HDTV-1080p", Weight: 300, Resolution: "1080p", Source: SourceHDTV, TypicalMinMB: 2000, TypicalMaxMB: 8000},
	{ID: 8, Name: "WEBDL-1080p", Weight: 320, Resolution: "1080p", Source: SourceWeb, TypicalMinMB: 2000, TypicalMaxMB: 10000},
	{ID: 9, Name: "Bluray-1080p", Weight: 340, Resolution: "1080p", Source: SourceBluray, TypicalMinMB: 6000, TypicalMaxMB: 18000},
	{ID: 10, Name: "Remux-1080p", Weight: 360, Resolution: "1080p", Source: SourceRemux, TypicalMinMB: 15000, TypicalMaxMB: 35000},
	{ID: 11, Name: "WEBDL-2160p", Weight: 400, Resolution: "2160p", Source: SourceWeb, TypicalMinMB: 8000, TypicalMaxMB: 30000},
	{ID: 12, Name: "Bluray-2160p", Weight: 420, Resolution: "2160p", Source: SourceBluray, TypicalMinMB: 20000, TypicalMaxMB: 60000},
	{ID: 13, Name: "Remux-2160p", Weight: 440, Resolution: "2160p", Source: SourceRemux, TypicalMinMB: 40000, TypicalMaxMB: 90000},
}

var byID = func() map[int64]Quality {
	m := make(map[int64]Quality, len(Tiers))
	for _, t := range Tiers {
		m[t.ID] = t
	}
	return m
}()

// ByID looks up a tier by its stable id.
func ByID(id int64) (Quality, bool) {
	q, ok := byID[id]
	return q, ok
}

// FromResolutionSource maps a (resolution, source) pair to its tier,
// applying the REMUX-promotion rule: a Remux source always promotes to the
// Remux variant of its resolution regardless of what non-remux tier would
// otherwise match.
func FromResolutionSource(resolution string, source SourceKind) Quality {
	if source == SourceRemux {
		for _, t := range Tiers {
			if t.Source == SourceRemux && t.Resolution == resolution {
				return t
			}
		}
		return Unknown
	}

	for _, t := range Tiers {
		if t.Resolution == resolution && t.Source == source {
			return t
		}
	}
	return Unknown
}

// Compare orders qualities by weight only.
func Compare(a, b Quality) int {
	switch {
	case a.Weight < b.Weight:
		return -1
	case a.Weight > b.Weight:
		return 1
	default:
		return 0
	}
}

// ParseError is returned when a release's resolution cannot be determined.
type ParseError struct {
	Title  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %q: %s", e.Title, e.Reason)
}
