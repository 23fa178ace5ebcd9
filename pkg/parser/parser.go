// Package parser extracts a structured descriptor from a release title:
// resolution, source, codec, audio, HDR flags, edition, release group,
// language, scene markers — the full attribute set the decision engine
// needs.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kasuboski/reelwatch/pkg/quality"
)

// Descriptor is the structured result of parsing a release title.
type Descriptor struct {
	Title          string
	Year           int
	Resolution     string
	Source         quality.SourceKind
	Codec          string
	Audio          []string
	HDR            []string
	Edition        string
	ReleaseGroup   string
	Language       string
	Multi          bool
	SceneMarker    bool // REPACK/PROPER/INTERNAL or similar
	Quality        quality.Quality
}

// ParseError is returned when the resolution cannot be determined.
type ParseError struct {
	Title  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %q: %s", e.Title, e.Reason)
}

var resolutions = []string{"2160p", "1080p", "720p", "576p", "480p"}

// sourceTokens maps lowercase filename tokens to a SourceKind. The first
// entry found in the name wins, so order matters: "remux" is listed before
// "bluray", and "webdl"/"web-dl"/"webrip" before "web".
var sourceTokens = []struct {
	token  string
	source quality.SourceKind
}{
	{"remux", quality.SourceRemux},
	{"bluray", quality.SourceBluray},
	{"brrip", quality.SourceBluray},
	{"bdrip", quality.SourceBluray},
	{"webdl", quality.SourceWeb},
	{"web-dl", quality.SourceWeb},
	{"webrip", quality.SourceWeb},
	{"web", quality.SourceWeb},
	{"hdtv", quality.SourceHDTV},
	{"pdtv", quality.SourceHDTV},
	{"sdtv", quality.SourceHDTV},
	{"dvd", quality.SourceWeb},
}

var codecTokens = []string{"x265", "h265", "hevc", "x264", "h264", "av1", "xvid"}

var audioTokens = []string{
	"atmos", "dts-x", "dts:x", "dtshd", "dts-hd", "truehd", "ddplus", "ddp5.1", "ddp",
	"dd5.1", "dd7.1", "dd2.0", "dts", "dd", "aac", "flac",
}

var hdrTokens = []struct {
	token string
	label string
}{
	{"dolby vision", "DolbyVision"},
	{"dv", "DolbyVision"},
	{"hdr10plus", "HDR10+"},
	{"hdr10", "HDR10"},
	{"hdr", "HDR"},
}

var sceneMarkerTokens = []string{"proper", "repack", "internal", "real"}

// releaseGroupExceptions lists trailing tokens that look like a release
// group but are not — they're known scene/encode tags that appear after
// the final hyphen without naming a group.
var releaseGroupExceptions = map[string]struct{}{
	"rarbg": {},
}

var trailingGroupRegex = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
var yearRegex = regexp.MustCompile(`[.\s_([](\d{4})[.\s_)\]]`)
var editionRegex = regexp.MustCompile(`(?i)\{edition-([^}]+)\}`)
var multiRegex = regexp.MustCompile(`(?i)\bmulti\b`)
var languageTokens = map[string]string{
	"french": "fr", "german": "de", "spanish": "es", "italian": "it",
	"vostfr": "fr", "truefrench": "fr",
}

// Parse extracts a Descriptor from a release title. It returns a
// *ParseError (satisfying error) when resolution cannot be determined;
// callers decide whether to blocklist or treat as Unknown.
func Parse(title string) (Descriptor, error) {
	lower := strings.ToLower(title)

	d := Descriptor{}

	res := ""
	for _, r := range resolutions {
		if strings.Contains(lower, r) {
			res = r
			break
		}
	}
	if res == "" {
		return Descriptor{}, &ParseError{Title: title, Reason: "no resolution token found"}
	}
	d.Resolution = res

	d.Source = quality.SourceUnknown
	for _, st := range sourceTokens {
		if strings.Contains(lower, st.token) {
			d.Source = st.source
			break
		}
	}

	for _, c := range codecTokens {
		if strings.Contains(lower, c) {
			d.Codec = normalizeCodec(c)
			break
		}
	}

	for _, a := range audioTokens {
		if strings.Contains(lower, a) {
			d.Audio = append(d.Audio, strings.ToUpper(a))
		}
	}

	for _, h := range hdrTokens {
		if strings.Contains(lower, h.token) {
			found := false
			for _, existing := range d.HDR {
				if existing == h.label {
					found = true
					break
				}
			}
			if !found {
				d.HDR = append(d.HDR, h.label)
			}
		}
	}

	for _, m := range sceneMarkerTokens {
		if strings.Contains(lower, m) {
			d.SceneMarker = true
			break
		}
	}

	if m := editionRegex.FindStringSubmatch(title); len(m) == 2 {
		d.Edition = titleCase(strings.ReplaceAll(m[1], ".", " "))
	}

	if multiRegex.MatchString(lower) {
		d.Multi = true
	}

	for token, lang := range languageTokens {
		if strings.Contains(lower, token) {
			d.Language = lang
			break
		}
	}

	if m := yearRegex.FindStringSubmatch(title); len(m) == 2 {
		if y, err := strconv.Atoi(m[1]); err == nil {
			d.Year = y
		}
	}

	d.ReleaseGroup = extractReleaseGroup(title)
	d.Title = extractTitle(title, d.Year)
	d.Quality = quality.FromResolutionSource(d.Resolution, d.Source)

	return d, nil
}

func normalizeCodec(token string) string {
	switch token {
	case "h265", "hevc":
		return "x265"
	case "h264":
		return "x264"
	default:
		return token
	}
}

func extractReleaseGroup(title string) string {
	m := trailingGroupRegex.FindStringSubmatch(title)
	if len(m) != 2 {
		return ""
	}
	group := m[1]
	if _, excluded := releaseGroupExceptions[strings.ToLower(group)]; excluded {
		return ""
	}
	return titleCase(group)
}

func extractTitle(raw string, year int) string {
	sep := determineSeparator(raw)
	normalized := strings.ReplaceAll(raw, sep, " ")

	cut := len(normalized)
	if year > 0 {
		if idx := strings.Index(normalized, strconv.Itoa(year)); idx > 0 {
			cut = idx
		}
	}
	title := normalized[:cut]
	return titleCase(strings.TrimSpace(title))
}

func determineSeparator(filename string) string {
	count := 0
	curr := " "
	for _, sep := range []string{".", "_", "-"} {
		if c := strings.Count(filename, sep); c > count {
			count = c
			curr = sep
		}
	}
	return curr
}

func titleCase(s string) string {
	caser := cases.Title(language.English)
	return strings.TrimSpace(caser.String(s))
}
