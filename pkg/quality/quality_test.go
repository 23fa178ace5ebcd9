package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromResolutionSource_RemuxPromotion(t *testing.T) {
	q := FromResolutionSource("1080p", SourceRemux)
	assert.Equal(t, "Remux-1080p", q.Name)

	q = FromResolutionSource("2160p", SourceRemux)
	assert.Equal(t, "Remux-2160p", q.Name)
}

func TestFromResolutionSource_Unknown(t *testing.T) {
	q := FromResolutionSource("144p", SourceWeb)
	assert.Equal(t, Unknown, q)
}

func TestFromResolutionSource_NonRemux(t *testing.T) {
	q := FromResolutionSource("1080p", SourceBluray)
	assert.Equal(t, "Bluray-1080p", q.Name)
}

func TestCompare_WeightOnly(t *testing.T) {
	low := FromResolutionSource("480p", SourceHDTV)
	high := FromResolutionSource("2160p", SourceRemux)

	assert.Equal(t, -1, Compare(low, high))
	assert.Equal(t, 1, Compare(high, low))
	assert.Equal(t, 0, Compare(low, low))
}

func TestByID(t *testing.T) {
	q, ok := ByID(10)
	require.True(t, ok)
	assert.Equal(t, "Remux-1080p", q.Name)

	_, ok = ByID(9999)
	assert.False(t, ok)
}

func TestQualityProfile_Accepts(t *testing.T) {
	p := QualityProfile{
		Allowed:  []int64{8, 9, 10},
		CutoffID: 9,
	}

	assert.True(t, p.Accepts(9))
	assert.False(t, p.Accepts(4))
}

func TestQualityProfile_MeetsCutoff(t *testing.T) {
	p := QualityProfile{
		Allowed:  []int64{8, 9, 10},
		CutoffID: 9,
	}

	assert.False(t, p.MeetsCutoff(8))
	assert.True(t, p.MeetsCutoff(9))
	assert.True(t, p.MeetsCutoff(10))
}

func TestQualityProfile_Rank(t *testing.T) {
	p := QualityProfile{Allowed: []int64{8, 9, 10}}

	rank, ok := p.Rank(9)
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	_, ok = p.Rank(1)
	assert.False(t, ok)
}
