package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTags_FirstWins(t *testing.T) {
	var tags Tags
	tags.Add(FieldTitle, "First Title")
	tags.Add(FieldTitle, "Second Title")

	require.Equal(t, "First Title", tags.Title)
	require.Equal(t, []string{"Second Title"}, tags.Other["title"])
}

func TestTags_DuplicateValueSkipped(t *testing.T) {
	var tags Tags
	tags.Add(FieldArtist, "Same")
	tags.Add(FieldArtist, "Same")

	require.Equal(t, "Same", tags.Artist)
	require.Empty(t, tags.Other["artist"])
}

func TestTags_NULSplitting(t *testing.T) {
	var tags Tags
	tags.Add(FieldArtist, "Lead\x00Featured")

	require.Equal(t, "Lead", tags.Artist)
	require.Equal(t, []string{"Featured"}, tags.Other["artist"])
}

func TestTags_TrackWithTotal(t *testing.T) {
	var tags Tags
	tags.Add(FieldTrack, "3/12")

	require.Equal(t, 3, tags.Track)
	require.Equal(t, 12, tags.TrackTotal)
}

func TestTags_DiscWithTotal(t *testing.T) {
	var tags Tags
	tags.Add(FieldDisc, "1/2")

	require.Equal(t, 1, tags.Disc)
	require.Equal(t, 2, tags.DiscTotal)
}

func TestTags_UnparsableNumberDropped(t *testing.T) {
	var tags Tags
	tags.Add(FieldTrack, "A")
	require.Zero(t, tags.Track)
	require.Empty(t, tags.Other)
}

func TestTags_NumberOverflowGoesToOther(t *testing.T) {
	var tags Tags
	tags.Add(FieldTrack, "3")
	tags.Add(FieldTrack, "7")

	require.Equal(t, 3, tags.Track)
	require.Equal(t, []string{"7"}, tags.Other["track"])
}

func TestTags_OtherPrefixRouting(t *testing.T) {
	var tags Tags
	tags.Add("other.bpm", "128")

	require.Equal(t, []string{"128"}, tags.Other["bpm"])
}

func TestTags_UnknownFieldGoesToOther(t *testing.T) {
	var tags Tags
	tags.Add("mood", "calm")

	require.Equal(t, []string{"calm"}, tags.Other["mood"])
}

func TestTags_AddOtherDedupesAndLowercases(t *testing.T) {
	var tags Tags
	tags.AddOther("Custom", "x")
	tags.AddOther("custom", "x")
	tags.AddOther("custom", "y")

	require.Equal(t, []string{"x", "y"}, tags.Other["custom"])
}

func TestTags_EmptyValuesIgnored(t *testing.T) {
	var tags Tags
	tags.Add(FieldTitle, "")
	tags.Add(FieldTitle, "  \x00 ")

	require.True(t, tags.IsEmpty())
}

func TestTags_YearKeepsFullDates(t *testing.T) {
	var tags Tags
	tags.Add(FieldYear, "2005-08-21")
	require.Equal(t, "2005-08-21", tags.Year)
}
