package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func songs(ids ...string) []Song {
	out := make([]Song, len(ids))
	for i, id := range ids {
		out[i] = Song{ID: id, Title: "Title " + id, Artist: "Artist " + id, MediaURI: "https://cdn.example/" + id + ".mp3"}
	}
	return out
}

func TestQueue_PreservesFetchOrder(t *testing.T) {
	q := NewQueue(songs("c", "a", "b"))

	require.Equal(t, 3, q.Len())
	assert.Equal(t, "c", q.At(0).ID)
	assert.Equal(t, "a", q.At(1).ID)
	assert.Equal(t, "b", q.At(2).ID)

	idx, ok := q.IndexOf("b")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestQueue_DuplicatesResolveToFirst(t *testing.T) {
	input := songs("x", "y", "x")
	input[2].Title = "second x"
	q := NewQueue(input)

	assert.Equal(t, 3, q.Len())

	idx, ok := q.IndexOf("x")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	s, ok := q.Find("x")
	require.True(t, ok)
	assert.Equal(t, "Title x", s.Title)
}

func TestQueue_IsDetachedFromInput(t *testing.T) {
	input := songs("a", "b")
	q := NewQueue(input)
	input[0].ID = "mutated"

	assert.Equal(t, "a", q.At(0).ID)

	out := q.Songs()
	out[1].ID = "mutated"
	assert.Equal(t, "b", q.At(1).ID)
}

func TestQueue_ZeroValue(t *testing.T) {
	var q Queue
	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.MediaItems())

	_, ok := q.Find("anything")
	assert.False(t, ok)
}

func TestSong_MediaItemRoundTrip(t *testing.T) {
	s := Song{ID: "1", Title: "Song", Artist: "Band", MediaURI: "https://a/1.mp3", ArtworkURI: "https://a/1.jpg"}
	item := s.AsMediaItem()

	assert.True(t, item.Playable)
	assert.Equal(t, "Band", item.Subtitle)
	assert.Equal(t, "https://a/1.jpg", item.IconURI)
	assert.Equal(t, s, SongFromMediaItem(item))
}

func TestPlaybackState_Predicates(t *testing.T) {
	tests := []struct {
		name        string
		state       PlaybackState
		playing     bool
		playEnabled bool
		prepared    bool
	}{
		{"idle", PlaybackState{Status: StatusIdle}, false, false, false},
		{"buffering to play", PlaybackState{Status: StatusBuffering, PlayWhenReady: true}, true, false, true},
		{"buffering paused", PlaybackState{Status: StatusBuffering}, false, true, true},
		{"playing", PlaybackState{Status: StatusPlaying, PlayWhenReady: true}, true, false, true},
		{"paused", PlaybackState{Status: StatusPaused}, false, true, true},
		{"stopped", PlaybackState{Status: StatusStopped}, false, false, false},
		{"error", PlaybackState{Status: StatusError}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.playing, tt.state.IsPlaying())
			assert.Equal(t, tt.playEnabled, tt.state.IsPlayEnabled())
			assert.Equal(t, tt.prepared, tt.state.IsPrepared())
		})
	}
}

func TestReadiness(t *testing.T) {
	assert.False(t, ReadinessNotReady.Decided())
	assert.True(t, ReadinessReady.Decided())
	assert.True(t, ReadinessFailed.Decided())
	assert.Equal(t, "failed", ReadinessFailed.String())
}
