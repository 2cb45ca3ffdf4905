// Package mpris exposes the session to desktop media controllers over the
// MPRIS D-Bus interface.
package mpris

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// URIScheme addresses catalog songs by media id, e.g. tunestream:song-42.
const URIScheme = "tunestream"

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - the daemon manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return r.identity, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{URIScheme, "http", "https", "file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav", "audio/ogg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter over a session.
type playerAdapter struct {
	session ports.Session
}

func (p *playerAdapter) state() domain.SessionState {
	st, err := p.session.State()
	if err != nil {
		return domain.SessionState{Playback: domain.PlaybackState{Status: domain.StatusIdle, Index: -1}}
	}
	return st
}

func (p *playerAdapter) Next() error {
	return p.session.SkipToNext()
}

func (p *playerAdapter) Previous() error {
	return p.session.SkipToPrevious()
}

func (p *playerAdapter) Pause() error {
	return p.session.Pause()
}

func (p *playerAdapter) PlayPause() error {
	if p.state().Playback.IsPlaying() {
		return p.session.Pause()
	}
	return p.session.Play()
}

func (p *playerAdapter) Stop() error {
	return p.session.Stop()
}

func (p *playerAdapter) Play() error {
	return p.session.Play()
}

// Seek moves relative to the current position.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	pos := p.state().Playback.Position + time.Duration(offset)*time.Microsecond
	return p.session.SeekTo(max(pos, 0))
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	st := p.state()
	if st.Current == nil || formatTrackID(st.Current.ID) != trackID {
		return nil // Stale request for another track
	}
	return p.session.SeekTo(time.Duration(position) * time.Microsecond)
}

// OpenUri plays a song by media id (tunestream:<id>) or by its media URI.
//
//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	id, err := p.resolveURI(uri)
	if err != nil {
		return err
	}
	return p.session.PlayFromMediaID(id)
}

func (p *playerAdapter) resolveURI(uri string) (string, error) {
	if rest, ok := strings.CutPrefix(uri, URIScheme+":"); ok {
		id, err := url.PathUnescape(strings.TrimPrefix(rest, "//"))
		if err != nil || id == "" {
			return "", fmt.Errorf("invalid uri %q", uri)
		}
		return id, nil
	}

	for _, s := range p.state().Queue {
		if s.MediaURI == uri {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrSongNotFound, uri)
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.state().Playback.Status), nil
}

func playbackStatus(status domain.PlaybackStatus) types.PlaybackStatus {
	switch status {
	case domain.StatusPlaying:
		return types.PlaybackStatusPlaying
	case domain.StatusPaused, domain.StatusBuffering:
		return types.PlaybackStatusPaused
	default:
		return types.PlaybackStatusStopped
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	st := p.state()
	if st.Current == nil {
		return types.Metadata{}, nil
	}
	song := st.Current

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(song.ID)),
		Length:  types.Microseconds(st.Playback.Duration.Microseconds()),
		Title:   song.Title,
		ArtUrl:  song.ArtworkURI,
	}
	if song.Artist != "" {
		meta.Artist = []string{song.Artist}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.state().Playback.Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	st := p.state()
	return st.Prepared && st.Playback.Index < len(st.Queue)-1, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.state().Prepared, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return len(p.state().Queue) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.state().Prepared, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

var (
	_ types.OrgMprisMediaPlayer2Adapter       = (*rootAdapter)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapter = (*playerAdapter)(nil)
)

func formatTrackID(mediaID string) string {
	h := fnv.New64a()
	h.Write([]byte(mediaID))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
