package beep

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
)

// Supported containers.
const (
	formatMP3    = "mp3"
	formatFLAC   = "flac"
	formatWAV    = "wav"
	formatVorbis = "vorbis"
)

var extensionFormats = map[string]string{
	".mp3":  formatMP3,
	".flac": formatFLAC,
	".wav":  formatWAV,
	".wave": formatWAV,
	".ogg":  formatVorbis,
	".oga":  formatVorbis,
}

var contentTypeFormats = map[string]string{
	"audio/mpeg":      formatMP3,
	"audio/mp3":       formatMP3,
	"audio/flac":      formatFLAC,
	"audio/x-flac":    formatFLAC,
	"audio/wav":       formatWAV,
	"audio/wave":      formatWAV,
	"audio/x-wav":     formatWAV,
	"audio/ogg":       formatVorbis,
	"audio/vorbis":    formatVorbis,
	"application/ogg": formatVorbis,
}

// media is an opened and decoded item.
type media struct {
	stream beep.StreamSeekCloser
	format beep.Format
	src    io.Closer
}

func (m *media) Close() {
	_ = m.stream.Close()
	if m.src != nil {
		_ = m.src.Close()
	}
}

// memoryFile adapts a downloaded body to the reader the decoders expect.
type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

// formatFromPath guesses the container from the URI path extension.
func formatFromPath(p string) string {
	return extensionFormats[strings.ToLower(path.Ext(p))]
}

// formatFromContentType maps a response content type to a container.
func formatFromContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return contentTypeFormats[strings.ToLower(mediaType)]
}

// open fetches and decodes the item at uri.
func (e *Engine) open(ctx context.Context, uri string) (*media, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse media uri: %w", err)
	}

	var (
		rc     io.ReadCloser
		format = formatFromPath(u.Path)
	)

	switch u.Scheme {
	case "file", "":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, err
		}
		rc = f
	case "http", "https":
		body, contentType, err := e.download(ctx, uri)
		if err != nil {
			return nil, err
		}
		if format == "" {
			format = formatFromContentType(contentType)
		}
		rc = memoryFile{bytes.NewReader(body)}
	default:
		return nil, fmt.Errorf("%w: scheme %q", domain.ErrUnsupportedFormat, u.Scheme)
	}

	m, err := decode(rc, format)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return m, nil
}

func decode(rc io.ReadCloser, format string) (*media, error) {
	var (
		stream beep.StreamSeekCloser
		f      beep.Format
		err    error
	)

	switch format {
	case formatMP3:
		stream, f, err = mp3.Decode(rc)
	case formatFLAC:
		stream, f, err = flac.Decode(rc)
	case formatWAV:
		stream, f, err = wav.Decode(rc)
	case formatVorbis:
		stream, f, err = vorbis.Decode(rc)
	default:
		return nil, domain.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return &media{stream: stream, format: f, src: rc}, nil
}

// download reads the whole item into memory so the decoders can seek.
func (e *Engine) download(ctx context.Context, uri string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("get %s: unexpected status %s", uri, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxMediaSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(body)) > e.maxMediaSize {
		return nil, "", fmt.Errorf("media exceeds %s", humanize.IBytes(uint64(e.maxMediaSize)))
	}

	e.logger.Debug("media downloaded",
		slog.String("uri", uri),
		slog.String("size", humanize.IBytes(uint64(len(body)))),
	)
	return body, resp.Header.Get("Content-Type"), nil
}
