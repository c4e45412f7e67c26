package media

import (
	"bytes"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	formatMP3  = "mp3"
	formatFLAC = "flac"
	formatWAV  = "wav"
	formatOGG  = "ogg"
)

// formatFromLocator guesses the audio format from the locator's extension.
func formatFromLocator(locator string) string {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".mp3":
		return formatMP3
	case ".flac":
		return formatFLAC
	case ".wav", ".wave":
		return formatWAV
	case ".ogg", ".oga":
		return formatOGG
	}
	return ""
}

// formatFromContentType maps an HTTP/S3 content type to a format.
func formatFromContentType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mt {
	case "audio/mpeg", "audio/mp3":
		return formatMP3
	case "audio/flac", "audio/x-flac":
		return formatFLAC
	case "audio/wav", "audio/x-wav", "audio/wave":
		return formatWAV
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return formatOGG
	}
	return ""
}

// sniffFormat recognises the format from the first bytes of the payload.
func sniffFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("fLaC")):
		return formatFLAC
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && string(data[8:12]) == "WAVE":
		return formatWAV
	case bytes.HasPrefix(data, []byte("OggS")):
		return formatOGG
	case bytes.HasPrefix(data, []byte("ID3")):
		// ID3v2 is also prepended to FLAC files by some taggers.
		if rest := skipID3v2(data); bytes.HasPrefix(rest, []byte("fLaC")) {
			return formatFLAC
		}
		return formatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return formatMP3
	}
	return ""
}

// skipID3v2 strips an ID3v2 tag from the start of data if present.
func skipID3v2(data []byte) []byte {
	if len(data) < 10 || string(data[0:3]) != "ID3" {
		return data
	}
	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	// Each byte only uses 7 bits (bit 7 is always 0)
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	end := 10 + size
	if end > len(data) {
		return data[len(data):]
	}
	return data[end:]
}

// readSeekNopCloser keeps Seek visible to decoders that type-assert for it.
type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

// decode opens an in-memory payload as a seekable stream.
func decode(data []byte, format string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s   beep.StreamSeekCloser
		f   beep.Format
		err error
	)
	switch format {
	case formatMP3:
		s, f, err = mp3.Decode(readSeekNopCloser{bytes.NewReader(data)})
	case formatFLAC:
		s, f, err = flac.Decode(bytes.NewReader(skipID3v2(data)))
	case formatWAV:
		s, f, err = wav.Decode(bytes.NewReader(data))
	case formatOGG:
		s, f, err = vorbis.Decode(readSeekNopCloser{bytes.NewReader(data)})
	default:
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
	if err != nil {
		return nil, beep.Format{}, errors.Wrapf(err, "decode %s", format)
	}
	return s, f, nil
}
