package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies how the audio payload entered the submission.
type Kind string

const (
	KindNone     Kind = "none"
	KindSelected Kind = "selected"
	KindRecorded Kind = "recorded"
)

// Source is a tagged union over the audio payload of a submission attempt:
// a file selected from disk, a recorded capture held in memory, or nothing.
type Source struct {
	kind        Kind
	path        string
	name        string
	size        int64
	data        []byte
	contentType string
}

// None returns the empty source. Submitting it fails validation.
func None() Source {
	return Source{kind: KindNone}
}

// Selected wraps an on-disk audio file. The file must exist and be regular.
func Selected(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("stat audio file: %w", err)
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("audio file %q is a directory", path)
	}
	name := filepath.Base(path)
	return Source{
		kind:        KindSelected,
		path:        path,
		name:        name,
		size:        info.Size(),
		contentType: ContentTypeForName(name),
	}, nil
}

// Recorded wraps a live capture held in memory under the given file name.
func Recorded(name string, data []byte) Source {
	return Source{
		kind:        KindRecorded,
		name:        name,
		size:        int64(len(data)),
		data:        data,
		contentType: ContentTypeForName(name),
	}
}

func (s Source) Kind() Kind { return s.kind }

// IsNone reports whether no payload is attached.
func (s Source) IsNone() bool { return s.kind == KindNone || s.kind == "" }

// Name returns the original file name of the payload.
func (s Source) Name() string { return s.name }

// Path returns the on-disk location for selected files, empty otherwise.
func (s Source) Path() string { return s.path }

// Size returns the payload size in bytes.
func (s Source) Size() int64 { return s.size }

// ContentType returns the MIME type derived from the payload's file name.
func (s Source) ContentType() string { return s.contentType }

// Open returns a reader over the payload bytes.
func (s Source) Open() (io.ReadCloser, error) {
	switch s.kind {
	case KindSelected:
		file, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("open audio file: %w", err)
		}
		return file, nil
	case KindRecorded:
		return io.NopCloser(bytes.NewReader(s.data)), nil
	default:
		return nil, fmt.Errorf("no audio source attached")
	}
}

// ContentTypeForName maps an audio file extension to its MIME type.
func ContentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".amr":
		return "audio/amr"
	case ".webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}
