package media_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/media"
)

func TestSelectedSourceReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "visit.wav")
	payload := []byte("RIFFxxxxWAVE")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write audio file: %v", err)
	}

	src, err := media.Selected(path)
	if err != nil {
		t.Fatalf("Selected returned error: %v", err)
	}
	if src.Kind() != media.KindSelected {
		t.Fatalf("unexpected kind: %s", src.Kind())
	}
	if src.Name() != "visit.wav" {
		t.Fatalf("unexpected name: %q", src.Name())
	}
	if src.Size() != int64(len(payload)) {
		t.Fatalf("unexpected size: %d", src.Size())
	}
	if src.ContentType() != "audio/wav" {
		t.Fatalf("unexpected content type: %q", src.ContentType())
	}

	reader, err := src.Open()
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer reader.Close()
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestSelectedSourceRejectsMissingAndDirectory(t *testing.T) {
	if _, err := media.Selected(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := media.Selected(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestRecordedSourceWrapsBuffer(t *testing.T) {
	src := media.Recorded("capture.webm", []byte("opus-bytes"))
	if src.Kind() != media.KindRecorded {
		t.Fatalf("unexpected kind: %s", src.Kind())
	}
	if src.ContentType() != "audio/webm" {
		t.Fatalf("unexpected content type: %q", src.ContentType())
	}
	reader, err := src.Open()
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer reader.Close()
	got, _ := io.ReadAll(reader)
	if string(got) != "opus-bytes" {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestNoneSourceCannotOpen(t *testing.T) {
	src := media.None()
	if !src.IsNone() {
		t.Fatal("expected IsNone")
	}
	if _, err := src.Open(); err == nil {
		t.Fatal("expected error opening empty source")
	}
	var zero media.Source
	if !zero.IsNone() {
		t.Fatal("expected zero value to be none")
	}
}

func TestContentTypeForName(t *testing.T) {
	cases := map[string]string{
		"a.WAV":   "audio/wav",
		"a.mp3":   "audio/mpeg",
		"a.m4a":   "audio/mp4",
		"a.flac":  "audio/flac",
		"a.ogg":   "audio/ogg",
		"a.weird": "application/octet-stream",
	}
	for name, want := range cases {
		if got := media.ContentTypeForName(name); got != want {
			t.Errorf("ContentTypeForName(%q) = %q, want %q", name, got, want)
		}
	}
}
