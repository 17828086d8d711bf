package mediastore_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"scribe/internal/services"
	"scribe/internal/services/mediastore"
)

// fakeStore records the multipart protocol traffic for assertions.
type fakeStore struct {
	mu        sync.Mutex
	initiated bool
	parts     map[string][]byte
	completed bool
	aborted   bool
	failPart  int
	single    []byte
}

func (s *fakeStore) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		query := r.URL.Query()
		switch {
		case r.Method == http.MethodPost && query.Has("uploads"):
			s.initiated = true
			s.parts = map[string][]byte{}
			w.Write([]byte(`<InitiateMultipartUploadResult><UploadId>upload-1</UploadId></InitiateMultipartUploadResult>`))
		case r.Method == http.MethodPut && query.Get("uploadId") != "":
			part := query.Get("partNumber")
			if s.failPart > 0 && part == fmt.Sprint(s.failPart) {
				http.Error(w, "part rejected", http.StatusInternalServerError)
				return
			}
			body, _ := io.ReadAll(r.Body)
			s.parts[part] = body
			w.Header().Set("ETag", `"etag-`+part+`"`)
		case r.Method == http.MethodPost && query.Get("uploadId") != "":
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "<Part>") {
				t.Errorf("complete request missing part manifest: %s", body)
			}
			s.completed = true
		case r.Method == http.MethodDelete && query.Get("uploadId") != "":
			s.aborted = true
		case r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			s.single = body
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	}
}

func newClient(t *testing.T, serverURL string) *mediastore.Client {
	t.Helper()
	client, err := mediastore.New(serverURL, "store-token", mediastore.WithPartSize(mediastore.MinPartSize))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestUploadSmallPayloadSinglePut(t *testing.T) {
	store := &fakeStore{}
	server := httptest.NewServer(store.handler(t))
	defer server.Close()

	payload := []byte("small audio payload")
	var calls [][3]int64
	err := newClient(t, server.URL).Upload(context.Background(), mediastore.UploadInput{
		Bucket:      "audio",
		Key:         "uploads/session/visit.wav",
		Body:        bytes.NewReader(payload),
		Size:        int64(len(payload)),
		ContentType: "audio/wav",
		Progress: func(loaded, part, total int64) {
			calls = append(calls, [3]int64{loaded, part, total})
		},
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if string(store.single) != string(payload) {
		t.Fatalf("payload mismatch: %q", store.single)
	}
	if store.initiated {
		t.Fatal("expected no multipart initiation for small payload")
	}
	if len(calls) != 1 || calls[0][0] != int64(len(payload)) || calls[0][1] != 1 {
		t.Fatalf("unexpected progress calls: %v", calls)
	}
}

func TestUploadLargePayloadMultipart(t *testing.T) {
	store := &fakeStore{}
	server := httptest.NewServer(store.handler(t))
	defer server.Close()

	// Two full parts plus a short tail.
	size := int64(mediastore.MinPartSize*2 + 1024)
	payload := bytes.Repeat([]byte("a"), int(size))

	var calls [][3]int64
	err := newClient(t, server.URL).Upload(context.Background(), mediastore.UploadInput{
		Bucket:      "audio",
		Key:         "uploads/session/visit.wav",
		Body:        bytes.NewReader(payload),
		Size:        size,
		ContentType: "audio/wav",
		Progress: func(loaded, part, total int64) {
			calls = append(calls, [3]int64{loaded, part, total})
		},
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if !store.initiated || !store.completed {
		t.Fatalf("expected initiate+complete, got initiated=%v completed=%v", store.initiated, store.completed)
	}
	if store.aborted {
		t.Fatal("unexpected abort on success")
	}
	if len(store.parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(store.parts))
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 progress calls, got %d", len(calls))
	}
	var prev int64
	for i, call := range calls {
		if call[0] < prev {
			t.Fatalf("progress regressed at call %d: %v", i, calls)
		}
		prev = call[0]
		if call[2] != size {
			t.Fatalf("unexpected total in call %d: %v", i, call)
		}
		if call[1] != int64(i+1) {
			t.Fatalf("unexpected part number in call %d: %v", i, call)
		}
	}
	if calls[len(calls)-1][0] != size {
		t.Fatalf("final loaded should equal size: %v", calls)
	}
}

func TestUploadPartFailureAborts(t *testing.T) {
	store := &fakeStore{failPart: 2}
	server := httptest.NewServer(store.handler(t))
	defer server.Close()

	size := int64(mediastore.MinPartSize * 2)
	payload := bytes.Repeat([]byte("b"), int(size))

	err := newClient(t, server.URL).Upload(context.Background(), mediastore.UploadInput{
		Bucket: "audio",
		Key:    "uploads/session/visit.wav",
		Body:   bytes.NewReader(payload),
		Size:   size,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if !store.aborted {
		t.Fatal("expected upload aborted after part failure")
	}
	if store.completed {
		t.Fatal("upload must not complete after part failure")
	}
}

func TestUploadValidatesInput(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:0")
	if err := client.Upload(context.Background(), mediastore.UploadInput{Key: "k", Body: strings.NewReader("x")}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
	if err := client.Upload(context.Background(), mediastore.UploadInput{Bucket: "b", Body: strings.NewReader("x")}); err == nil {
		t.Fatal("expected error for missing key")
	}
	if err := client.Upload(context.Background(), mediastore.UploadInput{Bucket: "b", Key: "k"}); err == nil {
		t.Fatal("expected error for nil body")
	}
}

func TestObjectURI(t *testing.T) {
	if got := mediastore.ObjectURI("audio", "uploads/x/y.wav"); got != "s3://audio/uploads/x/y.wav" {
		t.Fatalf("unexpected uri: %q", got)
	}
}
