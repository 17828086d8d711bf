package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeServices backs a full submit round trip: object PUT, job creation,
// then status fetches that report IN_PROGRESS once before COMPLETED.
func fakeServices(t *testing.T) (storage, transcribe *httptest.Server) {
	t.Helper()

	var polls atomic.Int64
	storage = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "unexpected storage call", http.StatusBadRequest)
			return
		}
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(storage.Close)

	transcribe = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/jobs":
			var input struct {
				MedicalScribeJobName string
			}
			if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"MedicalScribeJob": map[string]any{
					"MedicalScribeJobName":   input.MedicalScribeJobName,
					"MedicalScribeJobStatus": "SUBMITTED",
				},
			})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/jobs/"):
			name := strings.TrimPrefix(r.URL.Path, "/jobs/")
			status := "COMPLETED"
			if polls.Add(1) == 1 {
				status = "IN_PROGRESS"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"MedicalScribeJob": map[string]any{
					"MedicalScribeJobName":   name,
					"MedicalScribeJobStatus": status,
				},
			})
		default:
			http.Error(w, "unexpected transcribe call", http.StatusBadRequest)
		}
	}))
	t.Cleanup(transcribe.Close)

	return storage, transcribe
}

func TestSubmitEndToEnd(t *testing.T) {
	storage, transcribe := fakeServices(t)
	env := setupCLITestEnv(t, cliConfig{
		storageEndpoint:    storage.URL,
		transcribeEndpoint: transcribe.URL,
		pollInterval:       1,
	})

	audioPath := filepath.Join(env.baseDir, "visit.wav")
	if err := os.WriteFile(audioPath, []byte("fake-wav-bytes"), 0o644); err != nil {
		t.Fatalf("write audio file: %v", err)
	}

	out, _, err := runCLI(t, env,
		"submit", audioPath,
		"--name", "session-abc",
		"--mode", "speaker",
		"--max-speakers", "2",
	)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Job session-abc completed")
	requireContains(t, out, "Conversation: /conversation/session-abc")

	listOut, _, err := runCLI(t, env, "jobs", "show", "session-abc")
	if err != nil {
		t.Fatalf("jobs show after submit: %v", err)
	}
	requireContains(t, listOut, "completed")
}

func TestSubmitRejectsBadMode(t *testing.T) {
	env := setupCLITestEnv(t, cliConfig{})

	audioPath := filepath.Join(env.baseDir, "visit.wav")
	if err := os.WriteFile(audioPath, []byte("fake-wav-bytes"), 0o644); err != nil {
		t.Fatalf("write audio file: %v", err)
	}

	if _, _, err := runCLI(t, env, "submit", audioPath, "--mode", "sideways"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSubmitRequiresSource(t *testing.T) {
	env := setupCLITestEnv(t, cliConfig{})

	if _, _, err := runCLI(t, env, "submit"); err == nil {
		t.Fatal("expected error when no audio source given")
	}
}
