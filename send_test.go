package ultraocr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeStorage collects presigned-URL uploads by slot.
type fakeStorage struct {
	mu      sync.Mutex
	uploads []string          // slot names in upload order
	bodies  map[string]string // slot -> body
	status  int
}

func newFakeStorage() (*fakeStorage, *httptest.Server) {
	storage := &fakeStorage{bodies: map[string]string{}, status: http.StatusOK}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if got := r.Header.Get("Authorization"); got != "" {
			storage.mu.Lock()
			storage.bodies["_auth_leak"] = got
			storage.mu.Unlock()
		}
		slot := strings.TrimPrefix(r.URL.Path, "/upload/")
		body, _ := io.ReadAll(r.Body)
		storage.mu.Lock()
		storage.uploads = append(storage.uploads, slot)
		storage.bodies[slot] = string(body)
		status := storage.status
		storage.mu.Unlock()
		w.WriteHeader(status)
	}))
	return storage, server
}

func signedURLs(storageURL string, slots ...string) map[string]string {
	urls := make(map[string]string, len(slots))
	for _, slot := range slots {
		urls[slot] = storageURL + "/upload/" + slot
	}
	return urls
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestSendJobUploadsDocumentOnly(t *testing.T) {
	storage, storageServer := newFakeStorage()
	defer storageServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr/job/cnh" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(SignedURLResponse{
			ID:        "job-001",
			StatusURL: "https://example.com/status",
			URLs:      signedURLs(storageServer.URL, "document", "selfie", "extra_document"),
		})
	}))
	defer api.Close()

	client := newTestClient(api)
	docPath := writeTempFile(t, "doc.jpg", "document-bytes")
	// A facematch path is given but the facematch flag is not: the file must
	// not be read or uploaded.
	facematchPath := writeTempFile(t, "selfie.jpg", "selfie-bytes")

	created, err := client.SendJob(context.Background(), "cnh", docPath, facematchPath, "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "job-001" {
		t.Errorf("expected job-001, got %s", created.ID)
	}
	if len(storage.uploads) != 1 || storage.uploads[0] != "document" {
		t.Errorf("expected a single document upload, got %v", storage.uploads)
	}
	if storage.bodies["document"] != "document-bytes" {
		t.Errorf("unexpected document body: %q", storage.bodies["document"])
	}
	if _, leaked := storage.bodies["_auth_leak"]; leaked {
		t.Error("bearer token must not be sent to signed URLs")
	}
}

func TestSendJobFacematchAndExtraUploadInOrder(t *testing.T) {
	storage, storageServer := newFakeStorage()
	defer storageServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("facematch") != "true" || r.URL.Query().Get("extra-document") != "true" {
			t.Errorf("expected facematch and extra-document flags, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(SignedURLResponse{
			ID:   "job-002",
			URLs: signedURLs(storageServer.URL, "document", "selfie", "extra_document"),
		})
	}))
	defer api.Close()

	client := newTestClient(api)
	docPath := writeTempFile(t, "doc.jpg", "doc")
	selfiePath := writeTempFile(t, "selfie.jpg", "selfie")
	extraPath := writeTempFile(t, "extra.jpg", "extra")
	params := map[string]string{"facematch": "true", "extra-document": "true"}

	if _, err := client.SendJob(context.Background(), "cnh", docPath, selfiePath, extraPath, nil, params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"document", "selfie", "extra_document"}
	if len(storage.uploads) != len(want) {
		t.Fatalf("expected %d uploads, got %v", len(want), storage.uploads)
	}
	for i, slot := range want {
		if storage.uploads[i] != slot {
			t.Errorf("upload %d: expected %s, got %s", i, slot, storage.uploads[i])
		}
	}
}

func TestSendJobUploadRejectedAbortsBeforePolling(t *testing.T) {
	storage, storageServer := newFakeStorage()
	defer storageServer.Close()
	storage.status = http.StatusUnauthorized

	statusCalls := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/result/") || strings.Contains(r.URL.Path, "/status/") {
			statusCalls++
			w.WriteHeader(http.StatusOK)
			return
		}
		json.NewEncoder(w).Encode(SignedURLResponse{
			ID:   "job-003",
			URLs: signedURLs(storageServer.URL, "document"),
		})
	}))
	defer api.Close()

	client := newTestClient(api)
	docPath := writeTempFile(t, "doc.jpg", "doc")

	_, err := client.CreateAndWaitJob(context.Background(), "cnh", docPath, "", "", nil, nil)

	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected UploadError, got: %v", err)
	}
	if uploadErr.Slot != "document" {
		t.Errorf("expected document slot in error, got %s", uploadErr.Slot)
	}
	var statusErr *InvalidStatusCodeError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized {
		t.Errorf("expected wrapped InvalidStatusCodeError with 401, got: %v", err)
	}
	if statusCalls != 0 {
		t.Errorf("no status poll may happen after a failed upload, got %d", statusCalls)
	}
}

func TestSendJobBase64SetsFlagAndUploadsPayload(t *testing.T) {
	storage, storageServer := newFakeStorage()
	defer storageServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("base64") != "true" {
			t.Errorf("expected base64=true, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(SignedURLResponse{
			ID:   "job-004",
			URLs: signedURLs(storageServer.URL, "document"),
		})
	}))
	defer api.Close()

	client := newTestClient(api)
	if _, err := client.SendJobBase64(context.Background(), "cnh", []byte("aGVsbG8="), nil, nil, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storage.bodies["document"] != "aGVsbG8=" {
		t.Errorf("expected base64 payload uploaded verbatim, got %q", storage.bodies["document"])
	}
}

func TestSendBatch(t *testing.T) {
	storage, storageServer := newFakeStorage()
	defer storageServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr/batch/rg" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var metadata []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
			t.Fatalf("decode metadata: %v", err)
		}
		if len(metadata) != 2 {
			t.Errorf("expected 2 metadata entries, got %d", len(metadata))
		}
		json.NewEncoder(w).Encode(SignedURLResponse{
			ID:   "batch-001",
			URLs: signedURLs(storageServer.URL, "document"),
		})
	}))
	defer api.Close()

	client := newTestClient(api)
	docPath := writeTempFile(t, "batch.zip", "zip-bytes")
	metadata := []map[string]any{
		{"filename": "a.jpg"},
		{"filename": "b.jpg"},
	}

	created, err := client.SendBatch(context.Background(), "rg", docPath, metadata, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "batch-001" {
		t.Errorf("expected batch-001, got %s", created.ID)
	}
	if storage.bodies["document"] != "zip-bytes" {
		t.Errorf("unexpected batch document body: %q", storage.bodies["document"])
	}
}

func TestSendBatchRejectsMalformedMetadata(t *testing.T) {
	apiCalls := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
	}))
	defer api.Close()

	client := newTestClient(api)
	client.cfg.ValidateMetadata = true
	docPath := writeTempFile(t, "batch.zip", "zip-bytes")
	metadata := []map[string]any{{"client_data": "no filename here"}}

	if _, err := client.SendBatch(context.Background(), "rg", docPath, metadata, nil); err == nil {
		t.Fatal("expected a metadata validation error")
	}
	if apiCalls != 0 {
		t.Errorf("malformed metadata must fail before any request, got %d calls", apiCalls)
	}
}

func TestSendJobSingleStep(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr/job/send/cnh" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body singleStepRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Data != "ZG9j" {
			t.Errorf("unexpected data: %q", body.Data)
		}
		if body.Facematch != "c2VsZmll" {
			t.Errorf("expected facematch payload with flag set, got %q", body.Facematch)
		}
		if body.Extra != "" {
			t.Errorf("extra payload must be omitted without its flag, got %q", body.Extra)
		}
		json.NewEncoder(w).Encode(CreatedResponse{ID: "job-005", StatusURL: "https://example.com/status"})
	}))
	defer api.Close()

	client := newTestClient(api)
	params := map[string]string{"facematch": "true"}

	created, err := client.SendJobSingleStep(context.Background(), "cnh", "ZG9j", "c2VsZmll", "ZXh0cmE=", nil, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "job-005" {
		t.Errorf("expected job-005, got %s", created.ID)
	}
}

func TestCreateAndWaitJobRoundTrip(t *testing.T) {
	storage, storageServer := newFakeStorage()
	defer storageServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ocr/job/cnh":
			json.NewEncoder(w).Encode(SignedURLResponse{
				ID:   "job-rt",
				URLs: signedURLs(storageServer.URL, "document"),
			})
		case r.URL.Path == "/ocr/job/result/job-rt/job-rt":
			json.NewEncoder(w).Encode(JobResult{JobID: "job-rt", Status: StatusDone})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	client := newTestClient(api)
	docPath := writeTempFile(t, "doc.jpg", "doc")

	result, err := client.CreateAndWaitJob(context.Background(), "cnh", docPath, "", "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.JobID != "job-rt" || result.Status != StatusDone {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(storage.uploads) != 1 {
		t.Errorf("expected one upload, got %v", storage.uploads)
	}
}
