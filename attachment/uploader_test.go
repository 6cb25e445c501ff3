package attachment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fieldserve/adminsdk/api"
)

// slotServer issues upload slots pointing back at itself and accepts the
// byte uploads.
func slotServer(t *testing.T, uploadStatus int) (*httptest.Server, *int32, *int32) {
	t.Helper()
	var slots, uploads int32
	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/attachments" && r.Method == http.MethodPost:
			n := atomic.AddInt32(&slots, 1)
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["parent_kind"] != "service_order" {
				t.Errorf("parent_kind = %q, want service_order", req["parent_kind"])
			}
			fmt.Fprintf(w, `{"id": "srv-%d", "filename": "stored-%s", "presign_data": {"url": %q}}`,
				n, req["filename"], server.URL+"/upload")
		case strings.HasPrefix(r.URL.Path, "/upload"):
			atomic.AddInt32(&uploads, 1)
			io.Copy(io.Discard, r.Body)
			w.WriteHeader(uploadStatus)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	return server, &slots, &uploads
}

func newTestUploader(t *testing.T, baseURL string) *Uploader {
	t.Helper()
	client, err := api.New(api.Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("api.New() error: %v", err)
	}
	return NewUploader(client)
}

func TestUploadPending_TwoPhaseFlow(t *testing.T) {
	server, slots, uploads := slotServer(t, http.StatusOK)
	defer server.Close()

	u := newTestUploader(t, server.URL)
	att := map[string]any{
		"file": &LocalFile{Name: "report.pdf", ContentType: "application/pdf", Data: []byte("pdf")},
	}

	err := u.UploadPending(context.Background(), "service_order", []map[string]any{att})
	if err != nil {
		t.Fatalf("UploadPending() error: %v", err)
	}
	if *slots != 1 || *uploads != 1 {
		t.Errorf("slots = %d uploads = %d, want 1 and 1", *slots, *uploads)
	}
	if att["_id"] != "srv-1" {
		t.Errorf("_id = %v, want srv-1", att["_id"])
	}
	if att["filename"] != "stored-report.pdf" {
		t.Errorf("filename = %v, want stored-report.pdf", att["filename"])
	}
	if _, still := att["file"]; still {
		t.Error("local file handle should be discarded after upload")
	}
}

func TestUploadPending_SkipsPersistedAndFileless(t *testing.T) {
	server, slots, _ := slotServer(t, http.StatusOK)
	defer server.Close()

	u := newTestUploader(t, server.URL)
	persisted := map[string]any{
		"created_at": "2026-01-15",
		"file":       &LocalFile{Name: "old.pdf", Data: []byte("x")},
	}
	fileless := map[string]any{"filename": "noted.txt"}

	err := u.UploadPending(context.Background(), "service_order", []map[string]any{persisted, fileless})
	if err != nil {
		t.Fatalf("UploadPending() error: %v", err)
	}
	if *slots != 0 {
		t.Errorf("slots = %d, want 0 for persisted/fileless entries", *slots)
	}
}

func TestUploadPending_ConcurrentBatch(t *testing.T) {
	server, slots, uploads := slotServer(t, http.StatusOK)
	defer server.Close()

	u := newTestUploader(t, server.URL)
	batch := make([]map[string]any, 5)
	for i := range batch {
		batch[i] = map[string]any{
			"file": &LocalFile{Name: fmt.Sprintf("f%d.txt", i), Data: []byte("x")},
		}
	}

	if err := u.UploadPending(context.Background(), "service_order", batch); err != nil {
		t.Fatalf("UploadPending() error: %v", err)
	}
	if *slots != 5 || *uploads != 5 {
		t.Errorf("slots = %d uploads = %d, want 5 and 5", *slots, *uploads)
	}
	for i, att := range batch {
		if att["_id"] == nil {
			t.Errorf("batch[%d] missing server id", i)
		}
	}
}

func TestUploadPending_FailureAbortsBatch(t *testing.T) {
	server, _, _ := slotServer(t, http.StatusInternalServerError)
	defer server.Close()

	u := newTestUploader(t, server.URL)
	att := map[string]any{
		"file": &LocalFile{Name: "doomed.txt", Data: []byte("x")},
	}

	err := u.UploadPending(context.Background(), "service_order", []map[string]any{att})
	if err == nil {
		t.Fatal("UploadPending() should fail when the byte upload fails")
	}
	if _, still := att["file"]; !still {
		t.Error("failed entry should keep its local file handle")
	}
}

func TestUploadPending_EmptyBatch(t *testing.T) {
	u := newTestUploader(t, "http://unused")
	if err := u.UploadPending(context.Background(), "service_order", nil); err != nil {
		t.Errorf("UploadPending(nil) error: %v", err)
	}
}
