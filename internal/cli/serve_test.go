package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/pipeline"
	"github.com/skeltree/skeltree/pkg/store"
)

const serveTestSkeleton = `# AmiraMesh 3D ASCII 2.0

@1
0 0 0
1 0 0
2 0 0

@2
0 1
1 2

@3
2
2

@4
0 0 0
1 0 0
1 0 0
2 0 0

@5
2.0
1.0
1.0
1.0
`

func newTestServer(t *testing.T) (*server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	logger := newLogger(io.Discard, log.ErrorLevel)
	runner := pipeline.NewRunner(nil, nil, logger)
	return &server{store: st, runner: runner, logger: logger}, st
}

func postConvert(t *testing.T, h http.Handler, req convertRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", bytes.NewReader(body)))
	return rec
}

func TestServeHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServeConvert(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.routes()

	rec := postConvert(t, h, convertRequest{
		Name:        "cell.am",
		Skeleton:    serveTestSkeleton,
		Annotations: json.RawMessage(`{"soma": {"centre": {"x": 0, "y": 0, "z": 0}, "radius": 0.5}}`),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp convertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.RunID == "" {
		t.Error("missing run ID")
	}
	if resp.Document == nil || len(resp.Document.Sections) != 1 {
		t.Fatalf("document = %+v, want 1 section", resp.Document)
	}
	if resp.Diagnostics != "clean" {
		t.Errorf("diagnostics = %q, want clean", resp.Diagnostics)
	}

	// stored and retrievable
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/morphologies/"+resp.RunID, nil))
	if rec2.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec2.Code)
	}
	var entry store.Entry
	if err := json.Unmarshal(rec2.Body.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry.Name != "cell.am" {
		t.Errorf("stored name = %q", entry.Name)
	}

	// and listed
	entries, err := st.List(httptest.NewRequest(http.MethodGet, "/", nil).Context(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("stored entries = %d, want 1", len(entries))
	}
}

func TestServeConvertBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	tests := []struct {
		name string
		req  convertRequest
		want int
	}{
		{
			name: "missing skeleton",
			req:  convertRequest{Annotations: json.RawMessage(`{}`)},
			want: http.StatusBadRequest,
		},
		{
			name: "missing soma",
			req: convertRequest{
				Skeleton:    serveTestSkeleton,
				Annotations: json.RawMessage(`{}`),
			},
			want: http.StatusBadRequest,
		},
		{
			name: "negative threshold",
			req: convertRequest{
				Skeleton:    serveTestSkeleton,
				Annotations: json.RawMessage(`{"soma": {"centre": {"x": 0, "y": 0, "z": 0}, "radius": 0.5}}`),
				Threshold:   -1,
			},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postConvert(t, h, tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
			var e errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if e.Code == "" {
				t.Error("error response missing code")
			}
		})
	}
}

func TestServeGetMissing(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/morphologies/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var e errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.Code != string(skelerrors.ErrCodeNotFound) {
		t.Errorf("code = %q, want %s", e.Code, skelerrors.ErrCodeNotFound)
	}
}
