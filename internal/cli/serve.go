package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/morphio"
	"github.com/skeltree/skeltree/pkg/observability"
	"github.com/skeltree/skeltree/pkg/pipeline"
	"github.com/skeltree/skeltree/pkg/store"
)

const (
	serveRequestTimeout = 60 * time.Second
	serveMaxBody        = 64 << 20 // 64 MiB skeleton uploads
	serveListLimit      = 100
)

// serveCommand creates the serve command running the HTTP conversion service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		mongoURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Serve skeleton-to-morphology conversion over HTTP.

Endpoints:
  POST /convert            convert an uploaded skeleton, store the result
  GET  /morphologies       list stored conversions
  GET  /morphologies/{id}  fetch a stored morphology by run ID
  GET  /healthz            liveness check

With a MongoDB URI configured (flag or config file), results persist across
restarts; otherwise they are held in memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			if mongoURI == "" {
				mongoURI = c.Config.Serve.MongoURI
			}
			return c.runServe(cmd.Context(), addr, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for persistent morphology storage")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable conversion caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, mongoURI string, noCache bool) error {
	var (
		st  store.Store
		err error
	)
	if mongoURI != "" {
		st, err = store.NewMongoStore(ctx, mongoURI, "", "")
		if err != nil {
			return err
		}
		c.Logger.Info("using mongodb store")
	} else {
		st = store.NewMemoryStore()
		c.Logger.Warn("no mongodb configured, stored morphologies will not survive restarts")
	}
	defer st.Close(context.Background())

	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}

	srv := &server{store: st, runner: runner, logger: c.Logger}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// HTTP Server
// =============================================================================

type server struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(serveRequestTimeout))
	r.Use(hookMiddleware)

	r.Post("/convert", s.handleConvert)
	r.Get("/morphologies", s.handleList)
	r.Get("/morphologies/{id}", s.handleGet)
	r.Get("/healthz", s.handleHealth)

	return r
}

// hookMiddleware fires observability HTTP hooks around each request.
func hookMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path,
			ww.Status(), time.Since(start))
	})
}

// convertRequest is the POST /convert body: the skeleton and annotation
// payloads inline, plus the conversion options.
type convertRequest struct {
	// Name labels the stored result, usually the original file name.
	Name string `json:"name"`

	// Skeleton is the skeleton graph file content.
	Skeleton string `json:"skeleton"`

	// Annotations is the annotation sidecar JSON.
	Annotations json.RawMessage `json:"annotations"`

	// XSection optionally carries cross-section override CSV content.
	XSection string `json:"xsection,omitempty"`

	Threshold      float64 `json:"threshold,omitempty"`
	ForceThreshold bool    `json:"force_threshold,omitempty"`
	Scale          float64 `json:"scale,omitempty"`
}

type convertResponse struct {
	RunID       string            `json:"run_id"`
	Diagnostics string            `json:"diagnostics"`
	Document    *morphio.Document `json:"document"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, serveMaxBody)

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Code: string(skelerrors.ErrCodeInvalidFormat), Message: "invalid request body",
		})
		return
	}
	if req.Skeleton == "" {
		writeError(w, http.StatusBadRequest, errorResponse{
			Code: string(skelerrors.ErrCodeInvalidFormat), Message: "missing skeleton content",
		})
		return
	}
	if req.Name == "" {
		req.Name = "upload.am"
	}

	dir, err := os.MkdirTemp("", "skeltree-convert-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{
			Code: string(skelerrors.ErrCodeInternal), Message: "allocating workspace",
		})
		return
	}
	defer os.RemoveAll(dir)

	opts, err := writeUpload(dir, &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{
			Code: string(skelerrors.ErrCodeInternal), Message: "storing upload",
		})
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, statusForError(err), errorResponse{
			Code:    string(skelerrors.GetCode(err)),
			Message: skelerrors.UserMessage(err),
		})
		return
	}

	entry := store.Entry{RunID: result.RunID, Name: req.Name, Document: result.Document}
	if err := s.store.Put(r.Context(), entry); err != nil {
		s.logger.Error("storing morphology", "run", result.RunID, "err", err)
	}

	writeJSON(w, http.StatusOK, convertResponse{
		RunID:       result.RunID,
		Diagnostics: result.DiagnosticsSummary,
		Document:    result.Document,
	})
}

// writeUpload lays the request payloads out as sibling files so the runner
// sees its usual base-name convention.
func writeUpload(dir string, req *convertRequest) (pipeline.Options, error) {
	skelPath := filepath.Join(dir, "upload.am")
	if err := os.WriteFile(skelPath, []byte(req.Skeleton), 0o600); err != nil {
		return pipeline.Options{}, err
	}
	annPath := filepath.Join(dir, "upload.annotations.json")
	if err := os.WriteFile(annPath, req.Annotations, 0o600); err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		SkeletonPath:   skelPath,
		Threshold:      req.Threshold,
		ForceThreshold: req.ForceThreshold,
		Scale:          req.Scale,
		Overwrite:      true,
	}
	if req.XSection != "" {
		xsPath := filepath.Join(dir, "upload.xsection.csv")
		if err := os.WriteFile(xsPath, []byte(req.XSection), 0o600); err != nil {
			return pipeline.Options{}, err
		}
		opts.XSectionPath = xsPath
	}
	return opts, nil
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context(), serveListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{
			Code: string(skelerrors.ErrCodeInternal), Message: "listing morphologies",
		})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), errorResponse{
			Code:    string(skelerrors.GetCode(err)),
			Message: skelerrors.UserMessage(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusForError maps error codes onto HTTP status codes.
func statusForError(err error) int {
	switch skelerrors.GetCode(err) {
	case skelerrors.ErrCodeMalformedGraph,
		skelerrors.ErrCodeMalformedAnnotations,
		skelerrors.ErrCodeMalformedXSection,
		skelerrors.ErrCodeMissingSoma,
		skelerrors.ErrCodeInvalidThreshold,
		skelerrors.ErrCodeInvalidScale,
		skelerrors.ErrCodeInvalidVerbosity,
		skelerrors.ErrCodeInvalidFormat,
		skelerrors.ErrCodeFileNotFound:
		return http.StatusBadRequest
	case skelerrors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e errorResponse) {
	writeJSON(w, status, e)
}
