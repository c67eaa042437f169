package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/donut/pkg/buildinfo"
	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/errors"
	"github.com/matzehuels/donut/pkg/pipeline"
)

const (
	defaultAddr     = ":8080"
	maxRequestBytes = 32 << 20
	requestIDHeader = "X-Request-ID"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatWebP: "image/webp",
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run the HTTP render service.

Endpoints:
  POST /v1/render   dataset in the body, chart options in the query,
                    answers with the chart (?format=svg|json|png|webp)
  POST /v1/convert  dataset in the body, answers with the frame as JSON
  GET  /healthz     liveness and version

The body is a dataset document (JSON, or TOML with Content-Type
application/toml), or a JSON envelope {"dataset": ..., "settings": ...}
whose settings are merged over the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			return c.runServe(cmd.Context(), addr, timeout, newServer(runner, c.Logger))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")

	return cmd
}

// runServe serves until ctx is cancelled, then shuts down gracefully.
func (c *CLI) runServe(ctx context.Context, addr string, timeout time.Duration, s *server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(timeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	printSuccess("Listening on %s", StyleLink.Render("http://"+displayAddr(addr)))
	printNextStep("Try", fmt.Sprintf("curl -X POST --data-binary @sales.json 'http://%s/v1/render?format=svg'", displayAddr(addr)))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// server holds the HTTP handlers. A single runner serves every request; each
// request builds its own chart.
type server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

func newServer(runner *pipeline.Runner, logger *log.Logger) *server {
	return &server{runner: runner, logger: logger.WithPrefix("http")}
}

func (s *server) routes(timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/convert", s.handleConvert)
	})
	return r
}

type ctxRequestID struct{}

// requestID tags each request with an ID, reusing a valid incoming one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID{}).(string)
	return id
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		l := s.logger.With("id", requestIDFrom(r.Context()))
		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
		}
		if ww.Status() >= 500 {
			l.Error("request", kv...)
			return
		}
		l.Info("request", kv...)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Short()})
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	s.serveFormat(w, r, format)
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	s.serveFormat(w, r, pipeline.FormatJSON)
}

func (s *server) serveFormat(w http.ResponseWriter, r *http.Request, format string) {
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := requestOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	opts.Logger = s.logger

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("X-Donut-Slices", strconv.Itoa(len(result.Summary.Slices)))
	h.Set("X-Donut-Warnings", strconv.Itoa(len(result.Summary.Warnings)))
	h.Set("ETag", `"`+result.FrameHash+`"`)
	if result.CacheInfo.FrameHit && result.CacheInfo.RenderHit {
		h.Set("X-Cache", "hit")
	} else {
		h.Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// envelope is the JSON request form that carries settings with the dataset.
type envelope struct {
	Dataset  json.RawMessage `json:"dataset"`
	Settings json.RawMessage `json:"settings"`
}

// requestOptions reads the dataset from the body and the chart options from
// the query string.
func requestOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}

	format := "json"
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/toml" {
		format = "toml"
	}
	if format == "json" {
		var env envelope
		if json.Unmarshal(body, &env) == nil && len(env.Dataset) > 0 {
			body = env.Dataset
			if len(env.Settings) > 0 {
				s := settings.Default()
				if err := json.Unmarshal(env.Settings, &s); err != nil {
					return opts, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode settings")
				}
				opts.Settings = &s
			}
		}
	}
	if opts.Dataset, err = dataview.Decode(bytes.NewReader(body), format); err != nil {
		return opts, err
	}

	q := r.URL.Query()
	if opts.Width, err = floatParam(q.Get("width")); err != nil {
		return opts, err
	}
	if opts.Height, err = floatParam(q.Get("height")); err != nil {
		return opts, err
	}
	if opts.Focus, err = intParam(q.Get("focus")); err != nil {
		return opts, err
	}
	if opts.Supersample, err = intParam(q.Get("supersample")); err != nil {
		return opts, err
	}
	opts.Pie = boolParam(q.Get("pie"))
	opts.Interactive = boolParam(q.Get("interactive"))
	opts.NoLegend = boolParam(q.Get("no_legend"))
	opts.Script = boolParam(q.Get("script"))
	opts.Background = q.Get("background")
	for _, sel := range q["select"] {
		for _, id := range strings.Split(sel, ",") {
			if id != "" {
				opts.Selected = append(opts.Selected, id)
			}
		}
	}
	return opts, nil
}

func floatParam(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidViewport, err, "bad dimension %q", s)
	}
	return v, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad integer %q", s)
	}
	return v, nil
}

func boolParam(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "id", requestIDFrom(r.Context()), "err", err)
		body.Error.Message = http.StatusText(status)
	}
	body.RequestID = requestIDFrom(r.Context())
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
