// Package web provides the run dashboard.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/metalagman/atlas/internal/batch"
	"github.com/metalagman/atlas/internal/records"
	"github.com/metalagman/atlas/internal/report"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/rs/zerolog/log"
)

// MaxDocumentBytes bounds POST /runs bodies.
const MaxDocumentBytes = 10 << 20

// SourceWeb marks runs submitted through the dashboard.
const SourceWeb = "web"

//go:embed templates/*.html
var templatesFS embed.FS

// Server provides the web UI handlers and state.
type Server struct {
	store  *snapshot.Store
	runner *batch.Runner
	index  *template.Template
	run    *template.Template
}

// NewServer creates a new web server. Submitted documents are executed by
// runner and stored in the runner's store.
func NewServer(runner *batch.Runner) (*Server, error) {
	if runner == nil || runner.Store == nil {
		return nil, errors.New("web: runner with a snapshot store is required")
	}
	index, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	run, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/run.html")
	if err != nil {
		return nil, fmt.Errorf("parse run template: %w", err)
	}
	return &Server{store: runner.Store, runner: runner, index: index, run: run}, nil
}

// Routes returns the router for the web UI.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)
	mux.HandleFunc("GET /runs/{id}/flow.json", s.handleFlow)
	mux.HandleFunc("POST /runs", s.handleSubmit)
	return mux
}

type section struct {
	Title string
	Body  string
}

type runPage struct {
	Run      snapshot.Run
	Sections []section
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	metas, err := s.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, s.index, metas)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r.PathValue("id"))
	if !ok {
		return
	}
	page := runPage{Run: run}
	if run.Result != nil {
		titles, bodies := report.Sections(*run.Result)
		for _, title := range titles {
			page.Sections = append(page.Sections, section{Title: title, Body: bodies[title]})
		}
	}
	render(w, s.run, page)
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r.PathValue("id"))
	if !ok {
		return
	}
	if run.Result == nil {
		writeJSON(w, http.StatusConflict, errorBody{RunID: run.Meta.ID, Error: fmt.Sprintf("run is %s", run.Meta.Status)})
		return
	}
	writeJSON(w, http.StatusOK, run.Result)
}

type submitResponse struct {
	RunID  string `json:"run_id"`
	Result any    `json:"result"`
}

type errorBody struct {
	RunID string `json:"run_id,omitempty"`
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data, ext, fromForm, err := readDocument(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	doc, err := records.Parse(data, ext)
	if err != nil {
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}

	out := s.runner.RunDocument(r.Context(), SourceWeb, doc)
	if out.Err != nil {
		writeJSON(w, runStatusFor(out.Err), errorBody{RunID: out.RunID, Error: out.Err.Error()})
		return
	}
	log.Info().Str("run_id", out.RunID).Msg("run submitted")

	location := "/runs/" + out.RunID
	if fromForm {
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, submitResponse{RunID: out.RunID, Result: out.Result})
}

// readDocument returns the raw document and a format hint from the Content-Type.
// Form posts carry the document in the "document" field.
func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxDocumentBytes)
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, "", true, fmt.Errorf("parse form: %w", err)
		}
		return []byte(r.PostForm.Get("document")), "", true, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", false, fmt.Errorf("read body: %w", err)
	}
	ext := ""
	switch {
	case strings.Contains(contentType, "yaml"):
		ext = ".yaml"
	case strings.Contains(contentType, "json"):
		ext = ".json"
	}
	return data, ext, false, nil
}

func (s *Server) loadRun(w http.ResponseWriter, id string) (snapshot.Run, bool) {
	run, err := s.store.Load(id)
	if err != nil {
		if errors.Is(err, snapshot.ErrRunNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return snapshot.Run{}, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return snapshot.Run{}, false
	}
	return run, true
}

func statusFor(err error) int {
	var malformed *records.MalformedRecordError
	if errors.As(err, &malformed) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

// runStatusFor blames the client only for bad records; store failures are ours.
func runStatusFor(err error) int {
	if errors.Is(err, records.ErrMalformedRecord) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		log.Warn().Err(err).Msg("write json response")
	}
}
