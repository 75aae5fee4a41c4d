package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"text2phenotype.com/standoff/metrics"
	"text2phenotype.com/standoff/standoff"
)

const maxRequestBytes = 32 << 20

const TidHeader = "X-Request-Id"

// GraphRequest carries the contents of one entity file and its event files.
type GraphRequest struct {
	DocumentID string   `json:"document_id"`
	Config     string   `json:"config"`
	Themes     string   `json:"themes"`
	Events     []string `json:"events"`
}

type errorResponse struct {
	Tid        string `json:"tid"`
	Error      string `json:"error"`
	ErrorClass string `json:"error_class,omitempty"`
}

type Server struct {
	loaders standoff.Loaders
	metrics *metrics.Recorder
}

func NewServer(loaders standoff.Loaders, recorder *metrics.Recorder) *Server {
	return &Server{loaders: loaders, metrics: recorder}
}

func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/graph", server.BuildGraph)
	mux.Handle("/metrics", server.metrics.Handler())
	return mux
}

func (server *Server) BuildGraph(w http.ResponseWriter, r *http.Request) {
	tid := r.Header.Get(TidHeader)
	if tid == "" {
		tid = uuid.New().String()
	}
	w.Header().Set(TidHeader, tid)
	w.Header().Set("Content-Type", "application/json")
	reqLogger := makeRequestLogger(r, tid)

	if r.Method != http.MethodPost {
		writeError(w, &reqLogger, tid, http.StatusMethodNotAllowed, errors.New("only 'POST' method is allowed here"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, &reqLogger, tid, http.StatusBadRequest, fmt.Errorf("could not read request body: %w", err))
		return
	}
	var request GraphRequest
	if err := json.Unmarshal(body, &request); err != nil {
		writeError(w, &reqLogger, tid, http.StatusBadRequest, fmt.Errorf("could not parse request body: %w", err))
		return
	}
	load, ok := server.loaders.Get(request.Config)
	if !ok {
		writeError(w, &reqLogger, tid, http.StatusNotFound, fmt.Errorf("unknown configuration %q", request.Config))
		return
	}

	docID := request.DocumentID
	if docID == "" {
		docID = tid
	}
	doc := standoff.Document{
		ID:     docID,
		Themes: standoff.StringSource(docID+".themes", request.Themes),
	}
	for i, events := range request.Events {
		doc.Events = append(doc.Events, standoff.StringSource(fmt.Sprintf("%s.events[%d]", docID, i), events))
	}

	reqLogger.Info().Str("doc_id", docID).Msg("Building annotation graph for request from API")
	graph, err := server.metrics.Build(metrics.SourceAPI, load, doc)
	if err != nil {
		writeError(w, &reqLogger, tid, http.StatusUnprocessableEntity, err)
		return
	}
	if err := json.NewEncoder(w).Encode(graph); err != nil {
		reqLogger.Err(err).Msg("Failed to write response")
		return
	}
	reqLogger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

func writeError(w http.ResponseWriter, reqLogger *zerolog.Logger, tid string, status int, err error) {
	class := ""
	if status == http.StatusUnprocessableEntity {
		class = standoff.ErrorClass(err)
	}
	reqLogger.Err(err).Int("status", status).Str("error_class", class).Msg("Request failed")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Tid: tid, Error: err.Error(), ErrorClass: class})
}
