package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"github.com/KaramelBytes/rulescout/internal/analysis"
	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/observability"
	"github.com/KaramelBytes/rulescout/internal/service"
	"github.com/KaramelBytes/rulescout/internal/store"
	"github.com/KaramelBytes/rulescout/internal/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail  string `json:"detail"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// uploadError is a client-side upload problem, answered with status or 400
// when status is zero.
type uploadError struct {
	msg    string
	status int
}

func (e *uploadError) Error() string { return e.msg }

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	if status >= http.StatusInternalServerError {
		s.log.WithField("path", r.URL.Path).Error(resp.Detail)
		observability.RecordError("server", "internal")
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{Status: "ok", Message: "API is running"})
}

// readUpload parses the multipart "file" field into a dataset.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return nil, &uploadError{
				msg:    fmt.Sprintf("Uploaded file exceeds the upload limit of %d bytes", s.opt.MaxUploadBytes),
				status: http.StatusRequestEntityTooLarge,
			}
		}
		return nil, &uploadError{msg: "Missing upload field \"file\""}
	}
	defer file.Close()

	name := header.Filename
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "sql" {
		return nil, &uploadError{msg: "SQL file execution requires database connection. Please export to CSV/XLSX first."}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &uploadError{msg: fmt.Sprintf("Error reading file: %v", err)}
	}
	if len(data) == 0 {
		return nil, &uploadError{msg: "Uploaded file is empty"}
	}

	// Files without a recognised extension are tried as CSV.
	readName := name
	if !utils.SupportedDataFile(name) {
		readName = name + ".csv"
	}
	ds, err := dataset.Read(readName, data, s.opt.Read)
	switch {
	case err == nil:
		return ds, nil
	case errors.Is(err, dataset.ErrEmpty):
		return nil, &uploadError{msg: "Uploaded file is empty"}
	case !utils.SupportedDataFile(name):
		if ext == "" {
			ext = "unknown"
		}
		return nil, &uploadError{msg: fmt.Sprintf("Unsupported file format: %s. Supported formats: CSV, TSV, XLSX", ext)}
	default:
		return nil, &uploadError{msg: fmt.Sprintf("Error parsing file: %v", err)}
	}
}

// uploadFailed answers a readUpload error.
func (s *Server) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	var ue *uploadError
	if errors.As(err, &ue) {
		status := ue.status
		if status == 0 {
			status = http.StatusBadRequest
		}
		s.fail(w, r, status, ErrorResponse{Detail: ue.msg})
		return
	}
	s.fail(w, r, http.StatusInternalServerError, ErrorResponse{Detail: fmt.Sprintf("Error processing file: %v", err)})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	ds, err := s.readUpload(w, r)
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}
	opt := analysis.DefaultOptions()
	q := r.URL.Query()
	if v := q.Get("group_by"); v != "" {
		opt.GroupBy = strings.Split(v, ",")
	}
	opt.Correlations = cast.ToBool(q.Get("correlations"))
	opt.Outliers = cast.ToBool(q.Get("outliers"))

	rep, err := s.svc.Profile(ds, opt)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, ErrorResponse{Detail: fmt.Sprintf("Error processing file: %v", err)})
		return
	}
	render.JSON(w, r, rep)
}

func (s *Server) decision(w http.ResponseWriter, r *http.Request) {
	ds, err := s.readUpload(w, r)
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}
	useML := true
	if v := r.URL.Query().Get("use_ml"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, ErrorResponse{Detail: fmt.Sprintf("Invalid use_ml value: %q", v)})
			return
		}
		useML = b
	}
	render.JSON(w, r, s.svc.Decide(ds, useML))
}

func (s *Server) predictEngine(w http.ResponseWriter, r *http.Request) {
	ds, err := s.readUpload(w, r)
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}
	render.JSON(w, r, s.svc.PredictAll(ds))
}

// createDataset stores the upload, trains a model and, when the form carries
// an "input" JSON object, predicts it.
func (s *Server) createDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.readUpload(w, r)
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}
	var input map[string]any
	if raw := r.FormValue("input"); raw != "" {
		input, err = cast.ToStringMapE(raw)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, ErrorResponse{Detail: "Field \"input\" must be a JSON object"})
			return
		}
	}
	res, err := s.svc.AnalyzeAndPredict(r.Context(), ds, input)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, ErrorResponse{Detail: fmt.Sprintf("Error processing file: %v", err)})
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, res)
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var input map[string]any
	if err := render.DecodeJSON(r.Body, &input); err != nil || len(input) == 0 {
		s.fail(w, r, http.StatusBadRequest, ErrorResponse{Detail: "Request body must be a non-empty JSON object"})
		return
	}

	res, err := s.svc.Predict(r.Context(), id, input)
	var pe *service.PredictionError
	switch {
	case err == nil:
		render.JSON(w, r, res)
	case errors.Is(err, service.ErrModelNotFound):
		s.fail(w, r, http.StatusNotFound, ErrorResponse{Detail: "Model not found. Please analyze a dataset first."})
	case errors.Is(err, service.ErrDatasetNotFound):
		s.fail(w, r, http.StatusNotFound, ErrorResponse{Detail: "Dataset not found."})
	case errors.As(err, &pe):
		s.fail(w, r, http.StatusUnprocessableEntity, ErrorResponse{Detail: pe.Message, Details: pe.Details})
	default:
		s.fail(w, r, http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
	}
}

func (s *Server) predictions(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store()
	if st == nil {
		s.fail(w, r, http.StatusServiceUnavailable, ErrorResponse{Detail: "No store configured"})
		return
	}
	recs, err := st.Predictions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}
	render.JSON(w, r, recs)
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store()
	if st == nil {
		render.JSON(w, r, []store.DatasetInfo{})
		return
	}
	infos, err := st.List(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
		return
	}
	render.JSON(w, r, infos)
}
