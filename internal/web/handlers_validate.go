package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/extcsv"
	"github.com/JonMunkholm/woudc-registry/internal/logging"
)

// maxCandidateJSON bounds the body of POST /api/validate.
const maxCandidateJSON = 1 << 20

// ValidateResponse is a validation report and, when stored, its id.
type ValidateResponse struct {
	ID        string       `json:"id,omitempty"`
	Report    *core.Report `json:"report"`
	Canonical string       `json:"canonicalFilename,omitempty"`
}

// handleValidate validates a candidate described as JSON.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCandidateJSON)

	var cand core.CandidateFile
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		s.fail(w, r, invalidRequest("%v", err))
		return
	}
	if cand.Identity.Dataset == "" || cand.Identity.Version == "" {
		s.fail(w, r, invalidRequest("dataset and version are required"))
		return
	}

	s.submit(w, r, &cand, "")
}

// handleValidateFile validates an uploaded extended CSV file from the
// multipart field "file".
func (s *Server) handleValidateFile(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			s.fail(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize))
			return
		}
		s.fail(w, r, invalidRequest("%v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	logger := logging.WithFields(r.Context(), "file", header.Filename, "bytes", header.Size)
	logger.Debug("upload received")

	parsed, err := extcsv.ParseNamed(filepath.Base(header.Filename), file)
	if err != nil {
		var perr *extcsv.ParseError
		if errors.As(err, &perr) {
			err = fmt.Errorf("%w: %w", extcsv.ErrNotExtendedCSV, err)
		}
		s.fail(w, r, err)
		return
	}

	cand, err := parsed.Candidate()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	canonical, _ := parsed.CanonicalFilename()
	s.submit(w, r, cand, canonical)
}

// submit validates cand, stores the report when a store is configured, and
// writes the response. Per-file problems are in the report with status 200.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, cand *core.CandidateFile, canonical string) {
	var opts []core.Option
	if metadataOnly, _ := strconv.ParseBool(r.URL.Query().Get("metadata_only")); metadataOnly {
		opts = append(opts, core.WithMetadataOnly())
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rec, err := s.service.Submit(ctx, cand, opts...)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(ctx).Info("validated",
		"source", cand.Source,
		"declared", cand.Identity.String(),
		"outcome", rec.Report.Outcome(),
		"violations", len(rec.Report.Violations()),
		"report_id", rec.ID,
	)

	status := http.StatusOK
	if rec.ID != "" {
		w.Header().Set("Location", "/api/reports/"+rec.ID)
		status = http.StatusCreated
	}
	writeJSON(w, status, ValidateResponse{ID: rec.ID, Report: rec.Report, Canonical: canonical})
}
