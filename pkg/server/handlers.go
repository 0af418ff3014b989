package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tokendeck/pkg/buildinfo"
	"github.com/matzehuels/tokendeck/pkg/deck"
	"github.com/matzehuels/tokendeck/pkg/deck/sink"
	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/extract"
	"github.com/matzehuels/tokendeck/pkg/history"
	"github.com/matzehuels/tokendeck/pkg/imageset"
	pkgio "github.com/matzehuels/tokendeck/pkg/io"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

// LayoutResponse is the body returned by POST /v1/layout.
type LayoutResponse struct {
	Results []layout.Result `json:"results"`
	Skipped int             `json:"skipped"`
}

// RunsResponse is the body returned by GET /v1/runs.
type RunsResponse struct {
	Runs []history.Run `json:"runs"`
}

// layoutRequest is a decoded body of /v1/layout or /v1/decks. The body is
// either a bare groups array or an object with "groups" and optional
// "page", "grid", "title" and "output" members.
type layoutRequest struct {
	groups []layout.TokenGroup
	stats  pkgio.ReadStats
	page   layout.PageGeometry
	grid   layout.GridConfig
	title  string
	output string
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, err := s.readLayoutRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := layout.LayoutAll(req.groups, req.page, req.grid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{Results: results, Skipped: req.stats.Skipped})
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	format, err := sink.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.readLayoutRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.now()
	name, err := deck.OutputName(req.output, now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	title := req.title
	if title == "" {
		title = strings.TrimSuffix(name, deck.Extension)
	}
	d, err := deck.Build(req.groups, deck.WithPage(req.page), deck.WithGrid(req.grid), deck.WithTitle(title))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := sink.Render(format, d, sink.WithCreated(now))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := strings.TrimSuffix(name, deck.Extension) + format.Extension()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "extraction is not configured on this server"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeError(w, r, bodyError(err, "parse multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := s.readUploads(r.MultipartForm.File["images"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ex := s.extractor
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		if rf, ok := ex.(extract.Refresher); ok {
			ex = rf.Refreshing()
		}
	}
	groups, err := ex.Extract(r.Context(), images)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := pkgio.WriteGroups(groups, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// readUploads loads the uploaded images in form order. Later files with an
// already seen name are dropped.
func (s *Server) readUploads(files []*multipart.FileHeader) ([]imageset.Image, error) {
	if len(files) == 0 {
		return nil, extract.ErrNoImages
	}
	seen := make(map[string]bool, len(files))
	images := make([]imageset.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "open %s", fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "read %s", fh.Filename)
		}
		img, err := imageset.FromBytes(fh.Filename, data, s.cfg.MaxImageDimension)
		if err != nil {
			return nil, err
		}
		if seen[img.Name] {
			s.logger.Debug("dropping duplicate upload", "name", img.Name)
			continue
		}
		seen[img.Name] = true
		images = append(images, img)
	}
	return images, nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		limit = n
	}
	runs, err := s.history.List(r.Context(), history.Limit(limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) readLayoutRequest(w http.ResponseWriter, r *http.Request) (*layoutRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		return nil, bodyError(err, "read body")
	}
	return s.decodeLayoutRequest(body)
}

func (s *Server) decodeLayoutRequest(body []byte) (*layoutRequest, error) {
	groups, stats, err := pkgio.DecodeGroups(body)
	if err != nil {
		return nil, err
	}
	req := &layoutRequest{
		groups: groups,
		stats:  stats,
		page:   s.cfg.Page,
		grid:   s.cfg.Grid,
	}

	body = bytes.TrimSpace(body)
	if body[0] != '{' {
		return req, nil
	}
	var opts struct {
		Page   json.RawMessage `json:"page"`
		Grid   json.RawMessage `json:"grid"`
		Title  string          `json:"title"`
		Output string          `json:"output"`
	}
	if err := json.Unmarshal(body, &opts); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	// Overrides are decoded onto the defaults so partial objects work.
	if len(opts.Page) > 0 {
		if err := json.Unmarshal(opts.Page, &req.page); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode page")
		}
	}
	if len(opts.Grid) > 0 {
		if err := json.Unmarshal(opts.Grid, &req.grid); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode grid")
		}
		req.grid.Columns = s.cfg.Grid.Columns
	}
	req.title = opts.Title
	req.output = opts.Output
	return req, nil
}

func bodyError(err error, what string) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.New(errCodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", what)
}
