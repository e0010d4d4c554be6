package server

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/source"
	"github.com/GriffinCanCode/asciicam/internal/trace"
)

// RenderResponse is the body of POST /api/render.
type RenderResponse struct {
	Text string `json:"text"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	out, ok := s.deps.Frames.Latest()
	if !ok {
		writeError(w, apperrors.New(apperrors.CodeNotFound, "nothing rendered yet"))
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, out.Text)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFramePNG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.deps.Frames.WritePNG(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Params.Snapshot())
}

func (s *Server) handleSetParams(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "read body"))
		return
	}
	p, err := s.applyPatch(body)
	if err != nil {
		trace.Logger(r.Context()).Debug("rejected params", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleRender renders an uploaded image with the current parameters,
// overridden by any query-string values. The image may be the raw body or
// a multipart "image" field.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "http_render")
	defer span.Finish()

	pt, err := params.PatchFromValues(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	p := pt.Apply(s.deps.Params.Snapshot())
	if err := params.Validate(p); err != nil {
		writeError(w, err)
		return
	}

	body, closeBody, err := uploadBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer closeBody()

	frame, err := source.Decode(body)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.deps.Renderer.Render(ctx, frame, p)
	if err != nil {
		writeError(w, err)
		return
	}
	span.SetAttr("cols", res.Cols)

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, res.Text)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse(res))
}

func renderResponse(res engine.Result) RenderResponse {
	return RenderResponse{Text: res.Text, Cols: res.Cols, Rows: res.Rows}
}

func uploadBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, func() {}, nil
	}
	f, _, err := r.FormFile("image")
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInvalidImage, "missing image field")
	}
	return f, func() { _ = f.Close() }, nil
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Copier.Copy()
	if err != nil {
		trace.Logger(r.Context()).Warn("copy failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CopiedMessage{Type: TypeCopied, Bytes: n})
}
