package handlers

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/imageload"
	"github.com/Brownie44l1/classify-api/internal/inference"
	"github.com/Brownie44l1/classify-api/internal/logging"
	"github.com/Brownie44l1/classify-api/internal/metrics"
	"github.com/Brownie44l1/classify-api/internal/vocab"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// multipartMemory is how much of an upload is held in memory before the
// rest spills to a temporary file.
const multipartMemory = 8 << 20

// Deps are the collaborators a Handler needs.
type Deps struct {
	Pipeline       *inference.Pipeline
	Loader         *imageload.Loader
	Vocabulary     *vocab.Vocabulary
	Metrics        *metrics.Metrics
	Logger         logging.Logger
	UploadMaxBytes int64
	MaxTopN        int
}

type Handler struct {
	pipeline  *inference.Pipeline
	loader    *imageload.Loader
	vocab     *vocab.Vocabulary
	metrics   *metrics.Metrics
	logger    logging.Logger
	uploadMax int64
	maxTopN   int
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	return &Handler{
		pipeline:  d.Pipeline,
		loader:    d.Loader,
		vocab:     d.Vocabulary,
		metrics:   d.Metrics,
		logger:    d.Logger.Named("http"),
		uploadMax: d.UploadMaxBytes,
		maxTopN:   d.MaxTopN,
	}
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "pong")
}

// Classes lists the vocabulary in lexicographic order.
func (h *Handler) Classes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.vocab.Sorted())
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Classes []string
		TopN    int
	}{h.vocab.Sorted(), h.pipeline.TopN()}
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Error("render index", logging.Err(err))
	}
}

// Classify handles GET ?url=... and POST multipart uploads in field "file".
// Either request may carry n, the number of predictions to return.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var (
		img    *imageload.Image
		n      int
		err    error
		source string
	)

	switch r.Method {
	case http.MethodGet:
		source = "url"
		if n, err = h.parseN(r); err == nil {
			img, err = h.imageFromURL(r)
		}
	case http.MethodPost:
		source = "upload"
		if img, err = h.imageFromUpload(w, r); err == nil {
			n, err = h.parseN(r)
		}
	default:
		writeError(w, http.StatusMethodNotAllowed, errs.InvalidInput, "method not allowed")
		return
	}

	var res *inference.Result
	if err == nil {
		h.logger.Debug("image loaded",
			logging.String("source", source),
			logging.String("image", img.String()),
			logging.String("request_id", RequestIDFromContext(r.Context())),
		)
		h.metrics.RecordImage(source, img.Size)
		res, err = h.pipeline.Classify(r.Context(), img, n)
	}
	if err != nil {
		h.metrics.RecordClassify(source, string(errs.KindOf(err)))
		h.writeAppError(w, r, err)
		return
	}

	h.metrics.RecordClassify(source, "ok")
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) imageFromURL(r *http.Request) (*imageload.Image, error) {
	start := time.Now()
	img, err := h.loader.FromURL(r.Context(), r.URL.Query().Get("url"))
	h.metrics.RecordFetch(time.Since(start))
	return img, err
}

func (h *Handler) imageFromUpload(w http.ResponseWriter, r *http.Request) (*imageload.Image, error) {
	if h.uploadMax > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploadMax)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "failed to parse form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "no image file provided, use 'file' as the form field name")
	}
	defer file.Close()

	buf, err := io.ReadAll(file)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "failed to read upload")
	}

	h.logger.Debug("received file",
		logging.String("filename", header.Filename),
		logging.Int64("size", header.Size),
		logging.String("request_id", RequestIDFromContext(r.Context())),
	)
	return h.loader.FromBytes(buf)
}

// parseN reads the optional n parameter; 0 selects the pipeline default.
func (h *Handler) parseN(r *http.Request) (int, error) {
	raw := r.FormValue("n")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.New(errs.InvalidInput, "n must be a positive integer, got %q", raw)
	}
	if h.maxTopN > 0 && n > h.maxTopN {
		return 0, errs.New(errs.InvalidInput, "n must be at most %d", h.maxTopN)
	}
	return n, nil
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidInput, errs.Decode:
		return http.StatusBadRequest
	case errs.Fetch:
		return http.StatusBadGateway
	case errs.DegenerateScore:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}

	fields := []logging.Field{
		logging.String("kind", string(kind)),
		logging.String("request_id", RequestIDFromContext(r.Context())),
		logging.Err(err),
	}
	msg := err.Error()
	if status >= 500 {
		h.logger.Error("classification failed", fields...)
		msg = "internal server error"
	} else {
		h.logger.Info("classification rejected", fields...)
	}
	writeError(w, status, kind, msg)
}
