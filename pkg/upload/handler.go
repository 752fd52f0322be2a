package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	cerrors "github.com/cohis-dev/cohis/internal/errors"
)

// sniffLen is how much of each file is read for type detection.
const sniffLen = 3072

var validate = validator.New()

// Config holds configuration for the upload handler.
type Config struct {
	// MaxFileSize is the maximum allowed size per file in bytes.
	// Default: 32MB.
	MaxFileSize int64

	// AllowedTypes is a list of allowed MIME types, matched against the
	// detected type and its parents (text/csv is also text/plain). If empty,
	// all types are allowed.
	AllowedTypes []string

	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{MaxFileSize: 32 << 20}
}

// uploadForm holds the non-file fields of an upload.
type uploadForm struct {
	Username string `validate:"required,max=50"`
	FileName string `validate:"required,max=100"`
}

type handler struct {
	store  Store
	config Config
	logger *slog.Logger
}

// Routes returns a router serving:
//
//	POST   /      multipart upload, responds 201 with the stored Infos
//	GET    /      list uploads, optionally filtered by ?username=
//	GET    /{id}  download
//	DELETE /{id}  remove
func Routes(store Store, config *Config) http.Handler {
	if config == nil {
		config = DefaultConfig()
	}
	h := &handler{store: store, config: *config, logger: config.Logger}
	if h.config.MaxFileSize <= 0 {
		h.config.MaxFileSize = DefaultConfig().MaxFileSize
	}
	if h.logger == nil {
		h.logger = slog.Default().With("component", "upload")
	}

	r := chi.NewRouter()
	r.Post("/", h.upload)
	r.Get("/", h.list)
	r.Get("/{id}", h.download)
	r.Delete("/{id}", h.remove)
	return r
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	// Limit the whole body before parsing. Several files may share one
	// request, so the limit is per-file size times a small headroom.
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxFileSize*4+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			cerrors.New("E180").WriteJSON(w, http.StatusRequestEntityTooLarge)
			return
		}
		cerrors.New("E161").WithDetail("Expected a multipart form").WriteJSON(w, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := uploadForm{
		Username: r.FormValue("username"),
		FileName: r.FormValue("file_name"),
	}
	if err := validate.Struct(form); err != nil {
		validationError(err).WriteJSON(w, http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		cerrors.New("E161").WithSource("file").WithDetail("No file provided").WriteJSON(w, http.StatusBadRequest)
		return
	}

	saved := make([]Info, 0, len(headers))
	for _, fh := range headers {
		info, err := h.save(r, form, fh)
		if err != nil {
			h.writeStoreError(w, err, fh.Filename)
			return
		}
		h.logger.Info("file uploaded",
			"id", info.ID,
			"username", info.Username,
			"type", info.ContentType,
			"size", info.Size)
		saved = append(saved, info)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"files": saved})
}

func (h *handler) save(r *http.Request, form uploadForm, fh *multipart.FileHeader) (Info, error) {
	if fh.Size > h.config.MaxFileSize {
		return Info{}, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Info{}, err
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !h.allowed(detected) {
		return Info{}, &typeError{detected: detected.String()}
	}

	return h.store.Save(r.Context(), Info{
		Username:    form.Username,
		Name:        form.FileName,
		Filename:    fh.Filename,
		ContentType: detected.String(),
		Size:        fh.Size,
	}, io.MultiReader(bytes.NewReader(head), f))
}

func (h *handler) allowed(detected *mimetype.MIME) bool {
	if len(h.config.AllowedTypes) == 0 {
		return true
	}
	for m := detected; m != nil; m = m.Parent() {
		for _, t := range h.config.AllowedTypes {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.List(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	if infos == nil {
		infos = []Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": infos})
}

func (h *handler) download(w http.ResponseWriter, r *http.Request) {
	f, err := h.store.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	if _, err := io.Copy(w, f.Reader); err != nil {
		h.logger.Warn("download interrupted", "id", f.ID, "error", err)
	}
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) writeStoreError(w http.ResponseWriter, err error, filename string) {
	var te *typeError
	switch {
	case errors.Is(err, ErrTooLarge):
		cerrors.New("E180").WithSource(filename).WriteJSON(w, http.StatusRequestEntityTooLarge)
	case errors.As(err, &te):
		cerrors.New("E181").
			WithSource(filename).
			WithDetail("Detected type "+te.detected+" is not allowed").
			WriteJSON(w, http.StatusUnsupportedMediaType)
	case errors.Is(err, ErrNotFound):
		cerrors.New("E182").WriteJSON(w, http.StatusNotFound)
	default:
		h.logger.Error("upload store failed", "error", err)
		cerrors.New("E183").WriteJSON(w, http.StatusInternalServerError)
	}
}

type typeError struct {
	detected string
}

func (e *typeError) Error() string {
	return "upload: content type " + e.detected + " not allowed"
}

// validationError reports the first failing field of a validator error.
func validationError(err error) *cerrors.Error {
	e := cerrors.New("E161").WithDetail(err.Error())
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := map[string]string{"Username": "username", "FileName": "file_name"}[fe.Field()]
		e.WithSource(field).WithDetail(field + " failed " + fe.Tag())
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
