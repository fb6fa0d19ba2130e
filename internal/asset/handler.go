package asset

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	"maillot-be/internal/logger"
	"maillot-be/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	formField = "images"
	// in-memory ceiling for the parsed form; larger parts spill to disk
	maxMemory = 32 << 20
	// ceiling for a whole upload request
	maxUploadBytes = 64 << 20
)

type Handler struct {
	store   Store
	maxBody int64
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store, maxBody: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r *mux.Router, admin func(http.Handler) http.Handler) {
	r.Handle("/upload", admin(http.HandlerFunc(h.Upload))).Methods(http.MethodPost)
}

type uploadResult struct {
	Message string   `json:"message"`
	URLs    []string `json:"urls"`
}

// Upload stores every file of the "images" field and returns the URLs in
// the order the files were sent.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "handler"),
		zap.String("method", "Upload"),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Info("rejected upload form", zap.Error(err))
		utils.WriteJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File[formField]
	}
	if len(files) == 0 {
		utils.WriteJSONError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	if h.store == nil {
		log.Error("upload attempted without asset store")
		writeUploadError(w, ErrNotConfigured)
		return
	}

	urls := make([]string, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup

	for i, fh := range files {
		wg.Add(1)
		go func(i int, fh *multipart.FileHeader) {
			defer wg.Done()
			urls[i], errs[i] = h.uploadOne(r, fh)
		}(i, fh)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		log.Error("upload failed", zap.Int("files", len(files)), zap.Error(err))
		writeUploadError(w, err)
		return
	}

	log.Info("images uploaded", zap.Int("files", len(files)))
	utils.WriteJSON(w, http.StatusOK, uploadResult{
		Message: "Images uploaded successfully",
		URLs:    urls,
	})
}

func (h *Handler) uploadOne(r *http.Request, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", ErrUpload, fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrUpload, fh.Filename, err)
	}

	return h.store.Upload(r.Context(), fh.Filename, data)
}

func writeUploadError(w http.ResponseWriter, err error) {
	utils.WriteJSON(w, http.StatusBadGateway, map[string]string{
		"message": "Image upload failed",
		"error":   err.Error(),
	})
}
