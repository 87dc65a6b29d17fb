package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

// uploadFolders maps the folder query value to the Cloudinary sub-folder.
var uploadFolders = map[string]string{
	"":             "applications",
	"applications": "applications",
	"avatars":      "avatars",
}

type UploadHandler struct {
	uploader services.Uploader
	log      *zap.SugaredLogger
}

// NewUploadHandler accepts a nil uploader when Cloudinary is not configured;
// uploads then answer 503.
func NewUploadHandler(uploader services.Uploader, log *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{uploader: uploader, log: log}
}

// Upload stores the multipart "file" field and returns its secure URL.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "File uploads are not configured", nil)
		return
	}
	folder, ok := uploadFolders[r.URL.Query().Get("folder")]
	if !ok {
		httpx.BadRequest(w, "folder must be applications or avatars")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.WriteError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "File must be at most 10 MB", nil)
			return
		}
		httpx.BadRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.BadRequest(w, "file is required")
		return
	}
	defer file.Close()
	if header.Size > maxUploadBytes {
		httpx.WriteError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "File must be at most 10 MB", nil)
		return
	}

	res, err := h.uploader.Upload(r.Context(), file, folder)
	if err != nil {
		httpx.Fail(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}
