package gallery

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

const maxPhotoUploadBytes = 10 << 20

// Handler serves public gallery/banner reads and admin writes.
type Handler struct {
	store  *Store
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a gallery handler.
func NewHandler(store *Store, repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, repo: repo, logger: logger}
}

// ListPhotos handles GET /api/gallery.
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.repo.ListPhotos(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("failed to list gallery photos", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to load gallery"})
		return
	}
	if photos == nil {
		photos = []Photo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "photos": photos})
}

// ListBanners handles GET /api/banners.
func (h *Handler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.repo.ActiveBanners(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("failed to list banners", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to load banners"})
		return
	}
	if banners == nil {
		banners = []Banner{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "banners": banners})
}

// UploadPhoto handles POST /admin/gallery with a multipart "photo" part.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "photo file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	category := r.FormValue("category")
	caption := r.FormValue("caption")

	key, url, err := h.store.UploadPhoto(r.Context(), category, contentType, file)
	if err != nil {
		h.logger.Error("photo upload failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	photo, err := h.repo.AddPhoto(r.Context(), key, url, category, caption)
	if err != nil {
		h.logger.Error("failed to record uploaded photo", "s3_key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to save photo"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "photo": photo})
}

// DeletePhoto handles DELETE /admin/gallery/{photoID}.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "photoID")
	key, err := h.repo.DeletePhoto(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "photo not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete photo", "photo_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to delete photo"})
		return
	}
	if err := h.store.DeletePhoto(r.Context(), key); err != nil {
		// Metadata row is gone; the orphaned object is logged for cleanup.
		h.logger.Warn("failed to delete photo object", "s3_key", key, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type bannerRequest struct {
	Message  string     `json:"message"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
}

// CreateBanner handles POST /admin/banners.
func (h *Handler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "banner message is required"})
		return
	}
	banner, err := h.repo.CreateBanner(r.Context(), Banner{
		Message: req.Message, Active: req.Active, StartsAt: req.StartsAt, EndsAt: req.EndsAt,
	})
	if err != nil {
		h.logger.Error("failed to create banner", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to create banner"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "banner": banner})
}

// UpdateBanner handles PUT /admin/banners/{bannerID}.
func (h *Handler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "banner message is required"})
		return
	}
	err := h.repo.UpdateBanner(r.Context(), Banner{
		ID: chi.URLParam(r, "bannerID"), Message: req.Message, Active: req.Active,
		StartsAt: req.StartsAt, EndsAt: req.EndsAt,
	})
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "banner not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update banner", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to update banner"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteBanner handles DELETE /admin/banners/{bannerID}.
func (h *Handler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	err := h.repo.DeleteBanner(r.Context(), chi.URLParam(r, "bannerID"))
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "banner not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete banner", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to delete banner"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
