package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/mohamadaskravi2050-crypto/Muzic56/cache"
	"github.com/mohamadaskravi2050-crypto/Muzic56/config"
	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"
	"github.com/mohamadaskravi2050-crypto/Muzic56/model"
	"github.com/mohamadaskravi2050-crypto/Muzic56/repository"
	"github.com/mohamadaskravi2050-crypto/Muzic56/storage"
)

// APIHandler carries the dependencies of every HTTP handler.
type APIHandler struct {
	userRepo     repository.UserRepository
	musicRepo    repository.MusicRepository
	playlistRepo repository.PlaylistRepository
	store        storage.FileStore
	musicCache   *cache.MusicCache
	cfg          *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	musicRepo repository.MusicRepository,
	playlistRepo repository.PlaylistRepository,
	store storage.FileStore,
	musicCache *cache.MusicCache,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		musicRepo:    musicRepo,
		playlistRepo: playlistRepo,
		store:        store,
		musicCache:   musicCache,
		cfg:          cfg,
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError writes an error body in the {"error": ...} shape the API uses
// everywhere. Internal errors surface their message directly.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// absoluteAssetURL resolves a stored object key to an absolute URL using the
// incoming request's scheme and host.
func absoluteAssetURL(r *http.Request, key string) string {
	if key == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s/media/%s", scheme, r.Host, key)
}

// musicResponse is the wire shape of a track.
type musicResponse struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Artist             string    `json:"artist"`
	AudioFile          string    `json:"audio_file"`
	AudioURL           string    `json:"audio_url"`
	CoverImage         *string   `json:"cover_image"`
	CoverURL           *string   `json:"cover_url"`
	UploadedBy         int64     `json:"uploaded_by"`
	UploadedByUsername string    `json:"uploaded_by_username"`
	UploadedAt         time.Time `json:"uploaded_at"`
	LikeCount          int64     `json:"like_count"`
	IsLiked            bool      `json:"is_liked"`
}

// newMusicResponse shapes a joined music row for the wire, resolving asset
// keys against the current request.
func newMusicResponse(r *http.Request, m *model.MusicWithMeta) musicResponse {
	resp := musicResponse{
		ID:                 m.ID,
		Title:              m.Title,
		Artist:             m.Artist,
		AudioFile:          m.AudioPath,
		AudioURL:           absoluteAssetURL(r, m.AudioPath),
		UploadedBy:         m.UploadedBy,
		UploadedByUsername: m.UploaderName,
		UploadedAt:         m.UploadedAt,
		LikeCount:          m.LikeCount,
		IsLiked:            m.IsLiked,
	}
	if m.CoverPath.Valid && m.CoverPath.String != "" {
		cover := m.CoverPath.String
		coverURL := absoluteAssetURL(r, cover)
		resp.CoverImage = &cover
		resp.CoverURL = &coverURL
	}
	return resp
}

func newMusicResponseList(r *http.Request, items []*model.MusicWithMeta) []musicResponse {
	out := make([]musicResponse, 0, len(items))
	for _, m := range items {
		out = append(out, newMusicResponse(r, m))
	}
	return out
}

// MediaHandler streams a stored asset. Content type is derived from the
// object key's extension.
func (h *APIHandler) MediaHandler(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/media/")
	if key == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	object, err := h.store.Open(r.Context(), key)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", contentTypeForKey(key))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("Error serving media object",
			logger.String("key", key), logger.ErrorField(err))
	}
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
