package server

import (
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"
	"github.com/mohamadaskravi2050-crypto/Muzic56/model"
	"github.com/mohamadaskravi2050-crypto/Muzic56/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	maxUploadMemory  = 32 << 20 // 32MB
	popularLimit     = 5
	searchLimit      = 10
	audioKeyPrefix   = "music/"
	coverKeyPrefix   = "music_covers/"
	profileKeyPrefix = "profiles/"
)

// allowedAudioTypes is the allow-list for the declared content type of
// uploaded audio files.
var allowedAudioTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/wav":   true,
	"audio/mp3":   true,
	"audio/x-m4a": true,
}

// UploadMusicHandler handles audio file uploads and metadata.
// Expected multipart form fields:
// - title: track title (required)
// - artist: track artist (optional)
// - audio_file: the audio file (required)
// - cover_image: cover art image (optional)
func (h *APIHandler) UploadMusicHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	title := r.FormValue("title")
	artist := r.FormValue("artist")

	audioFile, audioHeader, err := r.FormFile("audio_file")
	if err != nil || title == "" {
		writeError(w, http.StatusBadRequest, "Title and audio file are required")
		return
	}
	defer audioFile.Close()

	if !allowedAudioTypes[audioHeader.Header.Get("Content-Type")] {
		writeError(w, http.StatusBadRequest, "Invalid audio format")
		return
	}

	audioKey := audioKeyPrefix + uuid.NewString() + safeExt(audioHeader.Filename, ".mp3")
	err = h.store.Save(r.Context(), audioKey, audioFile, audioHeader.Size,
		audioHeader.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("[Upload] failed to store audio", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	music := &model.Music{
		Title:      title,
		Artist:     artist,
		AudioPath:  audioKey,
		UploadedBy: userID,
	}

	// Cover art is optional.
	coverFile, coverHeader, err := r.FormFile("cover_image")
	if err == nil {
		defer coverFile.Close()
		coverKey := coverKeyPrefix + uuid.NewString() + safeExt(coverHeader.Filename, ".jpg")
		err = h.store.Save(r.Context(), coverKey, coverFile, coverHeader.Size,
			coverHeader.Header.Get("Content-Type"))
		if err != nil {
			logger.Error("[Upload] failed to store cover", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		music.CoverPath = sql.NullString{String: coverKey, Valid: true}
	}

	musicID, err := h.musicRepo.CreateMusic(music)
	if err != nil {
		logger.Error("[Upload] failed to create music record", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.musicCache.InvalidatePopular(r.Context())

	logger.Info("[Upload] music uploaded",
		logger.Int64("musicId", musicID),
		logger.String("title", title),
		logger.Int64("userId", userID))

	musicBody := map[string]interface{}{
		"id":        musicID,
		"title":     title,
		"artist":    artist,
		"audio_url": absoluteAssetURL(r, audioKey),
		"cover_url": nil,
	}
	if music.CoverPath.Valid {
		musicBody["cover_url"] = absoluteAssetURL(r, music.CoverPath.String)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Music uploaded successfully",
		"music":   musicBody,
	})
}

// safeExt keeps the uploaded file's extension when it has one.
func safeExt(filename, fallback string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fallback
	}
	return ext
}

// ListMusicHandler returns the whole catalog, newest first. Anonymous
// callers get is_liked=false on every entry.
func (h *APIHandler) ListMusicHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.musicRepo.ListAll(viewerID(r.Context()))
	if err != nil {
		logger.Error("[MusicList] query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newMusicResponseList(r, items))
}

// MusicDetailHandler returns a single track with like metadata for the
// viewer.
func (h *APIHandler) MusicDetailHandler(w http.ResponseWriter, r *http.Request) {
	musicID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid music id")
		return
	}

	m, err := h.musicRepo.GetMusicMeta(musicID, viewerID(r.Context()))
	if err != nil {
		logger.Error("[MusicDetail] query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Music not found")
		return
	}
	writeJSON(w, http.StatusOK, newMusicResponse(r, m))
}

// LikeMusicHandler toggles the caller's like on a track.
func (h *APIHandler) LikeMusicHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	musicID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid music id")
		return
	}

	liked, likeCount, err := h.musicRepo.ToggleLike(userID, musicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Music not found")
			return
		}
		logger.Error("[Like] toggle failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.musicCache.InvalidatePopular(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liked":      liked,
		"like_count": likeCount,
	})
}

// LikedMusicHandler returns the caller's liked tracks.
func (h *APIHandler) LikedMusicHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	items, err := h.musicRepo.ListLikedByUser(userID)
	if err != nil {
		logger.Error("[Liked] query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newMusicResponseList(r, items))
}

// PopularMusicHandler returns the top tracks by like count. Results are
// served from the Redis cache when warm.
func (h *APIHandler) PopularMusicHandler(w http.ResponseWriter, r *http.Request) {
	viewer := viewerID(r.Context())

	if items := h.musicCache.GetPopular(r.Context(), viewer, popularLimit); items != nil {
		writeJSON(w, http.StatusOK, newMusicResponseList(r, items))
		return
	}

	items, err := h.musicRepo.ListPopular(viewer, popularLimit)
	if err != nil {
		logger.Error("[Popular] query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.musicCache.SetPopular(r.Context(), viewer, popularLimit, items)
	writeJSON(w, http.StatusOK, newMusicResponseList(r, items))
}

// SearchMusicHandler matches the q parameter as a case-insensitive
// substring of title or artist. An empty query returns an empty array.
func (h *APIHandler) SearchMusicHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	items, err := h.musicRepo.Search(query, viewerID(r.Context()), searchLimit)
	if err != nil {
		logger.Error("[Search] query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newMusicResponseList(r, items))
}

// DeleteMusicHandler deletes a track the caller uploaded. A track owned by
// someone else reports 404, same as a missing one.
func (h *APIHandler) DeleteMusicHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	musicID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid music id")
		return
	}

	if err := h.musicRepo.DeleteByIDAndOwner(musicID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Music not found or you do not have permission to delete it")
			return
		}
		logger.Error("[MusicDelete] failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.musicCache.InvalidatePopular(r.Context())

	logger.Info("[MusicDelete] music deleted",
		logger.Int64("musicId", musicID), logger.Int64("userId", userID))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Music deleted successfully",
	})
}
