package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"
	"github.com/mohamadaskravi2050-crypto/Muzic56/model"
	"github.com/mohamadaskravi2050-crypto/Muzic56/repository"

	"github.com/gorilla/mux"
)

// playlistSummaryResponse is the wire shape of an owned playlist entry.
type playlistSummaryResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	CreatedAt       string  `json:"created_at"`
	SongCount       int64   `json:"song_count"`
	IsPublic        bool    `json:"is_public"`
	OwnerUsername   string  `json:"owner_username"`
	CoverURL        *string `json:"cover_url"`
	IsLikedPlaylist bool    `json:"is_liked_playlist"`
}

func newPlaylistSummaryResponse(r *http.Request, p *model.PlaylistSummary) playlistSummaryResponse {
	resp := playlistSummaryResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		SongCount:     p.SongCount,
		IsPublic:      p.IsPublic,
		OwnerUsername: p.OwnerName,
	}
	if p.CoverPath != "" {
		coverURL := absoluteAssetURL(r, p.CoverPath)
		resp.CoverURL = &coverURL
	}
	return resp
}

// parsePlaylistIDField parses the playlist_id body field, which clients send
// either as a number or as the "liked_songs" sentinel string.
func parsePlaylistIDField(raw json.RawMessage) (model.PlaylistRef, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return model.ParsePlaylistRef(s)
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return model.PlaylistRef{ID: id}, nil
	}
	return model.PlaylistRef{}, errors.New("invalid playlist_id")
}

// ListPlaylistsHandler returns the caller's playlists with the virtual
// "Liked Songs" entry prepended. The virtual entry uses the sentinel id,
// carries the computed liked count and is always private.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	summaries, err := h.playlistRepo.ListByOwner(r.Context(), userID)
	if err != nil {
		logger.Error("[Playlists] list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	likedCount, err := h.musicRepo.CountLikedByUser(userID)
	if err != nil {
		logger.Error("[Playlists] liked count failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entries := make([]interface{}, 0, len(summaries)+1)
	entries = append(entries, map[string]interface{}{
		"id":                model.LikedSongsID,
		"name":              "Liked Songs",
		"song_count":        likedCount,
		"is_liked_playlist": true,
		"is_public":         false,
	})
	for _, s := range summaries {
		entries = append(entries, newPlaylistSummaryResponse(r, s))
	}

	writeJSON(w, http.StatusOK, entries)
}

// UserPlaylistsHandler returns only the caller's stored playlists, without
// the virtual entry.
func (h *APIHandler) UserPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	summaries, err := h.playlistRepo.ListByOwner(r.Context(), userID)
	if err != nil {
		logger.Error("[UserPlaylists] list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]playlistSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, newPlaylistSummaryResponse(r, s))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePlaylistHandler creates an empty playlist. Private unless the body
// says otherwise.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	playlist := &model.Playlist{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		IsPublic:    req.IsPublic,
	}
	if err := h.playlistRepo.Create(r.Context(), playlist); err != nil {
		logger.Error("[PlaylistCreate] failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("[PlaylistCreate] playlist created",
		logger.Int64("playlistId", playlist.ID), logger.Int64("userId", userID))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        playlist.ID,
		"name":      playlist.Name,
		"is_public": playlist.IsPublic,
	})
}

// CreatePlaylistPageHandler returns the whole catalog for the playlist
// builder page.
func (h *APIHandler) CreatePlaylistPageHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.musicRepo.ListAll(viewerID(r.Context()))
	if err != nil {
		logger.Error("[PlaylistPage] query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newMusicResponseList(r, items))
}

// CreatePlaylistFinalHandler creates a playlist pre-filled with songs. Song
// ids that do not resolve are skipped without surfacing an error. Playlists
// created through this path default to public.
func (h *APIHandler) CreatePlaylistFinalHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		SongIDs     []int64 `json:"song_ids"`
		IsPublic    *bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	playlist := &model.Playlist{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		IsPublic:    isPublic,
	}
	if err := h.playlistRepo.Create(r.Context(), playlist); err != nil {
		logger.Error("[PlaylistCreateFinal] create failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	attached := 0
	for _, songID := range req.SongIDs {
		song, err := h.musicRepo.GetMusicByID(songID)
		if err != nil {
			logger.Warn("[PlaylistCreateFinal] song lookup failed",
				logger.Int64("songId", songID), logger.ErrorField(err))
			continue
		}
		if song == nil {
			continue // unknown ids are skipped silently
		}
		if _, err := h.playlistRepo.AddSong(r.Context(), playlist.ID, songID); err != nil {
			logger.Warn("[PlaylistCreateFinal] attach failed",
				logger.Int64("songId", songID), logger.ErrorField(err))
			continue
		}
		attached++
	}

	logger.Info("[PlaylistCreateFinal] playlist created",
		logger.Int64("playlistId", playlist.ID),
		logger.Int("attached", attached),
		logger.Int64("userId", userID))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Playlist created successfully",
		"playlist_id": playlist.ID,
		"song_count":  attached,
		"is_public":   playlist.IsPublic,
	})
}

// AddSongHandler adds a song to a playlist. The liked-songs sentinel maps to
// an add-only like: adding an already-liked song reports "already" instead
// of toggling it off, unlike the dedicated like endpoint.
func (h *APIHandler) AddSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		PlaylistID json.RawMessage `json:"playlist_id"`
		SongID     int64           `json:"song_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ref, err := parsePlaylistIDField(req.PlaylistID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if ref.Liked {
		already, err := h.musicRepo.AddLike(userID, req.SongID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Playlist or song not found")
				return
			}
			logger.Error("[AddSong] like failed", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.musicCache.InvalidatePopular(r.Context())
		if already {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Already in liked songs"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Added to liked songs"})
		return
	}

	playlist, err := h.playlistRepo.GetByIDAndOwner(r.Context(), ref.ID, userID)
	if err != nil {
		logger.Error("[AddSong] playlist lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	song, err := h.musicRepo.GetMusicByID(req.SongID)
	if err != nil {
		logger.Error("[AddSong] song lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if playlist == nil || song == nil {
		writeError(w, http.StatusNotFound, "Playlist or song not found")
		return
	}

	already, err := h.playlistRepo.AddSong(r.Context(), playlist.ID, song.ID)
	if err != nil {
		logger.Error("[AddSong] insert failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if already {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Song already in playlist"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Song added to playlist"})
}

// RemoveSongHandler removes a song from an owned playlist. Removing a song
// that is not a member is a no-op reported as success.
func (h *APIHandler) RemoveSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlistID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}

	var req struct {
		SongID int64 `json:"song_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	playlist, err := h.playlistRepo.GetByIDAndOwner(r.Context(), playlistID, userID)
	if err != nil {
		logger.Error("[RemoveSong] playlist lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	song, err := h.musicRepo.GetMusicByID(req.SongID)
	if err != nil {
		logger.Error("[RemoveSong] song lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if playlist == nil || song == nil {
		writeError(w, http.StatusNotFound, "Playlist or song not found")
		return
	}

	if err := h.playlistRepo.RemoveSong(r.Context(), playlist.ID, song.ID); err != nil {
		logger.Error("[RemoveSong] delete failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Song removed from playlist"})
}

// PlaylistDetailHandler returns an owned playlist with its songs in
// insertion order. The sentinel id returns the caller's liked songs as a
// virtual playlist.
func (h *APIHandler) PlaylistDetailHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ref, err := model.ParsePlaylistRef(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if ref.Liked {
		username, _ := GetUsernameFromContext(r.Context())
		songs, err := h.musicRepo.ListLikedByUser(userID)
		if err != nil {
			logger.Error("[PlaylistDetail] liked query failed", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":             model.LikedSongsID,
			"name":           "Liked Songs",
			"description":    "Your liked songs",
			"is_public":      false,
			"owner_username": username,
			"songs":          newMusicResponseList(r, songs),
		})
		return
	}

	playlist, err := h.playlistRepo.GetByIDAndOwner(r.Context(), ref.ID, userID)
	if err != nil {
		logger.Error("[PlaylistDetail] lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if playlist == nil {
		writeError(w, http.StatusNotFound, "Playlist not found or access denied")
		return
	}

	songs, err := h.playlistRepo.ListSongs(r.Context(), playlist.ID, userID)
	if err != nil {
		logger.Error("[PlaylistDetail] songs query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var ownerName string
	if owner, err := h.userRepo.GetUserByID(playlist.OwnerID); err == nil && owner != nil {
		ownerName = owner.Username
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":             playlist.ID,
		"name":           playlist.Name,
		"description":    playlist.Description,
		"is_public":      playlist.IsPublic,
		"owner_username": ownerName,
		"songs":          newMusicResponseList(r, songs),
	})
}

// DeletePlaylistHandler deletes an owned playlist and its membership rows.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlistID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}

	playlist, err := h.playlistRepo.GetByIDAndOwner(r.Context(), playlistID, userID)
	if err != nil {
		logger.Error("[PlaylistDelete] lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if playlist == nil {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	if err := h.playlistRepo.Delete(r.Context(), playlist.ID); err != nil {
		logger.Error("[PlaylistDelete] delete failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("[PlaylistDelete] playlist deleted",
		logger.Int64("playlistId", playlistID), logger.Int64("userId", userID))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted successfully"})
}

// TogglePublicHandler flips the is_public flag of an owned playlist.
func (h *APIHandler) TogglePublicHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlistID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}

	playlist, err := h.playlistRepo.GetByIDAndOwner(r.Context(), playlistID, userID)
	if err != nil {
		logger.Error("[TogglePublic] lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if playlist == nil {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}

	newState := !playlist.IsPublic
	if err := h.playlistRepo.SetPublic(r.Context(), playlist.ID, newState); err != nil {
		logger.Error("[TogglePublic] update failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	visibility := "private"
	if newState {
		visibility = "public"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Playlist is now " + visibility,
		"is_public": newState,
	})
}

// PublicPlaylistsHandler lists every public playlist with its song count
// and a cover derived from its first-added song.
func (h *APIHandler) PublicPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.playlistRepo.ListPublic(r.Context())
	if err != nil {
		logger.Error("[PublicPlaylists] list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]interface{}, 0, len(summaries))
	for _, s := range summaries {
		entry := map[string]interface{}{
			"id":          s.ID,
			"name":        s.Name,
			"owner_name":  s.OwnerName,
			"description": s.Description,
			"song_count":  s.SongCount,
			"cover_url":   nil,
		}
		if s.CoverPath != "" {
			entry["cover_url"] = absoluteAssetURL(r, s.CoverPath)
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

// PublicPlaylistDetailHandler returns a public playlist's songs to any
// authenticated caller; ownership is deliberately not checked, that is what
// the public flag grants. A private playlist reports 404.
func (h *APIHandler) PublicPlaylistDetailHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}

	playlist, err := h.playlistRepo.GetPublicByID(r.Context(), playlistID)
	if err != nil {
		logger.Error("[PublicDetail] lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if playlist == nil {
		writeError(w, http.StatusNotFound, "Playlist not found or not public")
		return
	}

	songs, err := h.playlistRepo.ListSongs(r.Context(), playlist.ID, viewerID(r.Context()))
	if err != nil {
		logger.Error("[PublicDetail] songs query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	songsData := make([]map[string]interface{}, 0, len(songs))
	for _, song := range songs {
		artist := song.Artist
		if artist == "" {
			artist = "Unknown Artist"
		}
		entry := map[string]interface{}{
			"id":          song.ID,
			"title":       song.Title,
			"artist":      artist,
			"uploaded_by": song.UploaderName,
			"audio_url":   absoluteAssetURL(r, song.AudioPath),
			"cover_url":   nil,
		}
		if song.CoverPath.Valid && song.CoverPath.String != "" {
			entry["cover_url"] = absoluteAssetURL(r, song.CoverPath.String)
		}
		songsData = append(songsData, entry)
	}

	var ownerName string
	if owner, err := h.userRepo.GetUserByID(playlist.OwnerID); err == nil && owner != nil {
		ownerName = owner.Username
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          playlist.ID,
		"name":        playlist.Name,
		"owner":       ownerName,
		"description": playlist.Description,
		"song_count":  len(songsData),
		"songs":       songsData,
		"is_public":   playlist.IsPublic,
	})
}
