package server

import (
	"net/http"

	"github.com/mohamadaskravi2050-crypto/Muzic56/logger"

	"github.com/google/uuid"
)

// ProfileHandler returns the caller's username and profile image.
func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Profile] lookup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	resp := map[string]interface{}{
		"username":      user.Username,
		"profile_image": nil,
	}
	if user.ProfileImage.Valid && user.ProfileImage.String != "" {
		resp["profile_image"] = absoluteAssetURL(r, user.ProfileImage.String)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UploadProfileImageHandler stores a new profile image for the caller and
// points their account at it. Multipart field: profile_image.
func (h *APIHandler) UploadProfileImageHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("profile_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Profile image file is required")
		return
	}
	defer file.Close()

	key := profileKeyPrefix + uuid.NewString() + safeExt(header.Filename, ".jpg")
	err = h.store.Save(r.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("[ProfileImage] failed to store image", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.userRepo.UpdateProfileImage(userID, key); err != nil {
		logger.Error("[ProfileImage] failed to update user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("[ProfileImage] profile image updated", logger.Int64("userId", userID))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Profile image updated",
		"profile_image": absoluteAssetURL(r, key),
	})
}

// DeleteAccountHandler removes the caller's account along with everything
// they own: uploaded music, playlists and like rows. The deletion is
// immediate and irreversible.
func (h *APIHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	username, _ := GetUsernameFromContext(r.Context())

	logger.Info("[AccountDelete] starting account deletion",
		logger.Int64("userId", userID), logger.String("username", username))

	if err := h.userRepo.DeleteUserCascade(userID); err != nil {
		logger.Error("[AccountDelete] failed", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Error deleting account: " + err.Error(),
		})
		return
	}

	h.musicCache.InvalidatePopular(r.Context())

	logger.Info("[AccountDelete] account deleted",
		logger.Int64("userId", userID), logger.String("username", username))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Account and all associated data deleted successfully",
	})
}
