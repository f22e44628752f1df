package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice", "secret123")

	rec := env.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Nil(t, body["profile_image"])
}

func TestUploadProfileImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice", "secret123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("profile_image", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profile/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Profile image updated", body["message"])
	imageURL, _ := body["profile_image"].(string)
	assert.Contains(t, imageURL, "/media/profiles/")

	// The profile now resolves the stored image.
	profileRec := env.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, profileRec.Code)
	assert.Equal(t, imageURL, decodeBody(t, profileRec)["profile_image"])
}

func TestUploadProfileImageRequiresFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice", "secret123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profile/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Profile image file is required", decodeBody(t, rec)["error"])
}

func TestDeleteAccountCascade(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "secret123")
	bob := env.register(t, "bob", "secret123")

	aliceSong := env.uploadSong(t, alice, "Alice Song", "Artist X")
	bobSong := env.uploadSong(t, bob, "Bob Song", "Artist Y")

	// Alice likes both tracks and keeps a playlist of her own.
	env.do(t, http.MethodPost, fmt.Sprintf("/api/music/%d/like", aliceSong), alice, nil)
	env.do(t, http.MethodPost, fmt.Sprintf("/api/music/%d/like", bobSong), alice, nil)
	env.do(t, http.MethodPost, "/api/playlists/create", alice, map[string]interface{}{"name": "Mix"})

	// Bob likes Alice's track and keeps it in a playlist, both of which
	// must go away with her account.
	env.do(t, http.MethodPost, fmt.Sprintf("/api/music/%d/like", aliceSong), bob, nil)
	createRec := env.do(t, http.MethodPost, "/api/playlists/create", bob, map[string]interface{}{"name": "Bob Mix"})
	bobPlaylist := int64(decodeBody(t, createRec)["id"].(float64))
	env.do(t, http.MethodPost, "/api/playlists/add-song", bob, map[string]interface{}{
		"playlist_id": bobPlaylist,
		"song_id":     aliceSong,
	})

	rec := env.do(t, http.MethodDelete, "/api/account/delete", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	// Logging in again fails.
	loginRec := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, loginRec.Code)

	// Only Bob's track survives, with Alice's like gone.
	listRec := env.do(t, http.MethodGet, "/api/music/list", bob, nil)
	items := decodeList(t, listRec)
	require.Len(t, items, 1)
	assert.Equal(t, "Bob Song", items[0]["title"])
	assert.Equal(t, float64(0), items[0]["like_count"])

	// Bob's playlist lost Alice's track.
	detailRec := env.do(t, http.MethodGet, fmt.Sprintf("/api/playlists/%d", bobPlaylist), bob, nil)
	require.Equal(t, http.StatusOK, detailRec.Code)
	songs := decodeBody(t, detailRec)["songs"].([]interface{})
	assert.Empty(t, songs)

	// The username is free for re-registration.
	env.register(t, "alice", "newpassword")
}
