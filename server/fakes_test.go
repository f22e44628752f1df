package server

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohamadaskravi2050-crypto/Muzic56/model"
	"github.com/mohamadaskravi2050-crypto/Muzic56/repository"
)

// memStore is an in-memory implementation of all three repository
// interfaces sharing one state, so cross-store behavior (cascades, likes,
// playlist membership) can be exercised end to end without a database.
type memStore struct {
	mu sync.Mutex

	nextID int64
	clock  time.Time

	users         map[int64]*model.User
	music         map[int64]*model.Music
	playlists     map[int64]*model.Playlist
	playlistSongs []*model.PlaylistSong
	// likes[musicID][userID]
	likes map[int64]map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		nextID:    1,
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     make(map[int64]*model.User),
		music:     make(map[int64]*model.Music),
		playlists: make(map[int64]*model.Playlist),
		likes:     make(map[int64]map[int64]bool),
	}
}

func (s *memStore) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// tick returns a strictly increasing timestamp.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// ---- UserRepository ----

func (s *memStore) CreateUser(user *model.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return 0, repository.ErrDuplicateUser
		}
	}
	u := *user
	u.ID = s.id()
	u.IsActive = true
	u.CreatedAt = s.tick()
	s.users[u.ID] = &u
	return u.ID, nil
}

func (s *memStore) GetUserByID(id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) GetUserByUsername(username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateProfileImage(userID int64, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.ProfileImage = sql.NullString{String: path, Valid: true}
	}
	return nil
}

func (s *memStore) DeleteUserCascade(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.music {
		if m.UploadedBy == userID {
			s.removeMusicLocked(id)
		}
	}
	for id, p := range s.playlists {
		if p.OwnerID == userID {
			s.removePlaylistLocked(id)
		}
	}
	for musicID := range s.likes {
		delete(s.likes[musicID], userID)
	}
	delete(s.users, userID)
	return nil
}

func (s *memStore) removeMusicLocked(musicID int64) {
	delete(s.music, musicID)
	delete(s.likes, musicID)
	kept := s.playlistSongs[:0]
	for _, ps := range s.playlistSongs {
		if ps.SongID != musicID {
			kept = append(kept, ps)
		}
	}
	s.playlistSongs = kept
}

func (s *memStore) removePlaylistLocked(playlistID int64) {
	delete(s.playlists, playlistID)
	kept := s.playlistSongs[:0]
	for _, ps := range s.playlistSongs {
		if ps.PlaylistID != playlistID {
			kept = append(kept, ps)
		}
	}
	s.playlistSongs = kept
}

// ---- MusicRepository ----

func (s *memStore) CreateMusic(m *model.Music) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *m
	copied.ID = s.id()
	copied.UploadedAt = s.tick()
	s.music[copied.ID] = &copied
	s.likes[copied.ID] = make(map[int64]bool)
	return copied.ID, nil
}

func (s *memStore) GetMusicByID(id int64) (*model.Music, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.music[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) metaLocked(m *model.Music, viewerID int64) *model.MusicWithMeta {
	uploader := ""
	if u, ok := s.users[m.UploadedBy]; ok {
		uploader = u.Username
	}
	return &model.MusicWithMeta{
		Music:        *m,
		UploaderName: uploader,
		LikeCount:    int64(len(s.likes[m.ID])),
		IsLiked:      viewerID != 0 && s.likes[m.ID][viewerID],
	}
}

func (s *memStore) GetMusicMeta(id, viewerID int64) (*model.MusicWithMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.music[id]; ok {
		return s.metaLocked(m, viewerID), nil
	}
	return nil, nil
}

func (s *memStore) allSortedLocked() []*model.Music {
	all := make([]*model.Music, 0, len(s.music))
	for _, m := range s.music {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UploadedAt.Equal(all[j].UploadedAt) {
			return all[i].UploadedAt.After(all[j].UploadedAt)
		}
		return all[i].ID > all[j].ID
	})
	return all
}

func (s *memStore) ListAll(viewerID int64) ([]*model.MusicWithMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.MusicWithMeta, 0, len(s.music))
	for _, m := range s.allSortedLocked() {
		out = append(out, s.metaLocked(m, viewerID))
	}
	return out, nil
}

func (s *memStore) ListLikedByUser(userID int64) ([]*model.MusicWithMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.MusicWithMeta, 0)
	for _, m := range s.allSortedLocked() {
		if s.likes[m.ID][userID] {
			out = append(out, s.metaLocked(m, userID))
		}
	}
	return out, nil
}

func (s *memStore) CountLikedByUser(userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, userSet := range s.likes {
		if userSet[userID] {
			count++
		}
	}
	return count, nil
}

func (s *memStore) ListPopular(viewerID int64, limit int) ([]*model.MusicWithMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*model.MusicWithMeta, 0, len(s.music))
	for _, m := range s.music {
		all = append(all, s.metaLocked(m, viewerID))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].LikeCount != all[j].LikeCount {
			return all[i].LikeCount > all[j].LikeCount
		}
		return all[i].ID < all[j].ID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *memStore) Search(query string, viewerID int64, limit int) ([]*model.MusicWithMeta, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return []*model.MusicWithMeta{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.MusicWithMeta, 0)
	for _, m := range s.allSortedLocked() {
		if strings.Contains(strings.ToLower(m.Title), query) ||
			strings.Contains(strings.ToLower(m.Artist), query) {
			out = append(out, s.metaLocked(m, viewerID))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) ToggleLike(userID, musicID int64) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.music[musicID]; !ok {
		return false, 0, repository.ErrNotFound
	}
	liked := !s.likes[musicID][userID]
	if liked {
		s.likes[musicID][userID] = true
	} else {
		delete(s.likes[musicID], userID)
	}
	return liked, int64(len(s.likes[musicID])), nil
}

func (s *memStore) AddLike(userID, musicID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.music[musicID]; !ok {
		return false, repository.ErrNotFound
	}
	if s.likes[musicID][userID] {
		return true, nil
	}
	s.likes[musicID][userID] = true
	return false, nil
}

func (s *memStore) DeleteByIDAndOwner(id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.music[id]
	if !ok || m.UploadedBy != ownerID {
		return repository.ErrNotFound
	}
	s.removeMusicLocked(id)
	return nil
}

// ---- PlaylistRepository ----

func (s *memStore) Create(ctx context.Context, p *model.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.CreatedAt = s.tick()
	copied := *p
	s.playlists[p.ID] = &copied
	return nil
}

func (s *memStore) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.playlists[id]; ok && p.OwnerID == ownerID {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) GetPublicByID(ctx context.Context, id int64) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.playlists[id]; ok && p.IsPublic {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) summaryLocked(p *model.Playlist) *model.PlaylistSummary {
	summary := &model.PlaylistSummary{Playlist: *p}
	if u, ok := s.users[p.OwnerID]; ok {
		summary.OwnerName = u.Username
	}

	members := s.songsOfLocked(p.ID)
	summary.SongCount = int64(len(members))
	if len(members) > 0 {
		if m, ok := s.music[members[0].SongID]; ok && m.CoverPath.Valid {
			summary.CoverPath = m.CoverPath.String
		}
	}
	return summary
}

func (s *memStore) songsOfLocked(playlistID int64) []*model.PlaylistSong {
	members := make([]*model.PlaylistSong, 0)
	for _, ps := range s.playlistSongs {
		if ps.PlaylistID == playlistID {
			members = append(members, ps)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].AddedAt.Equal(members[j].AddedAt) {
			return members[i].AddedAt.Before(members[j].AddedAt)
		}
		return members[i].ID < members[j].ID
	})
	return members
}

func (s *memStore) sortedPlaylistsLocked() []*model.Playlist {
	all := make([]*model.Playlist, 0, len(s.playlists))
	for _, p := range s.playlists {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID int64) ([]*model.PlaylistSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.PlaylistSummary, 0)
	for _, p := range s.sortedPlaylistsLocked() {
		if p.OwnerID == ownerID {
			out = append(out, s.summaryLocked(p))
		}
	}
	return out, nil
}

func (s *memStore) ListPublic(ctx context.Context) ([]*model.PlaylistSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.PlaylistSummary, 0)
	for _, p := range s.sortedPlaylistsLocked() {
		if p.IsPublic {
			out = append(out, s.summaryLocked(p))
		}
	}
	return out, nil
}

func (s *memStore) AddSong(ctx context.Context, playlistID, songID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ps := range s.playlistSongs {
		if ps.PlaylistID == playlistID && ps.SongID == songID {
			return true, nil
		}
	}
	s.playlistSongs = append(s.playlistSongs, &model.PlaylistSong{
		ID:         s.id(),
		PlaylistID: playlistID,
		SongID:     songID,
		AddedAt:    s.tick(),
	})
	return false, nil
}

func (s *memStore) RemoveSong(ctx context.Context, playlistID, songID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.playlistSongs[:0]
	for _, ps := range s.playlistSongs {
		if !(ps.PlaylistID == playlistID && ps.SongID == songID) {
			kept = append(kept, ps)
		}
	}
	s.playlistSongs = kept
	return nil
}

func (s *memStore) ListSongs(ctx context.Context, playlistID, viewerID int64) ([]*model.MusicWithMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.MusicWithMeta, 0)
	for _, ps := range s.songsOfLocked(playlistID) {
		if m, ok := s.music[ps.SongID]; ok {
			out = append(out, s.metaLocked(m, viewerID))
		}
	}
	return out, nil
}

func (s *memStore) SongCount(ctx context.Context, playlistID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.songsOfLocked(playlistID))), nil
}

func (s *memStore) SetPublic(ctx context.Context, id int64, public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.playlists[id]; ok {
		p.IsPublic = public
	}
	return nil
}

func (s *memStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removePlaylistLocked(id)
	return nil
}
