package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// Fixed UUIDs used across handler tests.
const (
	userAlice   = "11111111-1111-4111-8111-111111111111"
	userBob     = "22222222-2222-4222-8222-222222222222"
	videoOne    = "33333333-3333-4333-8333-333333333333"
	commentOne  = "44444444-4444-4444-8444-444444444444"
	tweetOne    = "55555555-5555-4555-8555-555555555555"
	playlistOne = "66666666-6666-4666-8666-666666666666"
	missingID   = "99999999-9999-4999-8999-999999999999"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", auth.ErrAccessTokenInvalid
}

// testVerifier maps "token-<id>" bearer tokens to the two fixed users.
func testVerifier() fakeVerifier {
	return fakeVerifier{
		"token-alice": userAlice,
		"token-bob":   userBob,
	}
}

func authedRequest(method, target string, body io.Reader, token string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type edgeKey struct {
	actor  string
	kind   models.RelationKind
	target string
}

type memRelationStore struct {
	edges    map[edgeKey]time.Time
	profiles map[string]models.PublicProfile
}

func newMemRelationStore() *memRelationStore {
	return &memRelationStore{
		edges:    make(map[edgeKey]time.Time),
		profiles: make(map[string]models.PublicProfile),
	}
}

func (s *memRelationStore) Toggle(_ context.Context, actorID string, kind models.RelationKind, targetID string) (bool, error) {
	if !kind.Valid() {
		return false, repositories.ErrInvalidKind
	}
	key := edgeKey{actor: actorID, kind: kind, target: targetID}
	if _, ok := s.edges[key]; ok {
		delete(s.edges, key)
		return false, nil
	}
	s.edges[key] = time.Now().UTC()
	return true, nil
}

func (s *memRelationStore) CountEdges(_ context.Context, kind models.RelationKind, targetID string) (int64, error) {
	var count int64
	for key := range s.edges {
		if key.kind == kind && key.target == targetID {
			count++
		}
	}
	return count, nil
}

func (s *memRelationStore) ListLikedVideos(context.Context, string) ([]models.EnrichedVideo, error) {
	return nil, nil
}

func (s *memRelationStore) ListSubscribers(_ context.Context, channelID string) ([]models.PublicProfile, error) {
	var out []models.PublicProfile
	for key := range s.edges {
		if key.kind == models.KindChannel && key.target == channelID {
			out = append(out, s.profiles[key.actor])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memRelationStore) ListSubscribedChannels(_ context.Context, subscriberID string) ([]models.PublicProfile, error) {
	var out []models.PublicProfile
	for key := range s.edges {
		if key.kind == models.KindChannel && key.actor == subscriberID {
			out = append(out, s.profiles[key.target])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUserStore struct {
	users map[string]models.User
}

func newMemUserStore(users ...models.User) *memUserStore {
	s := &memUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) FindByLogin(_ context.Context, login string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == login || user.Email == login {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUserStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.users[id]
	return ok, nil
}

func (s *memUserStore) UpdateAccount(_ context.Context, id, fullName, email string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.FullName = fullName
	user.Email = email
	s.users[id] = user
	return user, nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[id] = user
	return nil
}

func (s *memUserStore) UpdateAvatar(_ context.Context, id, avatarURL string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = avatarURL
	s.users[id] = user
	return user, nil
}

func (s *memUserStore) UpdateCoverImage(_ context.Context, id, coverImageURL string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL = coverImageURL
	s.users[id] = user
	return user, nil
}

func (s *memUserStore) ChannelProfile(_ context.Context, username, _ string) (models.ChannelProfile, error) {
	for _, user := range s.users {
		if user.Username == username {
			return models.ChannelProfile{PublicProfile: user.Profile(), Email: user.Email}, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s *memUserStore) ChannelStats(_ context.Context, channelID string) (models.ChannelStats, error) {
	if _, ok := s.users[channelID]; !ok {
		return models.ChannelStats{}, repositories.ErrNotFound
	}
	return models.ChannelStats{}, nil
}

type memVideoStore struct {
	videos  map[string]models.Video
	watches map[string][]string
}

func newMemVideoStore(videos ...models.Video) *memVideoStore {
	s := &memVideoStore{videos: make(map[string]models.Video), watches: make(map[string][]string)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *memVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *memVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *memVideoStore) FindEnrichedByID(_ context.Context, id, _ string) (models.EnrichedVideo, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.EnrichedVideo{}, repositories.ErrNotFound
	}
	return models.EnrichedVideo{Video: video}, nil
}

func (s *memVideoStore) List(_ context.Context, filter repositories.VideoFilter, page models.Page) (models.PagedResult[models.EnrichedVideo], error) {
	var items []models.EnrichedVideo
	for _, video := range s.videos {
		if !video.IsPublished && video.OwnerID != filter.ViewerID {
			continue
		}
		if filter.OwnerID != "" && video.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(video.Title), strings.ToLower(filter.Query)) {
			continue
		}
		items = append(items, models.EnrichedVideo{Video: video})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return models.NewPagedResult(items, page, int64(len(items))), nil
}

func (s *memVideoStore) UpdateDetails(_ context.Context, id, title, description, thumbnailURL string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Title = title
	video.Description = description
	if thumbnailURL != "" {
		video.ThumbnailURL = thumbnailURL
	}
	s.videos[id] = video
	return video, nil
}

func (s *memVideoStore) TogglePublish(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return video, nil
}

func (s *memVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *memVideoStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.videos[id]
	return ok, nil
}

func (s *memVideoStore) RecordWatch(_ context.Context, userID, videoID string) error {
	s.watches[userID] = append(s.watches[userID], videoID)
	return nil
}

func (s *memVideoStore) WatchHistory(_ context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	var out []models.WatchHistoryEntry
	for _, videoID := range s.watches[userID] {
		if video, ok := s.videos[videoID]; ok {
			out = append(out, models.WatchHistoryEntry{Video: models.EnrichedVideo{Video: video}})
		}
	}
	return out, nil
}

type memCommentStore struct {
	comments map[string]models.Comment
}

func newMemCommentStore(comments ...models.Comment) *memCommentStore {
	s := &memCommentStore{comments: make(map[string]models.Comment)}
	for _, c := range comments {
		s.comments[c.ID] = c
	}
	return s
}

func (s *memCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *memCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *memCommentStore) ListForVideo(_ context.Context, videoID, _ string, page models.Page) (models.PagedResult[models.EnrichedComment], error) {
	var all []models.EnrichedComment
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			all = append(all, models.EnrichedComment{Comment: comment})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return models.NewPagedResult(all[start:end], page, total), nil
}

func (s *memCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *memCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *memCommentStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.comments[id]
	return ok, nil
}

type memTweetStore struct {
	tweets map[string]models.Tweet
}

func newMemTweetStore(tweets ...models.Tweet) *memTweetStore {
	s := &memTweetStore{tweets: make(map[string]models.Tweet)}
	for _, tw := range tweets {
		s.tweets[tw.ID] = tw
	}
	return s
}

func (s *memTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *memTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *memTweetStore) ListForUser(_ context.Context, ownerID, _ string) ([]models.EnrichedTweet, error) {
	var out []models.EnrichedTweet
	for _, tweet := range s.tweets {
		if tweet.OwnerID == ownerID {
			out = append(out, models.EnrichedTweet{Tweet: tweet})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memTweetStore) UpdateContent(_ context.Context, id, content string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *memTweetStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

func (s *memTweetStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.tweets[id]
	return ok, nil
}

type memPlaylistStore struct {
	playlists map[string]models.Playlist
	members   map[string]map[string]bool
}

func newMemPlaylistStore(playlists ...models.Playlist) *memPlaylistStore {
	s := &memPlaylistStore{
		playlists: make(map[string]models.Playlist),
		members:   make(map[string]map[string]bool),
	}
	for _, p := range playlists {
		s.playlists[p.ID] = p
		s.members[p.ID] = make(map[string]bool)
	}
	return s
}

func (s *memPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	s.members[playlist.ID] = make(map[string]bool)
	return nil
}

func (s *memPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *memPlaylistStore) ListForUser(_ context.Context, ownerID string) ([]models.PlaylistSummary, error) {
	var out []models.PlaylistSummary
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, models.PlaylistSummary{
				Playlist:    playlist,
				TotalVideos: int64(len(s.members[playlist.ID])),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memPlaylistStore) Detail(_ context.Context, id, _ string) (models.PlaylistDetail, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.PlaylistDetail{}, repositories.ErrNotFound
	}
	return models.PlaylistDetail{
		PlaylistSummary: models.PlaylistSummary{
			Playlist:    playlist,
			TotalVideos: int64(len(s.members[id])),
		},
	}, nil
}

func (s *memPlaylistStore) UpdateDetails(_ context.Context, id, name, description string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.Name = name
	playlist.Description = description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *memPlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	delete(s.members, id)
	return nil
}

func (s *memPlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	if _, ok := s.playlists[playlistID]; !ok {
		return repositories.ErrNotFound
	}
	s.members[playlistID][videoID] = true
	return nil
}

func (s *memPlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	if !s.members[playlistID][videoID] {
		return repositories.ErrNotFound
	}
	delete(s.members[playlistID], videoID)
	return nil
}

type fakeSessionManager struct {
	issued  []string
	revoked []string
}

func (m *fakeSessionManager) Issue(_ context.Context, userID string) (models.SessionTokens, error) {
	m.issued = append(m.issued, userID)
	return models.SessionTokens{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
	}, nil
}

func (m *fakeSessionManager) Refresh(_ context.Context, refreshToken string) (models.SessionTokens, error) {
	if !strings.HasPrefix(refreshToken, "refresh-") {
		return models.SessionTokens{}, auth.ErrSessionNotFound
	}
	userID := strings.TrimPrefix(refreshToken, "refresh-")
	return m.Issue(context.Background(), userID)
}

func (m *fakeSessionManager) Revoke(_ context.Context, refreshToken string) {
	m.revoked = append(m.revoked, refreshToken)
}

type fakeMediaStore struct {
	saved []string
}

func (s *fakeMediaStore) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.saved = append(s.saved, name)
	return fmt.Sprintf("https://cdn.test/%s", name), nil
}

type fakeViewCounter struct {
	increments []string
}

func (c *fakeViewCounter) Increment(_ context.Context, videoID string) error {
	c.increments = append(c.increments, videoID)
	return nil
}
