package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func newPlaylistHandler(playlists *memPlaylistStore, videos *memVideoStore) PlaylistHandler {
	return PlaylistHandler{Playlists: playlists, Videos: videos, Verifier: testVerifier()}
}

func addPlaylistVideo(t *testing.T, handler PlaylistHandler, playlistID, videoID, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := authedRequest(http.MethodPost, "/api/v1/playlists/"+playlistID+"/videos/"+videoID, nil, token)
	req.SetPathValue("playlistId", playlistID)
	req.SetPathValue("videoId", videoID)
	rec := httptest.NewRecorder()

	handler.AddVideo(rec, req)
	return rec
}

func TestPlaylistHandlerAddVideoSetSemantics(t *testing.T) {
	playlists := newMemPlaylistStore(models.Playlist{ID: playlistOne, OwnerID: userAlice, Name: "favorites"})
	videos := newMemVideoStore(models.Video{ID: videoOne, OwnerID: userBob, IsPublished: true})
	handler := newPlaylistHandler(playlists, videos)

	if rec := addPlaylistVideo(t, handler, playlistOne, videoOne, "token-alice"); rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// Adding the same video again succeeds without duplicating membership.
	if rec := addPlaylistVideo(t, handler, playlistOne, videoOne, "token-alice"); rec.Code != http.StatusOK {
		t.Fatalf("expected duplicate add to succeed, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(playlists.members[playlistOne]) != 1 {
		t.Fatalf("expected one membership, got %d", len(playlists.members[playlistOne]))
	}
}

func TestPlaylistHandlerAddVideoFailures(t *testing.T) {
	playlists := newMemPlaylistStore(models.Playlist{ID: playlistOne, OwnerID: userAlice, Name: "favorites"})
	videos := newMemVideoStore(models.Video{ID: videoOne, OwnerID: userBob, IsPublished: true})
	handler := newPlaylistHandler(playlists, videos)

	cases := []struct {
		name       string
		playlistID string
		videoID    string
		token      string
		expected   int
	}{
		{name: "anonymous", playlistID: playlistOne, videoID: videoOne, token: "", expected: http.StatusUnauthorized},
		{name: "non owner", playlistID: playlistOne, videoID: videoOne, token: "token-bob", expected: http.StatusForbidden},
		{name: "malformed playlist id", playlistID: "nope", videoID: videoOne, token: "token-alice", expected: http.StatusBadRequest},
		{name: "missing playlist", playlistID: missingID, videoID: videoOne, token: "token-alice", expected: http.StatusNotFound},
		{name: "missing video", playlistID: playlistOne, videoID: missingID, token: "token-alice", expected: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := addPlaylistVideo(t, handler, tc.playlistID, tc.videoID, tc.token)
			if rec.Code != tc.expected {
				t.Fatalf("expected status %d got %d: %s", tc.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPlaylistHandlerRemoveVideo(t *testing.T) {
	playlists := newMemPlaylistStore(models.Playlist{ID: playlistOne, OwnerID: userAlice, Name: "favorites"})
	videos := newMemVideoStore(models.Video{ID: videoOne, OwnerID: userBob, IsPublished: true})
	handler := newPlaylistHandler(playlists, videos)

	if rec := addPlaylistVideo(t, handler, playlistOne, videoOne, "token-alice"); rec.Code != http.StatusOK {
		t.Fatalf("add failed with status %d", rec.Code)
	}

	req := authedRequest(http.MethodDelete, "/api/v1/playlists/"+playlistOne+"/videos/"+videoOne, nil, "token-alice")
	req.SetPathValue("playlistId", playlistOne)
	req.SetPathValue("videoId", videoOne)
	rec := httptest.NewRecorder()
	handler.RemoveVideo(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// Removing a video that is not a member is a client error, not a no-op.
	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodDelete, "/api/v1/playlists/"+playlistOne+"/videos/"+videoOne, nil, "token-alice")
	req.SetPathValue("playlistId", playlistOne)
	req.SetPathValue("videoId", videoOne)
	handler.RemoveVideo(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func TestPlaylistHandlerUpdateOwnership(t *testing.T) {
	playlists := newMemPlaylistStore(models.Playlist{ID: playlistOne, OwnerID: userAlice, Name: "favorites"})
	handler := newPlaylistHandler(playlists, newMemVideoStore())

	req := authedRequest(http.MethodPatch, "/api/v1/playlists/"+playlistOne, strings.NewReader(`{"name":"stolen"}`), "token-bob")
	req.SetPathValue("playlistId", playlistOne)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}
	if playlists.playlists[playlistOne].Name != "favorites" {
		t.Fatalf("expected name unchanged, got %q", playlists.playlists[playlistOne].Name)
	}

	req = authedRequest(http.MethodPatch, "/api/v1/playlists/"+playlistOne, strings.NewReader(`{"name":"renamed","description":"new"}`), "token-alice")
	req.SetPathValue("playlistId", playlistOne)
	rec = httptest.NewRecorder()
	handler.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if playlists.playlists[playlistOne].Name != "renamed" {
		t.Fatalf("expected name renamed, got %q", playlists.playlists[playlistOne].Name)
	}
}
