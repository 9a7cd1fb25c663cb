package handlers

import (
	"context"
	"io"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the auth, user,
// and channel handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, usernameOrEmail string) (models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindEnrichedByID(ctx context.Context, id, viewerID string) (models.EnrichedVideo, error)
	List(ctx context.Context, filter repositories.VideoFilter, page models.Page) (models.PagedResult[models.EnrichedVideo], error)
	UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error)
	TogglePublish(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID, viewerID string, page models.Page) (models.PagedResult[models.EnrichedComment], error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListForUser(ctx context.Context, ownerID, viewerID string) ([]models.EnrichedTweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// PlaylistStore captures persistence for playlists and their memberships.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForUser(ctx context.Context, ownerID string) ([]models.PlaylistSummary, error)
	Detail(ctx context.Context, id, viewerID string) (models.PlaylistDetail, error)
	UpdateDetails(ctx context.Context, id, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// RelationStore captures the engagement edge operations used by the like and
// subscription handlers.
type RelationStore interface {
	Toggle(ctx context.Context, actorID string, kind models.RelationKind, targetID string) (bool, error)
	CountEdges(ctx context.Context, kind models.RelationKind, targetID string) (int64, error)
	ListLikedVideos(ctx context.Context, actorID string) ([]models.EnrichedVideo, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.PublicProfile, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicProfile, error)
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// MediaStore persists uploaded media and returns a public URL.
type MediaStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ViewCounter records video views for asynchronous aggregation.
type ViewCounter interface {
	Increment(ctx context.Context, videoID string) error
}
