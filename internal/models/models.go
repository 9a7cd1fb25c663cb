package models

import "time"

// User represents an account (and channel) on the platform.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicProfile is the restricted owner projection attached to enriched
// entities. It never carries credential fields.
type PublicProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// Profile returns the public projection of the user.
func (u User) Profile() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

// RelationKind discriminates the target of a relation edge.
type RelationKind string

const (
	KindVideo   RelationKind = "video"
	KindComment RelationKind = "comment"
	KindTweet   RelationKind = "tweet"
	// KindChannel edges are subscriptions: actor subscribes to the target user.
	KindChannel RelationKind = "channel"
)

// Valid reports whether the kind is one of the known relation kinds.
func (k RelationKind) Valid() bool {
	switch k {
	case KindVideo, KindComment, KindTweet, KindChannel:
		return true
	}
	return false
}

// RelationEdge is a directed engagement record: actor performed kind on target.
type RelationEdge struct {
	ID         string
	ActorID    string
	TargetKind RelationKind
	TargetID   string
	CreatedAt  time.Time
}

// Video is an uploaded video owned by a user.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EnrichedVideo augments a video with viewer-relative engagement fields.
type EnrichedVideo struct {
	Video
	Owner     PublicProfile `json:"owner"`
	LikeCount int64         `json:"likeCount"`
	IsLiked   bool          `json:"isLiked"`
}

// Comment belongs to a video and is owned by its author.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EnrichedComment augments a comment with engagement fields and the owner
// projection.
type EnrichedComment struct {
	Comment
	Owner     PublicProfile `json:"owner"`
	LikeCount int64         `json:"likeCount"`
	IsLiked   bool          `json:"isLiked"`
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EnrichedTweet augments a tweet with engagement fields.
type EnrichedTweet struct {
	Tweet
	Owner     PublicProfile `json:"owner"`
	LikeCount int64         `json:"likeCount"`
	IsLiked   bool          `json:"isLiked"`
}

// Playlist is a named set of videos owned by a user. A video appears at most
// once per playlist.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistSummary carries the aggregate totals shown on playlist listings.
type PlaylistSummary struct {
	Playlist
	TotalVideos int64 `json:"totalVideos"`
	TotalViews  int64 `json:"totalViews"`
}

// PlaylistDetail is a playlist with its published videos and owner projection.
type PlaylistDetail struct {
	PlaylistSummary
	Owner  PublicProfile   `json:"owner"`
	Videos []EnrichedVideo `json:"videos"`
}

// ChannelProfile is the aggregated, viewer-relative view of a user's channel.
type ChannelProfile struct {
	PublicProfile
	Email                     string `json:"email"`
	CoverImageURL             string `json:"coverImageUrl"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// ChannelStats aggregates a channel's totals for its dashboard.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// WatchHistoryEntry records that a user watched a video.
type WatchHistoryEntry struct {
	Video     EnrichedVideo `json:"video"`
	WatchedAt time.Time     `json:"watchedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Page bounds a paginated query.
type Page struct {
	Number int
	Limit  int
}

const (
	DefaultPageNumber = 1
	DefaultPageLimit  = 10
)

// Normalize replaces out-of-range values with the defaults.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = DefaultPageNumber
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// PagedResult wraps one page of items together with exact totals.
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
}

// NewPagedResult computes the totals for a page of items.
func NewPagedResult[T any](items []T, page Page, total int64) PagedResult[T] {
	totalPages := total / int64(page.Limit)
	if total%int64(page.Limit) != 0 {
		totalPages++
	}
	return PagedResult[T]{
		Items:      items,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
