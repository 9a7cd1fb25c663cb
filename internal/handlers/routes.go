package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users     UserStore
	Videos    VideoStore
	Comments  CommentStore
	Tweets    TweetStore
	Playlists PlaylistStore
	Relations RelationStore
	Sessions  SessionManager
	Verifier  TokenVerifier
	Media     MediaStore
	Views     ViewCounter

	// AuthLimiter guards credential endpoints per client IP.
	AuthLimiter RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Media: deps.Media, Verifier: deps.Verifier, Limiter: deps.AuthLimiter}
	users := UserHandler{Users: deps.Users, Videos: deps.Videos, Media: deps.Media, Verifier: deps.Verifier}
	channels := ChannelHandler{Users: deps.Users, Verifier: deps.Verifier}
	videos := VideoHandler{Videos: deps.Videos, Media: deps.Media, Views: deps.Views, Verifier: deps.Verifier}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Verifier: deps.Verifier}
	likes := LikeHandler{Relations: deps.Relations, Videos: deps.Videos, Comments: deps.Comments, Tweets: deps.Tweets, Verifier: deps.Verifier}
	subscriptions := SubscriptionHandler{Relations: deps.Relations, Users: deps.Users, Verifier: deps.Verifier}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users, Verifier: deps.Verifier}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Verifier: deps.Verifier}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("POST /api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("POST /api/v1/auth/change-password", auth.ChangePassword)

	mux.HandleFunc("GET /api/v1/users/me", users.Me)
	mux.HandleFunc("PATCH /api/v1/users/me", users.UpdateAccount)
	mux.HandleFunc("PATCH /api/v1/users/me/avatar", users.UpdateAvatar)
	mux.HandleFunc("PATCH /api/v1/users/me/cover-image", users.UpdateCoverImage)
	mux.HandleFunc("GET /api/v1/users/me/history", users.WatchHistory)
	mux.HandleFunc("GET /api/v1/users/{userId}/tweets", tweets.ListForUser)
	mux.HandleFunc("GET /api/v1/users/{userId}/playlists", playlists.ListForUser)

	mux.HandleFunc("GET /api/v1/channels/{username}", channels.Profile)
	mux.HandleFunc("GET /api/v1/dashboard/stats", channels.Stats)

	mux.HandleFunc("POST /api/v1/videos", videos.Publish)
	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("GET /api/v1/videos/{videoId}", videos.Get)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", videos.Update)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}/publish", videos.TogglePublish)
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", videos.Delete)

	mux.HandleFunc("GET /api/v1/videos/{videoId}/comments", comments.List)
	mux.HandleFunc("POST /api/v1/videos/{videoId}/comments", comments.Add)
	mux.HandleFunc("PATCH /api/v1/comments/{commentId}", comments.Update)
	mux.HandleFunc("DELETE /api/v1/comments/{commentId}", comments.Delete)

	mux.HandleFunc("POST /api/v1/likes/videos/{videoId}", likes.ToggleVideo)
	mux.HandleFunc("POST /api/v1/likes/comments/{commentId}", likes.ToggleComment)
	mux.HandleFunc("POST /api/v1/likes/tweets/{tweetId}", likes.ToggleTweet)
	mux.HandleFunc("GET /api/v1/likes/videos", likes.LikedVideos)

	mux.HandleFunc("POST /api/v1/subscriptions/channels/{channelId}", subscriptions.Toggle)
	mux.HandleFunc("GET /api/v1/subscriptions/channels/{channelId}/subscribers", subscriptions.Subscribers)
	mux.HandleFunc("GET /api/v1/subscriptions/me", subscriptions.Subscribed)

	mux.HandleFunc("POST /api/v1/tweets", tweets.Create)
	mux.HandleFunc("PATCH /api/v1/tweets/{tweetId}", tweets.Update)
	mux.HandleFunc("DELETE /api/v1/tweets/{tweetId}", tweets.Delete)

	mux.HandleFunc("POST /api/v1/playlists", playlists.Create)
	mux.HandleFunc("GET /api/v1/playlists/{playlistId}", playlists.Get)
	mux.HandleFunc("PATCH /api/v1/playlists/{playlistId}", playlists.Update)
	mux.HandleFunc("DELETE /api/v1/playlists/{playlistId}", playlists.Delete)
	mux.HandleFunc("POST /api/v1/playlists/{playlistId}/videos/{videoId}", playlists.AddVideo)
	mux.HandleFunc("DELETE /api/v1/playlists/{playlistId}/videos/{videoId}", playlists.RemoveVideo)
}
