package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// VideoFilter narrows the video listing.
type VideoFilter struct {
	// OwnerID limits results to a single channel when set.
	OwnerID string
	// Query matches against title substrings when set.
	Query string
	// ViewerID allows unpublished videos owned by the viewer to appear and
	// drives the viewer-relative fields.
	ViewerID string
}

// VideoRepository defines data access for videos, watch history, and the view
// counter column.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindEnrichedByID(ctx context.Context, id, viewerID string) (models.EnrichedVideo, error)
	List(ctx context.Context, filter VideoFilter, page models.Page) (models.PagedResult[models.EnrichedVideo], error)
	UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error)
	TogglePublish(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	AddViews(ctx context.Context, id string, delta int64) error
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, views, is_published, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	return v, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches the raw video row.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
}

// FindEnrichedByID fetches a video with engagement fields and owner projection
// relative to the viewer.
func (r *PostgresVideoRepository) FindEnrichedByID(ctx context.Context, id, viewerID string) (models.EnrichedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.EnrichedVideo{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf(`
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration_seconds, v.views, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url,
               %s
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, engagementColumns(models.KindVideo, "v", "$2"))

	var v models.EnrichedVideo
	err = conn.QueryRow(ctx, query, id, viewerArg(viewerID)).Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL,
		&v.LikeCount, &v.IsLiked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EnrichedVideo{}, ErrNotFound
		}
		return models.EnrichedVideo{}, fmt.Errorf("select enriched video: %w", err)
	}

	return v, nil
}

// List returns one page of videos matching the filter, newest first, with an
// exact total computed by a separate count query. Unpublished videos are
// visible only to their owner.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoFilter, page models.Page) (models.PagedResult[models.EnrichedVideo], error) {
	page = page.Normalize()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PagedResult[models.EnrichedVideo]{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// $1 viewer, $2 owner filter, $3 title query, $4 limit, $5 offset.
	where := `
        (v.is_published OR ($1::UUID IS NOT NULL AND v.owner_id = $1::UUID))
        AND ($2::UUID IS NULL OR v.owner_id = $2::UUID)
        AND ($3::TEXT IS NULL OR v.title ILIKE $3::TEXT)`

	viewer := viewerArg(filter.ViewerID)
	owner := viewerArg(filter.OwnerID)
	var query *string
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = &pattern
	}

	var total int64
	err = conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v WHERE `+where, viewer, owner, query).Scan(&total)
	if err != nil {
		return models.PagedResult[models.EnrichedVideo]{}, fmt.Errorf("count videos: %w", err)
	}

	listQuery := fmt.Sprintf(`
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration_seconds, v.views, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url,
               %s
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE %s
        ORDER BY v.created_at DESC
        LIMIT $4 OFFSET $5
    `, engagementColumns(models.KindVideo, "v", "$1"), where)

	rows, err := conn.Query(ctx, listQuery, viewer, owner, query, page.Limit, page.Offset())
	if err != nil {
		return models.PagedResult[models.EnrichedVideo]{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.EnrichedVideo
	for rows.Next() {
		var v models.EnrichedVideo
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
			&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
			&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL,
			&v.LikeCount, &v.IsLiked,
		); err != nil {
			return models.PagedResult[models.EnrichedVideo]{}, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return models.PagedResult[models.EnrichedVideo]{}, fmt.Errorf("iterate videos: %w", err)
	}

	return models.NewPagedResult(videos, page, total), nil
}

// UpdateDetails changes title, description, and optionally the thumbnail URL.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description, thumbnailURL string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET title = $2,
            description = $3,
            thumbnail_url = CASE WHEN $4 = '' THEN thumbnail_url ELSE $4 END,
            updated_at = now()
        WHERE id = $1
        RETURNING `+videoColumns+`
    `, id, title, description, thumbnailURL))
}

// TogglePublish flips the publish flag and returns the updated record.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanVideo(conn.QueryRow(ctx, `
        UPDATE videos SET is_published = NOT is_published, updated_at = now()
        WHERE id = $1
        RETURNING `+videoColumns+`
    `, id))
}

// Delete removes the video and everything hanging off it: comments, like
// edges on the video and on those comments, playlist memberships, and watch
// history. One transaction so a partial cascade never survives.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete video: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        DELETE FROM relation_edges
        WHERE target_kind = 'comment'
          AND target_id IN (SELECT id FROM comments WHERE video_id = $1)
    `, id); err != nil {
		return fmt.Errorf("delete comment likes: %w", err)
	}

	if _, err := tx.Exec(ctx, `
        DELETE FROM relation_edges WHERE target_kind = 'video' AND target_id = $1
    `, id); err != nil {
		return fmt.Errorf("delete video likes: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete video comments: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete playlist memberships: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM watch_history WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete watch history: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete video: %w", err)
	}

	return nil
}

// Exists reports whether a video with the id exists.
func (r *PostgresVideoRepository) Exists(ctx context.Context, id string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check video exists: %w", err)
	}
	return exists, nil
}

// AddViews folds a view-count delta into the stored total. Used by the view
// counter flusher.
func (r *PostgresVideoRepository) AddViews(ctx context.Context, id string, delta int64) error {
	if delta <= 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("add views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordWatch upserts the user's watch-history entry for the video, bumping
// the watch time on rewatch.
func (r *PostgresVideoRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record watch: %w", err)
	}

	return nil
}

// WatchHistory returns the user's watched videos, most recently watched
// first, enriched with owner projection and engagement fields.
func (r *PostgresVideoRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf(`
        SELECT wh.watched_at,
               v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration_seconds, v.views, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url,
               %s
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, engagementColumns(models.KindVideo, "v", "$1"))

	rows, err := conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var e models.WatchHistoryEntry
		if err := rows.Scan(
			&e.WatchedAt,
			&e.Video.ID, &e.Video.OwnerID, &e.Video.Title, &e.Video.Description, &e.Video.VideoURL, &e.Video.ThumbnailURL,
			&e.Video.Duration, &e.Video.Views, &e.Video.IsPublished, &e.Video.CreatedAt, &e.Video.UpdatedAt,
			&e.Video.Owner.ID, &e.Video.Owner.Username, &e.Video.Owner.FullName, &e.Video.Owner.AvatarURL,
			&e.Video.LikeCount, &e.Video.IsLiked,
		); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
