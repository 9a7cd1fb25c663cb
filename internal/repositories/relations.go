package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// RelationRepository is the relation store: directed engagement edges plus the
// toggle operation that flips their existence.
type RelationRepository interface {
	Toggle(ctx context.Context, actorID string, kind models.RelationKind, targetID string) (bool, error)
	CountEdges(ctx context.Context, kind models.RelationKind, targetID string) (int64, error)
	HasEdge(ctx context.Context, actorID string, kind models.RelationKind, targetID string) (bool, error)
	ListLikedVideos(ctx context.Context, actorID string) ([]models.EnrichedVideo, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.PublicProfile, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicProfile, error)
}

// PostgresRelationRepository provides PostgreSQL-backed persistence for
// relation edges.
type PostgresRelationRepository struct {
	pool db.Pool
}

// NewPostgresRelationRepository constructs a relation repository backed by PostgreSQL.
func NewPostgresRelationRepository(pool db.Pool) *PostgresRelationRepository {
	return &PostgresRelationRepository{pool: pool}
}

// engagementColumns returns the select-list fragment computing the relation
// count and viewer-relative flag for rows of the target table aliased as
// alias. viewerParam is the placeholder bound to the viewer id, NULL for
// anonymous requests; the flag is then always false. Every enriched listing
// in the module goes through this one fragment, so the join shape exists
// exactly once.
func engagementColumns(kind models.RelationKind, alias, viewerParam string) string {
	return fmt.Sprintf(`(SELECT COUNT(*) FROM relation_edges re
            WHERE re.target_kind = '%[1]s' AND re.target_id = %[2]s.id) AS relation_count,
        (%[3]s::UUID IS NOT NULL AND EXISTS (
            SELECT 1 FROM relation_edges re
            WHERE re.target_kind = '%[1]s' AND re.target_id = %[2]s.id AND re.actor_id = %[3]s::UUID
        )) AS viewer_has_relation`, kind, alias, viewerParam)
}

// viewerArg converts an optional viewer id into a nullable query argument.
func viewerArg(viewerID string) *string {
	if viewerID == "" {
		return nil
	}
	return &viewerID
}

// Toggle atomically flips the existence of the (actor, kind, target) edge and
// reports the resulting state. The unique index on the edge key makes the
// insert-or-delete race-free: concurrent toggles serialize on the index, so
// at most one edge ever exists per key.
func (r *PostgresRelationRepository) Toggle(ctx context.Context, actorID string, kind models.RelationKind, targetID string) (bool, error) {
	if !kind.Valid() {
		return false, ErrInvalidKind
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO relation_edges (id, actor_id, target_kind, target_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (actor_id, target_kind, target_id) DO NOTHING
    `, uuid.NewString(), actorID, string(kind), targetID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert relation edge: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// The edge already existed: this toggle removes it. A delete that hits
	// zero rows means a concurrent toggle removed the edge first; either way
	// the edge is absent now.
	_, err = conn.Exec(ctx, `
        DELETE FROM relation_edges
        WHERE actor_id = $1 AND target_kind = $2 AND target_id = $3
    `, actorID, string(kind), targetID)
	if err != nil {
		return false, fmt.Errorf("delete relation edge: %w", err)
	}

	return false, nil
}

// CountEdges returns the number of edges pointing at the target.
func (r *PostgresRelationRepository) CountEdges(ctx context.Context, kind models.RelationKind, targetID string) (int64, error) {
	if !kind.Valid() {
		return 0, ErrInvalidKind
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM relation_edges
        WHERE target_kind = $1 AND target_id = $2
    `, string(kind), targetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count relation edges: %w", err)
	}

	return count, nil
}

// HasEdge reports whether the actor has an edge to the target.
func (r *PostgresRelationRepository) HasEdge(ctx context.Context, actorID string, kind models.RelationKind, targetID string) (bool, error) {
	if !kind.Valid() {
		return false, ErrInvalidKind
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM relation_edges
            WHERE actor_id = $1 AND target_kind = $2 AND target_id = $3
        )
    `, actorID, string(kind), targetID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check relation edge: %w", err)
	}

	return exists, nil
}

// ListLikedVideos returns the videos the actor has liked, most recently liked
// first, enriched with engagement fields and the owner projection.
func (r *PostgresRelationRepository) ListLikedVideos(ctx context.Context, actorID string) ([]models.EnrichedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := fmt.Sprintf(`
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration_seconds, v.views, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url,
               %s
        FROM relation_edges le
        JOIN videos v ON v.id = le.target_id
        JOIN users u ON u.id = v.owner_id
        WHERE le.actor_id = $1 AND le.target_kind = 'video'
        ORDER BY le.created_at DESC
    `, engagementColumns(models.KindVideo, "v", "$1"))

	rows, err := conn.Query(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
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
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, nil
}

// ListSubscribers returns the public profiles of users subscribed to the
// channel, most recent subscription first.
func (r *PostgresRelationRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.PublicProfile, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM relation_edges e
        JOIN users u ON u.id = e.actor_id
        WHERE e.target_kind = 'channel' AND e.target_id = $1
        ORDER BY e.created_at DESC
    `, channelID)
}

// ListSubscribedChannels returns the channels the user subscribes to, most
// recent subscription first.
func (r *PostgresRelationRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicProfile, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM relation_edges e
        JOIN users u ON u.id = e.target_id
        WHERE e.target_kind = 'channel' AND e.actor_id = $1
        ORDER BY e.created_at DESC
    `, subscriberID)
}

func (r *PostgresRelationRepository) listProfiles(ctx context.Context, query, arg string) ([]models.PublicProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.PublicProfile
	for rows.Next() {
		var p models.PublicProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.FullName, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

var _ RelationRepository = (*PostgresRelationRepository)(nil)
