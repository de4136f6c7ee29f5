package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Vicae-a/Blog/internal/model"
)

// ErrCommentNotFound is returned when a comment id does not resolve.
var ErrCommentNotFound = errors.New("comment not found")

const commentSelect = `
	SELECT c.id, c.post_id, c.user_id, c.content, c.created_at, c.updated_at,
	       u.id, u.name, u.email, u.created_at, u.updated_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

// CreateComment inserts a comment and fills in its generated fields.
// A missing parent post yields ErrPostNotFound.
func (r *Repository) CreateComment(ctx context.Context, comment *model.Comment) error {
	query := `
		INSERT INTO comments (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		comment.PostID,
		comment.UserID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetCommentByID retrieves a comment with its author.
func (r *Repository) GetCommentByID(ctx context.Context, id int64) (*model.Comment, error) {
	comment, err := scanComment(r.pool.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}

	return comment, nil
}

// ListCommentsByPost returns a post's comments, oldest first.
func (r *Repository) ListCommentsByPost(ctx context.Context, postID int64) ([]*model.Comment, error) {
	query := commentSelect + ` WHERE c.post_id = $1 ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// CountCommentsByPost returns how many comments a post has.
func (r *Repository) CountCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// DeleteComment removes a single comment.
func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var (
		comment model.Comment
		author  model.User
	)
	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.UserID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&author.ID,
		&author.Name,
		&author.Email,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	comment.Author = &author
	return &comment, nil
}
