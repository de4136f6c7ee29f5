package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Vicae-a/Blog/internal/model"
)

// Common errors for post repository operations.
var (
	ErrPostNotFound = errors.New("post not found")
	ErrOwnerMissing = errors.New("post owner does not exist")
)

// PostFilter defines filters for listing posts. Zero values match everything.
type PostFilter struct {
	// Search matches titles containing the term, ignoring case.
	Search string
	// AuthorID restricts results to a single owner when non-zero.
	AuthorID int64
}

const postSelect = `
	SELECT p.id, p.user_id, p.title, p.content, p.image_path, p.published_at, p.created_at, p.updated_at,
	       u.id, u.name, u.email, u.created_at, u.updated_at
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

// CreatePost inserts a new post and fills in its generated fields.
func (r *Repository) CreatePost(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (user_id, title, content, image_path, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		post.ImagePath,
		post.PublishedAt,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrOwnerMissing
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetPostByID retrieves a post with its author.
func (r *Repository) GetPostByID(ctx context.Context, id int64) (*model.Post, error) {
	query := postSelect + ` WHERE p.id = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}

	return post, nil
}

// ListPosts returns one page of posts, newest first, and the total number of
// posts matching the filter. page is 1-based.
func (r *Repository) ListPosts(ctx context.Context, filter PostFilter, page, perPage int) ([]*model.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = model.PageSize
	}

	where, args := buildPostWhere(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM posts p` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	argIndex := len(args) + 1
	query := postSelect + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*model.Post, 0, perPage)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, total, nil
}

// UpdatePost overwrites every mutable field of the post. The owner is never
// changed.
func (r *Repository) UpdatePost(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, image_path = $4, published_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.ImagePath,
		post.PublishedAt,
	).Scan(&post.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to update post: %w", err)
	}

	return nil
}

// DeletePost removes a post. Comments are removed by the ON DELETE CASCADE
// foreign key.
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}

// buildPostWhere renders the WHERE clause and positional args for a filter.
func buildPostWhere(filter PostFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf(`p.title ILIKE $%d ESCAPE '\'`, len(args)))
	}

	if filter.AuthorID != 0 {
		args = append(args, filter.AuthorID)
		clauses = append(clauses, fmt.Sprintf("p.user_id = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var (
		post   model.Post
		author model.User
	)
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&post.ImagePath,
		&post.PublishedAt,
		&post.CreatedAt,
		&post.UpdatedAt,
		&author.ID,
		&author.Name,
		&author.Email,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	post.Author = &author
	return &post, nil
}
