//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/testutil"
)

// ============================================================================
// Post Repository Integration Tests
// ============================================================================

func TestIntegrationPostRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Owner")

	post := testutil.NewTestPost(t, owner.ID, "Hello")
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("expected generated ID")
	}

	got, err := repo.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID failed: %v", err)
	}
	if got.Title != "Hello" || got.UserID != owner.ID {
		t.Errorf("unexpected post: %+v", got)
	}
	if got.ImagePath != nil {
		t.Errorf("ImagePath = %v, want nil", *got.ImagePath)
	}
	if got.Author == nil || got.Author.Name != "Owner" {
		t.Errorf("expected embedded author, got %+v", got.Author)
	}
}

func TestIntegrationPostRepository_GetMissing(t *testing.T) {
	ctx, repo := newTestEnv(t)

	if _, err := repo.GetPostByID(ctx, 999999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestIntegrationPostRepository_CreateWithMissingOwner(t *testing.T) {
	ctx, repo := newTestEnv(t)

	post := testutil.NewTestPost(t, 999999, "Orphan")
	if err := repo.CreatePost(ctx, post); !errors.Is(err, ErrOwnerMissing) {
		t.Fatalf("expected ErrOwnerMissing, got %v", err)
	}
}

func TestIntegrationPostRepository_ListPaginates(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Writer")

	for i := 0; i < 15; i++ {
		createPost(t, ctx, repo, owner.ID, fmt.Sprintf("Post %02d", i))
	}

	first, total, err := repo.ListPosts(ctx, PostFilter{}, 1, model.PageSize)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 15 {
		t.Errorf("total = %d, want 15", total)
	}
	if len(first) != 10 {
		t.Errorf("page 1 len = %d, want 10", len(first))
	}
	if got := model.LastPageFor(total, model.PageSize); got != 2 {
		t.Errorf("last page = %d, want 2", got)
	}

	second, _, err := repo.ListPosts(ctx, PostFilter{}, 2, model.PageSize)
	if err != nil {
		t.Fatalf("ListPosts page 2 failed: %v", err)
	}
	if len(second) != 5 {
		t.Errorf("page 2 len = %d, want 5", len(second))
	}
}

func TestIntegrationPostRepository_ListOrdersNewestFirst(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Writer")

	older := createPost(t, ctx, repo, owner.ID, "Older")
	newer := createPost(t, ctx, repo, owner.ID, "Newer")
	tiedA := createPost(t, ctx, repo, owner.ID, "Tied A")
	tiedB := createPost(t, ctx, repo, owner.ID, "Tied B")

	base := time.Now().UTC().Add(-time.Hour)
	setCreatedAt(t, ctx, repo.Pool(), older.ID, base)
	setCreatedAt(t, ctx, repo.Pool(), newer.ID, base.Add(time.Minute))
	setCreatedAt(t, ctx, repo.Pool(), tiedA.ID, base.Add(2*time.Minute))
	setCreatedAt(t, ctx, repo.Pool(), tiedB.ID, base.Add(2*time.Minute))

	posts, _, err := repo.ListPosts(ctx, PostFilter{}, 1, model.PageSize)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}

	want := []int64{tiedB.ID, tiedA.ID, newer.ID, older.ID}
	if len(posts) != len(want) {
		t.Fatalf("len = %d, want %d", len(posts), len(want))
	}
	for i, id := range want {
		if posts[i].ID != id {
			t.Errorf("posts[%d].ID = %d, want %d", i, posts[i].ID, id)
		}
	}
}

func TestIntegrationPostRepository_SearchIgnoresCase(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Writer")

	createPost(t, ctx, repo, owner.ID, "Learning Golang")
	createPost(t, ctx, repo, owner.ID, "GOLANG tips")
	createPost(t, ctx, repo, owner.ID, "Rust notes")
	createPost(t, ctx, repo, owner.ID, "100% coverage")

	tests := []struct {
		term string
		want int
	}{
		{"golang", 2},
		{"GoLang", 2},
		{"LEARNING", 1},
		{"notes", 1},
		{"%", 1},
		{"python", 0},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			posts, total, err := repo.ListPosts(ctx, PostFilter{Search: tt.term}, 1, model.PageSize)
			if err != nil {
				t.Fatalf("ListPosts failed: %v", err)
			}
			if int(total) != tt.want || len(posts) != tt.want {
				t.Errorf("search %q: total=%d len=%d, want %d", tt.term, total, len(posts), tt.want)
			}
		})
	}
}

func TestIntegrationPostRepository_FilterByAuthor(t *testing.T) {
	ctx, repo := newTestEnv(t)
	alice := createUser(t, ctx, repo, "Alice")
	bob := createUser(t, ctx, repo, "Bob")

	createPost(t, ctx, repo, alice.ID, "A1")
	createPost(t, ctx, repo, alice.ID, "A2")
	createPost(t, ctx, repo, bob.ID, "B1")

	posts, total, err := repo.ListPosts(ctx, PostFilter{AuthorID: alice.ID}, 1, model.PageSize)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	for _, p := range posts {
		if p.UserID != alice.ID {
			t.Errorf("post %d belongs to %d, want %d", p.ID, p.UserID, alice.ID)
		}
	}
}

func TestIntegrationPostRepository_UpdateKeepsOwner(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Owner")
	other := createUser(t, ctx, repo, "Other")

	post := createPost(t, ctx, repo, owner.ID, "Before")
	post.Title = "After"
	post.UserID = other.ID
	post.ImagePath = testutil.StringPtr("posts/1_a.png")

	if err := repo.UpdatePost(ctx, post); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	got, err := repo.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID failed: %v", err)
	}
	if got.Title != "After" {
		t.Errorf("Title = %q, want After", got.Title)
	}
	if got.UserID != owner.ID {
		t.Errorf("UserID = %d, want %d (owner is immutable)", got.UserID, owner.ID)
	}
	if got.ImagePath == nil || *got.ImagePath != "posts/1_a.png" {
		t.Errorf("ImagePath = %v, want posts/1_a.png", got.ImagePath)
	}
}

func TestIntegrationPostRepository_DeleteCascadesComments(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Owner")
	reader := createUser(t, ctx, repo, "Reader")

	post := createPost(t, ctx, repo, owner.ID, "Doomed")
	for i := 0; i < 3; i++ {
		c := testutil.NewTestComment(t, post.ID, reader.ID, fmt.Sprintf("comment %d", i))
		if err := repo.CreateComment(ctx, c); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
	}

	if err := repo.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	count, err := repo.CountCommentsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountCommentsByPost failed: %v", err)
	}
	if count != 0 {
		t.Errorf("comments after delete = %d, want 0", count)
	}

	if err := repo.DeletePost(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("second delete: expected ErrPostNotFound, got %v", err)
	}
}

// ============================================================================
// Comment Repository Integration Tests
// ============================================================================

func TestIntegrationCommentRepository_DeleteKeepsPost(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Owner")

	post := createPost(t, ctx, repo, owner.ID, "Survivor")
	comment := testutil.NewTestComment(t, post.ID, owner.ID, "bye")
	if err := repo.CreateComment(ctx, comment); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if err := repo.DeleteComment(ctx, comment.ID); err != nil {
		t.Fatalf("DeleteComment failed: %v", err)
	}

	if _, err := repo.GetPostByID(ctx, post.ID); err != nil {
		t.Fatalf("post should survive comment deletion: %v", err)
	}
	if _, err := repo.GetCommentByID(ctx, comment.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestIntegrationCommentRepository_ListOldestFirst(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Owner")
	post := createPost(t, ctx, repo, owner.ID, "Thread")

	var ids []int64
	for i := 0; i < 3; i++ {
		c := testutil.NewTestComment(t, post.ID, owner.ID, fmt.Sprintf("c%d", i))
		if err := repo.CreateComment(ctx, c); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
		ids = append(ids, c.ID)
	}

	comments, err := repo.ListCommentsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListCommentsByPost failed: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("len = %d, want 3", len(comments))
	}
	for i, c := range comments {
		if c.ID != ids[i] {
			t.Errorf("comments[%d].ID = %d, want %d", i, c.ID, ids[i])
		}
		if c.Author == nil || c.Author.ID != owner.ID {
			t.Errorf("comments[%d] missing author", i)
		}
	}
}

func TestIntegrationCommentRepository_MissingPost(t *testing.T) {
	ctx, repo := newTestEnv(t)
	owner := createUser(t, ctx, repo, "Owner")

	c := testutil.NewTestComment(t, 999999, owner.ID, "lost")
	if err := repo.CreateComment(ctx, c); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

// ============================================================================
// User Repository Integration Tests
// ============================================================================

func TestIntegrationUserRepository_DuplicateEmail(t *testing.T) {
	ctx, repo := newTestEnv(t)

	first := testutil.NewTestUser(t, "First")
	if err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := testutil.NewTestUser(t, "Dup")
	dup.Email = first.Email
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, strings.ToUpper(first.Email))
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != first.ID {
		t.Errorf("GetUserByEmail returned %d, want %d", byEmail.ID, first.ID)
	}
}

func TestIntegrationUserRepository_Update(t *testing.T) {
	ctx, repo := newTestEnv(t)
	user := createUser(t, ctx, repo, "Before")

	user.Name = "After"
	if err := repo.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Name != "After" {
		t.Errorf("Name = %q, want After", got.Name)
	}

	missing := &model.User{ID: 999999, Name: "x", Email: "x@example.test", PasswordHash: "x"}
	if err := repo.UpdateUser(ctx, missing); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

func createUser(t *testing.T, ctx context.Context, repo *Repository, name string) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, name)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return user
}

func createPost(t *testing.T, ctx context.Context, repo *Repository, userID int64, title string) *model.Post {
	t.Helper()
	post := testutil.NewTestPost(t, userID, title)
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost(%s) failed: %v", title, err)
	}
	return post
}

func setCreatedAt(t *testing.T, ctx context.Context, pool *pgxpool.Pool, postID int64, at time.Time) {
	t.Helper()
	if _, err := pool.Exec(ctx, `UPDATE posts SET created_at = $2 WHERE id = $1`, postID, at); err != nil {
		t.Fatalf("set created_at: %v", err)
	}
}
