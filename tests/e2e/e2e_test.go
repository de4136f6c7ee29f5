//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Vicae-a/Blog/internal/client"
	"github.com/Vicae-a/Blog/internal/clientcache"
)

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("BLOG_BASE_URL", "http://localhost:8080")
}

func newClient(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.New(baseURL())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

// registerUser creates a fresh account and returns a client logged in as it.
func registerUser(t *testing.T, name string) *client.Client {
	t.Helper()

	c := newClient(t)
	email := fmt.Sprintf("%s-%d@e2e.test", strings.ToLower(name), time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.Register(ctx, client.RegisterInput{
		Name:                 name,
		Email:                email,
		Password:             "e2e-password",
		PasswordConfirmation: "e2e-password",
	}); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return c
}

func pngImage(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func fetchStorage(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(baseURL() + "/storage/" + path)
	if err != nil {
		t.Fatalf("fetch %s: %v", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, resp.Header.Get("Content-Type")
}

func TestE2EPostLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner := registerUser(t, "Owner")
	other := registerUser(t, "Other")

	post, err := owner.CreatePost(ctx, client.CreatePostInput{
		Title:   "E2E post with image",
		Content: "Body",
		Image:   &client.Image{Filename: "red.png", Data: pngImage(t, 32, 24, color.RGBA{R: 255, A: 255})},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.UserID != owner.Session().User.ID {
		t.Fatalf("post owner = %d, want %d", post.UserID, owner.Session().User.ID)
	}
	if post.ImagePath == nil || *post.ImagePath == "" {
		t.Fatal("created post has no image_path")
	}
	firstImage := *post.ImagePath

	status, contentType := fetchStorage(t, firstImage)
	if status != http.StatusOK || !strings.HasPrefix(contentType, "image/") {
		t.Fatalf("stored image: status %d, content type %q", status, contentType)
	}

	// Another user cannot touch the post.
	if err := other.DeletePost(ctx, post.ID); !client.IsForbidden(err) {
		t.Fatalf("foreign delete error = %v, want 403", err)
	}
	if _, err := owner.GetPost(ctx, post.ID); err != nil {
		t.Fatalf("post missing after refused delete: %v", err)
	}

	// Replacing the image stores the new one and discards the old one.
	title := "E2E post, edited"
	updated, err := owner.UpdatePost(ctx, post.ID, client.UpdatePostInput{
		Title: &title,
		Image: &client.Image{Filename: "blue.png", Data: pngImage(t, 16, 16, color.RGBA{B: 255, A: 255})},
	})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.UserID != post.UserID {
		t.Errorf("owner changed on update: %d -> %d", post.UserID, updated.UserID)
	}
	if updated.ImagePath == nil || *updated.ImagePath == firstImage {
		t.Fatalf("image_path not replaced: %v", updated.ImagePath)
	}
	if status, _ := fetchStorage(t, *updated.ImagePath); status != http.StatusOK {
		t.Errorf("new image status = %d, want 200", status)
	}
	deadline := time.Now().Add(10 * time.Second)
	for {
		status, _ := fetchStorage(t, firstImage)
		if status == http.StatusNotFound {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("old image still served with status %d", status)
		}
		time.Sleep(250 * time.Millisecond)
	}

	comment, err := other.AddComment(ctx, post.ID, "Nice picture")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if err := owner.DeleteComment(ctx, comment.ID); !client.IsForbidden(err) {
		t.Errorf("foreign comment delete error = %v, want 403", err)
	}

	if _, err := other.AddComment(ctx, post.ID, strings.Repeat("x", 501)); !client.IsValidation(err) {
		t.Errorf("long comment error = %v, want 422", err)
	}
	shown, err := owner.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(shown.Comments) != 1 {
		t.Errorf("comments = %d, want 1", len(shown.Comments))
	}

	if err := owner.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := owner.GetPost(ctx, post.ID); !client.IsNotFound(err) {
		t.Errorf("deleted post error = %v, want 404", err)
	}
	if err := other.DeleteComment(ctx, comment.ID); !client.IsNotFound(err) {
		t.Errorf("cascaded comment delete error = %v, want 404", err)
	}
}

func TestE2ECreateWithoutImage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := registerUser(t, "Plain")
	post, err := c.CreatePost(ctx, client.CreatePostInput{Title: "No image", Content: "Just text"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ImagePath != nil {
		t.Errorf("image_path = %q, want null", *post.ImagePath)
	}
}

func TestE2EPaginationAndSearch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := registerUser(t, "Pager")
	author := c.Session().User.ID
	marker := fmt.Sprintf("Marker%d", time.Now().UnixNano())

	for i := 0; i < 15; i++ {
		if _, err := c.CreatePost(ctx, client.CreatePostInput{
			Title:   fmt.Sprintf("%s post %02d", marker, i),
			Content: "Body",
		}); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	page, err := c.ListPosts(ctx, client.ListOptions{Author: author})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(page.Items) != 10 || page.LastPage != 2 || page.Total != 15 {
		t.Fatalf("page 1 = %d items, last_page %d, total %d", len(page.Items), page.LastPage, page.Total)
	}
	if !strings.HasSuffix(page.Items[0].Title, "post 14") {
		t.Errorf("newest first: first item %q", page.Items[0].Title)
	}

	second, err := c.ListPosts(ctx, client.ListOptions{Author: author, Page: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Items) != 5 {
		t.Errorf("page 2 items = %d, want 5", len(second.Items))
	}

	for _, term := range []string{strings.ToLower(marker), strings.ToUpper(marker)} {
		found, err := c.ListPosts(ctx, client.ListOptions{Search: term})
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if found.Total != 15 {
			t.Errorf("search %q total = %d, want 15", term, found.Total)
		}
	}
}

func TestE2ECachedReadsFollowMutations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	c := registerUser(t, "Cached")
	blog := client.NewBlog(c, clientcache.New())

	post, err := blog.CreatePost(ctx, client.CreatePostInput{Title: "Cached", Content: "Body"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := blog.Post(ctx, post.ID); err != nil {
		t.Fatalf("read post: %v", err)
	}

	if _, err := blog.AddComment(ctx, post.ID, "first"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	blog.Cache().Wait()

	entry, _ := blog.Cache().Peek(client.PostKey(post.ID))
	cached, ok := entry.Value.(*client.Post)
	if entry.State != clientcache.StateFresh || !ok {
		t.Fatalf("cache entry = %+v", entry)
	}
	if len(cached.Comments) != 1 {
		t.Errorf("cached post comments = %d, want 1", len(cached.Comments))
	}
}

func TestE2ELogoutRevokesToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := registerUser(t, "Leaving")
	token := c.Session().Token

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	stale, err := client.New(baseURL(), client.WithSession(client.Session{Token: token}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stale.Me(ctx); !client.IsUnauthenticated(err) {
		t.Errorf("revoked token error = %v, want 401", err)
	}
	if stale.Session() != nil {
		t.Error("401 should clear the client session")
	}
}

func TestE2ENoSecretsInResponses(t *testing.T) {
	fake := "fake.jwt." + strings.Repeat("x", 32)

	req, err := http.NewRequest(http.MethodGet, baseURL()+"/user", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+fake)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if strings.Contains(string(body), fake) {
		t.Error("error response echoed the bearer token")
	}

	c := registerUser(t, "Secretive")
	me, err := http.NewRequest(http.MethodGet, baseURL()+"/user", nil)
	if err != nil {
		t.Fatal(err)
	}
	me.Header.Set("Authorization", "Bearer "+c.Session().Token)
	resp, err = http.DefaultClient.Do(me)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	for _, leak := range []string{c.Session().Token, "password", "$argon2id$"} {
		if strings.Contains(string(body), leak) {
			t.Errorf("profile response contains %q", leak)
		}
	}
}

// TestE2ERateLimiting runs last so the exhausted IP bucket does not affect
// the other tests.
func TestE2ERateLimiting(t *testing.T) {
	if strings.EqualFold(os.Getenv("RATE_LIMIT_ENABLED"), "false") {
		t.Skip("rate limiting disabled")
	}

	hc := &http.Client{Timeout: 10 * time.Second}
	for i := 0; i < 500; i++ {
		resp, err := hc.Get(baseURL() + "/posts")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusTooManyRequests {
			continue
		}
		if resp.Header.Get("Retry-After") == "" {
			t.Error("429 without Retry-After")
		}
		if resp.Header.Get("X-RateLimit-Remaining") != "0" {
			t.Errorf("X-RateLimit-Remaining = %q, want 0", resp.Header.Get("X-RateLimit-Remaining"))
		}
		return
	}
	t.Fatal("never hit the rate limit")
}
