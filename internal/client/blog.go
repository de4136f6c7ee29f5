package client

import (
	"context"
	"strconv"

	"github.com/Vicae-a/Blog/internal/clientcache"
)

// PostsResource is the cache resource name shared by post entities and
// listings.
const PostsResource = "posts"

// Blog reads posts through a client-side cache and invalidates it on every
// mutation made through it.
type Blog struct {
	client *Client
	cache  *clientcache.Cache
}

// NewBlog wraps c. A nil cache gets a fresh one.
func NewBlog(c *Client, cache *clientcache.Cache) *Blog {
	if cache == nil {
		cache = clientcache.New()
	}
	return &Blog{client: c, cache: cache}
}

// Client returns the underlying API client.
func (b *Blog) Client() *Client { return b.client }

// Cache returns the underlying cache.
func (b *Blog) Cache() *clientcache.Cache { return b.cache }

// PostKey is the cache key of a single post.
func PostKey(id int64) clientcache.Key {
	return clientcache.EntityKey(PostsResource, strconv.FormatInt(id, 10))
}

// PostsKey is the cache key of a listing page.
func PostsKey(opts ListOptions) clientcache.Key {
	return clientcache.CollectionKey(PostsResource, opts.Query())
}

// Posts returns a listing page, from cache when fresh.
func (b *Blog) Posts(ctx context.Context, opts ListOptions) (*PostPage, error) {
	return clientcache.Get(ctx, b.cache, PostsKey(opts), b.listFetcher(opts))
}

// PostsInto loads a listing page for a view. A response that arrives after
// the view moved to other options is dropped with clientcache.ErrSuperseded.
func (b *Blog) PostsInto(ctx context.Context, view *clientcache.View, opts ListOptions) (*PostPage, error) {
	return clientcache.Load(ctx, view, PostsKey(opts), b.listFetcher(opts))
}

// Post returns a post with its comments, from cache when fresh.
func (b *Blog) Post(ctx context.Context, id int64) (*Post, error) {
	return clientcache.Get(ctx, b.cache, PostKey(id), func(ctx context.Context) (*Post, error) {
		return b.client.GetPost(ctx, id)
	})
}

func (b *Blog) listFetcher(opts ListOptions) func(context.Context) (*PostPage, error) {
	return func(ctx context.Context) (*PostPage, error) {
		return b.client.ListPosts(ctx, opts)
	}
}

// CreatePost creates a post and marks every listing stale.
func (b *Blog) CreatePost(ctx context.Context, in CreatePostInput) (*Post, error) {
	post, err := b.client.CreatePost(ctx, in)
	if err != nil {
		return nil, err
	}
	b.invalidatePost(post.ID)
	return post, nil
}

// UpdatePost updates a post and marks it and every listing stale.
func (b *Blog) UpdatePost(ctx context.Context, id int64, in UpdatePostInput) (*Post, error) {
	post, err := b.client.UpdatePost(ctx, id, in)
	if err != nil {
		return nil, err
	}
	b.invalidatePost(id)
	return post, nil
}

// DeletePost deletes a post, drops its cache entry and marks listings stale.
func (b *Blog) DeletePost(ctx context.Context, id int64) error {
	if err := b.client.DeletePost(ctx, id); err != nil {
		return err
	}
	b.cache.Remove(PostKey(id))
	b.invalidatePost(id)
	return nil
}

// AddComment comments on a post and marks the post stale.
func (b *Blog) AddComment(ctx context.Context, postID int64, content string) (*Comment, error) {
	comment, err := b.client.AddComment(ctx, postID, content)
	if err != nil {
		return nil, err
	}
	b.invalidatePost(postID)
	return comment, nil
}

// DeleteComment deletes a comment on postID and marks the post stale.
func (b *Blog) DeleteComment(ctx context.Context, postID, commentID int64) error {
	if err := b.client.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	b.invalidatePost(postID)
	return nil
}

func (b *Blog) invalidatePost(id int64) {
	b.cache.Invalidate(PostsResource, strconv.FormatInt(id, 10))
}
