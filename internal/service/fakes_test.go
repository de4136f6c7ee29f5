package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Vicae-a/Blog/internal/cache"
	"github.com/Vicae-a/Blog/internal/media"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRepo implements the post, comment and user repositories in memory.
type memRepo struct {
	mu       sync.Mutex
	users    map[int64]*model.User
	posts    map[int64]*model.Post
	comments map[int64]*model.Comment
	nextID   int64
	clock    time.Time

	updatePostErr error
	createPostErr error
	postUpdates   int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:    map[int64]*model.User{},
		posts:    map[int64]*model.Post{},
		comments: map[int64]*model.Comment{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func copyPost(p *model.Post) *model.Post {
	c := *p
	if p.ImagePath != nil {
		v := *p.ImagePath
		c.ImagePath = &v
	}
	return &c
}

func (r *memRepo) CreateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrEmailExists
		}
	}
	u.ID = r.id()
	u.CreatedAt = r.tick()
	u.UpdatedAt = u.CreatedAt
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *memRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memRepo) UpdateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, existing := range r.users {
		if existing.ID != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrEmailExists
		}
	}
	u.UpdatedAt = r.tick()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *memRepo) CreatePost(_ context.Context, p *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createPostErr != nil {
		return r.createPostErr
	}
	if _, ok := r.users[p.UserID]; !ok {
		return repository.ErrOwnerMissing
	}
	p.ID = r.id()
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	r.posts[p.ID] = copyPost(p)
	return nil
}

func (r *memRepo) GetPostByID(_ context.Context, id int64) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	c := copyPost(p)
	if u, ok := r.users[p.UserID]; ok {
		author := *u
		c.Author = &author
	}
	return c, nil
}

func (r *memRepo) ListPosts(_ context.Context, f repository.PostFilter, page, perPage int) ([]*model.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*model.Post, 0)
	for _, p := range r.posts {
		if f.AuthorID != 0 && p.UserID != f.AuthorID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, copyPost(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memRepo) UpdatePost(_ context.Context, p *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postUpdates++
	if r.updatePostErr != nil {
		return r.updatePostErr
	}
	existing, ok := r.posts[p.ID]
	if !ok {
		return repository.ErrPostNotFound
	}
	updated := copyPost(p)
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.tick()
	updated.Author = nil
	updated.Comments = nil
	r.posts[p.ID] = updated
	p.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *memRepo) DeletePost(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repository.ErrPostNotFound
	}
	delete(r.posts, id)
	for cid, c := range r.comments {
		if c.PostID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

func (r *memRepo) CreateComment(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[c.PostID]; !ok {
		return repository.ErrPostNotFound
	}
	c.ID = r.id()
	c.CreatedAt = r.tick()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	r.comments[c.ID] = &stored
	return nil
}

func (r *memRepo) GetCommentByID(_ context.Context, id int64) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	out := *c
	if u, ok := r.users[c.UserID]; ok {
		author := *u
		out.Author = &author
	}
	return &out, nil
}

func (r *memRepo) ListCommentsByPost(_ context.Context, postID int64) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Comment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) DeleteComment(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return repository.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *memRepo) post(id int64) *model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil
	}
	return copyPost(p)
}

func (r *memRepo) addUser(name string) *model.User {
	u := &model.User{Name: name, Email: strings.ToLower(name) + "@example.test", PasswordHash: "x"}
	if err := r.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// fakeImages records stored and discarded keys.
type fakeImages struct {
	mu        sync.Mutex
	stored    map[string][]byte
	discarded []string
	saveErr   error
	seq       int
}

func newFakeImages() *fakeImages {
	return &fakeImages{stored: map[string][]byte{}}
}

func (f *fakeImages) Save(_ context.Context, up *media.Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.seq++
	key := media.ObjectKey("posts", up.Filename, up.ContentType, time.Unix(int64(1700000000+f.seq), 0))
	f.stored[key] = up.Data
	return key, nil
}

func (f *fakeImages) Discard(_ context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = append(f.discarded, key)
	delete(f.stored, key)
}

func (f *fakeImages) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.stored[key]
	return ok
}

// memSessions is an in-memory SessionStore.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	saveErr  error
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*model.Session{}}
}

func (m *memSessions) SaveSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	c := *s
	m.sessions[s.ID] = &c
	return nil
}

func (m *memSessions) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	c := *s
	return &c, nil
}

func (m *memSessions) DeleteSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.ID)
	return nil
}

func (m *memSessions) RevokeUserSessions(_ context.Context, userID int64, keep string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UserID == userID && id != keep {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

var errBoom = errors.New("boom")

func pngUpload(name string) *media.Upload {
	return &media.Upload{Filename: name, ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n" + name)}
}
