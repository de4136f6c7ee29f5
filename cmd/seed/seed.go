package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/repository"
)

// Store is the part of the repository the seeder writes through.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	CreatePost(ctx context.Context, post *model.Post) error
	CreateComment(ctx context.Context, comment *model.Comment) error
}

type options struct {
	AdminEmail    string
	AdminPassword string
	Users         int
	PostsPerUser  int
	MaxComments   int
	UserPassword  string
	Seed          uint64
	Now           time.Time
}

type summary struct {
	AdminID  int64 `json:"admin_id"`
	Users    int   `json:"users"`
	Posts    int   `json:"posts"`
	Comments int   `json:"comments"`
}

type seeder struct {
	store Store
	opts  options
	rng   *rand.Rand
	hash  func(string) (string, error)
}

func newSeeder(store Store, opts options) *seeder {
	return &seeder{
		store: store,
		opts:  opts,
		rng:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		hash:  auth.HashPassword,
	}
}

// run creates the admin and regular users if missing, then gives every one
// of them PostsPerUser posts with between one and MaxComments comments from
// distinct users.
func (s *seeder) run(ctx context.Context) (*summary, error) {
	admin, err := s.ensureUser(ctx, "Admin User", s.opts.AdminEmail, s.opts.AdminPassword)
	if err != nil {
		return nil, err
	}

	all := []*model.User{admin}
	for i := 1; i <= s.opts.Users; i++ {
		u, err := s.ensureUser(ctx, fmt.Sprintf("User %d", i), fmt.Sprintf("user%d@example.com", i), s.opts.UserPassword)
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}

	out := &summary{AdminID: admin.ID, Users: len(all)}
	for _, author := range all {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			post := s.newPost(author.ID)
			if err := s.store.CreatePost(ctx, post); err != nil {
				return nil, fmt.Errorf("create post for user %d: %w", author.ID, err)
			}
			out.Posts++

			for _, commenter := range s.pickCommenters(all) {
				comment := &model.Comment{
					PostID:  post.ID,
					UserID:  commenter.ID,
					Content: s.sentence(6, 18),
				}
				if err := s.store.CreateComment(ctx, comment); err != nil {
					return nil, fmt.Errorf("create comment on post %d: %w", post.ID, err)
				}
				out.Comments++
			}
		}
	}

	return out, nil
}

func (s *seeder) ensureUser(ctx context.Context, name, email, password string) (*model.User, error) {
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return user, nil
}

func (s *seeder) newPost(userID int64) *model.Post {
	title := s.sentence(4, 9)
	if len(title) > 255 {
		title = title[:255]
	}

	paragraphs := make([]string, 5)
	for i := range paragraphs {
		paragraphs[i] = s.paragraph()
	}

	// Published some time within the last month.
	published := s.opts.Now.Add(-time.Duration(s.rng.Int64N(int64(30 * 24 * time.Hour)))).UTC()

	return &model.Post{
		UserID:      userID,
		Title:       strings.TrimSuffix(title, "."),
		Content:     strings.Join(paragraphs, "\n\n"),
		PublishedAt: &published,
	}
}

func (s *seeder) pickCommenters(users []*model.User) []*model.User {
	limit := s.opts.MaxComments
	if limit > len(users) {
		limit = len(users)
	}
	if limit < 1 {
		return nil
	}
	n := 1 + s.rng.IntN(limit)

	picked := make([]*model.User, len(users))
	copy(picked, users)
	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked[:n]
}

var words = strings.Fields(`
	lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor
	incididunt ut labore et dolore magna aliqua enim ad minim veniam quis nostrud
	exercitation ullamco laboris nisi aliquip ex ea commodo consequat duis aute
	irure in reprehenderit voluptate velit esse cillum fugiat nulla pariatur
	excepteur sint occaecat cupidatat non proident sunt culpa qui officia deserunt
	mollit anim id est laborum`)

func (s *seeder) sentence(minWords, maxWords int) string {
	n := minWords + s.rng.IntN(maxWords-minWords+1)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[s.rng.IntN(len(words))]
	}
	first := parts[0]
	parts[0] = strings.ToUpper(first[:1]) + first[1:]
	return strings.Join(parts, " ") + "."
}

func (s *seeder) paragraph() string {
	n := 3 + s.rng.IntN(4)
	sentences := make([]string, n)
	for i := range sentences {
		sentences[i] = s.sentence(6, 14)
	}
	return strings.Join(sentences, " ")
}
