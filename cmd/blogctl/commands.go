package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Vicae-a/Blog/internal/client"
)

type cli struct {
	blog   *client.Blog
	out    *printer
	stderr io.Writer
}

type command func(ctx context.Context, c *cli, args []string) error

var commands = map[string]command{
	"register":       registerCmd,
	"login":          loginCmd,
	"logout":         logoutCmd,
	"me":             meCmd,
	"posts":          postsCmd,
	"show":           showCmd,
	"create":         createCmd,
	"update":         updateCmd,
	"comment":        commentCmd,
	"delete-post":    deletePostCmd,
	"delete-comment": deleteCommentCmd,
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func required(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if fs.Lookup(name).Value.String() == "" {
			return fmt.Errorf("%w: %s requires -%s", errUsage, fs.Name(), name)
		}
	}
	return nil
}

func idArg(cmd string, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s requires an id", errUsage, cmd)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s: invalid id %q", errUsage, cmd, args[0])
	}
	return id, nil
}

func registerCmd(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	confirm := fs.String("password-confirmation", "", "password confirmation (defaults to -password)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "name", "email", "password"); err != nil {
		return err
	}
	if *confirm == "" {
		*confirm = *password
	}

	s, err := c.blog.Client().Register(ctx, client.RegisterInput{
		Name:                 *name,
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *confirm,
	})
	if err != nil {
		return err
	}
	return c.out.session(s)
}

func loginCmd(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "email", "password"); err != nil {
		return err
	}

	s, err := c.blog.Client().Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return c.out.session(s)
}

func logoutCmd(ctx context.Context, c *cli, _ []string) error {
	if err := c.blog.Client().Logout(ctx); err != nil {
		return err
	}
	return c.out.message("Logged out")
}

func meCmd(ctx context.Context, c *cli, _ []string) error {
	u, err := c.blog.Client().Me(ctx)
	if err != nil {
		return err
	}
	return c.out.user(u)
}

func postsCmd(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("posts")
	page := fs.Int("page", 1, "page number")
	search := fs.String("search", "", "title search term")
	author := fs.Int64("author", 0, "author user id")
	if err := parse(fs, args); err != nil {
		return err
	}

	p, err := c.blog.Posts(ctx, client.ListOptions{Page: *page, Search: *search, Author: *author})
	if err != nil {
		return err
	}
	return c.out.page(p)
}

func showCmd(ctx context.Context, c *cli, args []string) error {
	id, err := idArg("show", args)
	if err != nil {
		return err
	}
	post, err := c.blog.Post(ctx, id)
	if err != nil {
		return err
	}
	return c.out.post(post)
}

func createCmd(ctx context.Context, c *cli, args []string) error {
	fs := c.flags("create")
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post body")
	imagePath := fs.String("image", "", "path to an image to attach")
	publishedAt := fs.String("published-at", "", "publication time (RFC 3339)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "title", "content"); err != nil {
		return err
	}

	image, err := readImage(*imagePath)
	if err != nil {
		return err
	}

	post, err := c.blog.CreatePost(ctx, client.CreatePostInput{
		Title:       *title,
		Content:     *content,
		PublishedAt: *publishedAt,
		Image:       image,
	})
	if err != nil {
		return err
	}
	return c.out.post(post)
}

func updateCmd(ctx context.Context, c *cli, args []string) error {
	id, err := idArg("update", args)
	if err != nil {
		return err
	}

	fs := c.flags("update")
	fs.String("title", "", "new title")
	fs.String("content", "", "new body")
	fs.String("published-at", "", "publication time (RFC 3339)")
	imagePath := fs.String("image", "", "path to a replacement image")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	// Only flags given on the command line are sent.
	in := client.UpdatePostInput{}
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "title":
			in.Title = &v
		case "content":
			in.Content = &v
		case "published-at":
			in.PublishedAt = &v
		}
	})
	if in.Image, err = readImage(*imagePath); err != nil {
		return err
	}

	post, err := c.blog.UpdatePost(ctx, id, in)
	if err != nil {
		return err
	}
	return c.out.post(post)
}

func commentCmd(ctx context.Context, c *cli, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: comment requires <post-id> <content>", errUsage)
	}
	postID, err := idArg("comment", args)
	if err != nil {
		return err
	}

	comment, err := c.blog.AddComment(ctx, postID, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	return c.out.comment(comment)
}

func deletePostCmd(ctx context.Context, c *cli, args []string) error {
	id, err := idArg("delete-post", args)
	if err != nil {
		return err
	}
	if err := c.blog.DeletePost(ctx, id); err != nil {
		return err
	}
	return c.out.message("Post deleted successfully")
}

func deleteCommentCmd(ctx context.Context, c *cli, args []string) error {
	id, err := idArg("delete-comment", args)
	if err != nil {
		return err
	}
	if err := c.blog.Client().DeleteComment(ctx, id); err != nil {
		return err
	}
	return c.out.message("Comment deleted successfully")
}

func readImage(path string) (*client.Image, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &client.Image{Filename: filepath.Base(path), Data: data}, nil
}
