package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Vicae-a/Blog/internal/client"
)

const timeLayout = "2006-01-02 15:04"

type printer struct {
	w      io.Writer
	asJSON bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{w: w, asJSON: asJSON}
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) message(msg string) error {
	if p.asJSON {
		return p.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.w, msg)
	return err
}

// session prints the token on its own line so it can be captured with $(...).
func (p *printer) session(s *client.Session) error {
	if p.asJSON {
		return p.json(map[string]any{"token": s.Token, "user": s.User})
	}
	_, err := fmt.Fprintln(p.w, s.Token)
	return err
}

func (p *printer) user(u *client.User) error {
	if p.asJSON {
		return p.json(u)
	}
	_, err := fmt.Fprintf(p.w, "#%d %s <%s>\n", u.ID, u.Name, u.Email)
	return err
}

func (p *printer) page(page *client.PostPage) error {
	if p.asJSON {
		return p.json(page)
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCREATED")
	for _, post := range page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", post.ID, post.Title, authorName(post.User), post.CreatedAt.Format(timeLayout))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "page %d of %d (%d posts)\n", page.CurrentPage, page.LastPage, page.Total)
	return err
}

func (p *printer) post(post *client.Post) error {
	if p.asJSON {
		return p.json(post)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", post.ID, post.Title)
	fmt.Fprintf(&b, "by %s on %s\n", authorName(post.User), post.CreatedAt.Format(timeLayout))
	if post.PublishedAt != nil {
		fmt.Fprintf(&b, "published %s\n", post.PublishedAt.Format(time.RFC3339))
	}
	if post.ImageURL != nil {
		fmt.Fprintf(&b, "image %s\n", *post.ImageURL)
	}
	fmt.Fprintf(&b, "\n%s\n", post.Content)
	if len(post.Comments) > 0 {
		fmt.Fprintf(&b, "\n%d comments\n", len(post.Comments))
		for _, c := range post.Comments {
			fmt.Fprintf(&b, "  [%d] %s: %s\n", c.ID, authorName(c.User), c.Content)
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *printer) comment(c *client.Comment) error {
	if p.asJSON {
		return p.json(c)
	}
	_, err := fmt.Fprintf(p.w, "comment #%d added to post #%d\n", c.ID, c.PostID)
	return err
}

func authorName(u *client.User) string {
	if u == nil {
		return "unknown"
	}
	return u.Name
}
