// Command blogctl is a terminal client for the blog API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vicae-a/Blog/internal/client"
)

const defaultBaseURL = "http://localhost:8080"

const usage = `usage: blogctl [-base URL] [-token T] [-json] <command> [args]

commands:
  register -name N -email E -password P [-password-confirmation P]
  login -email E -password P
  logout
  me
  posts [-page N] [-search TERM] [-author ID]
  show <id>
  create -title T -content C [-image PATH] [-published-at RFC3339]
  update <id> [-title T] [-content C] [-image PATH] [-published-at RFC3339]
  comment <post-id> <content>
  delete-post <id>
  delete-comment <id>

Environment: BLOG_API_URL and BLOG_TOKEN provide defaults for -base and -token.
`

// errUsage marks argument errors, which exit with status 2.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("blogctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }

	var (
		baseURL = global.String("base", envOr("BLOG_API_URL", defaultBaseURL), "API base URL")
		token   = global.String("token", os.Getenv("BLOG_TOKEN"), "bearer token")
		asJSON  = global.Bool("json", false, "print JSON instead of text")
		timeout = global.Duration("timeout", 30*time.Second, "request timeout")
	)
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if global.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	opts := []client.Option{client.WithUserAgent("blogctl/1.0")}
	if *token != "" {
		opts = append(opts, client.WithSession(client.Session{Token: *token}))
	}
	c, err := client.New(*baseURL, opts...)
	if err != nil {
		fmt.Fprintln(stderr, "blogctl:", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cli := &cli{
		blog:   client.NewBlog(c, nil),
		out:    newPrinter(stdout, *asJSON),
		stderr: stderr,
	}

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "blogctl: unknown command %q\n\n%s", name, usage)
		return 2
	}

	if err := cmd(ctx, cli, rest); err != nil {
		return reportError(stderr, err)
	}
	return 0
}

// reportError prints err with any field errors and returns the exit code.
func reportError(w io.Writer, err error) int {
	if errors.Is(err, errUsage) {
		fmt.Fprintln(w, "blogctl:", err)
		return 2
	}

	if apiErr, ok := client.IsAPIError(err); ok {
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", apiErr.Status)
		}
		fmt.Fprintln(w, "error:", msg)
		for _, line := range apiErr.FieldMessages() {
			fmt.Fprintln(w, "  -", line)
		}
		return 1
	}

	if errors.Is(err, client.ErrNoSession) {
		fmt.Fprintln(w, "error: not logged in; pass -token or set BLOG_TOKEN")
		return 1
	}

	fmt.Fprintln(w, "error:", err)
	return 1
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
