package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil && i > 0 {
		return i
	}
	return def
}

// seeder drives the public API with a cookie-carrying client
type seeder struct {
	baseURL string
	client  *http.Client
	out     io.Writer
}

func newSeeder(baseURL string, out io.Writer) (*seeder, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &seeder{
		baseURL: baseURL,
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
		out:     out,
	}, nil
}

func (s *seeder) postJSON(path string, body any) (*http.Response, []byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return resp, data, err
}

// ensureUser signs the account up if needed and logs in, storing the cookie
func (s *seeder) ensureUser(email, password string) error {
	signup := map[string]any{
		"email":    email,
		"password": password,
		"age":      gofakeit.Number(18, 90),
		"name":     gofakeit.Name(),
	}
	resp, _, err := s.postJSON("/api/signup", signup)
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Fprintln(s.out, "• signed-up new user")
	case http.StatusConflict:
		fmt.Fprintln(s.out, "• user exists, logging in")
	default:
		return fmt.Errorf("signup failed (%d)", resp.StatusCode)
	}

	resp, body, err := s.postJSON("/api/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed (%d): %s", resp.StatusCode, body)
	}
	return nil
}

// createPosts writes total posts, each with up to maxComments comments
func (s *seeder) createPosts(total, maxComments int) error {
	for i := 1; i <= total; i++ {
		post := map[string]string{
			"title":   gofakeit.Sentence(4),
			"content": gofakeit.Paragraph(2, 4, 30, "\n\n"),
		}

		resp, body, err := s.postJSON("/api/create-blog", post)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("create post %d failed (%d): %s", i, resp.StatusCode, body)
		}

		var created struct {
			Post struct {
				ID string `json:"id"`
			} `json:"post"`
		}
		if err := json.Unmarshal(body, &created); err != nil {
			return fmt.Errorf("decode post %d: %w", i, err)
		}

		comments := 0
		if maxComments > 0 {
			comments = gofakeit.Number(0, maxComments)
		}
		for j := 0; j < comments; j++ {
			resp, body, err := s.postJSON("/api/blog/"+created.Post.ID+"/comment", map[string]string{
				"text": gofakeit.Sentence(8),
			})
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("comment on post %d failed (%d): %s", i, resp.StatusCode, body)
			}
		}

		if i%50 == 0 || i == total {
			fmt.Fprintf(s.out, "  … %d/%d\n", i, total)
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	var (
		baseURL     string
		email       string
		password    string
		posts       int
		maxComments int
	)

	cmd := &cobra.Command{
		Use:   "initdata",
		Short: "Seed a BlogPulse server with a demo user, posts and comments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gofakeit.Seed(time.Now().UnixNano())
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Init account %s (posts=%d) on %s\n", email, posts, baseURL)

			s, err := newSeeder(baseURL, out)
			if err != nil {
				return err
			}
			if err := s.ensureUser(email, password); err != nil {
				return err
			}
			if err := s.createPosts(posts, maxComments); err != nil {
				return err
			}

			fmt.Fprintln(out, "✔ done")
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", env("API_BASE_URL", "http://localhost:6000"), "Server base URL")
	cmd.Flags().StringVar(&email, "email", env("EMAIL", "demo@example.com"), "User e-mail")
	cmd.Flags().StringVar(&password, "pass", env("PASSWORD", "Password123"), "User password")
	cmd.Flags().IntVarP(&posts, "count", "n", envInt("COUNT", 50), "How many posts to create")
	cmd.Flags().IntVar(&maxComments, "comments", envInt("MAX_COMMENTS", 3), "Maximum comments per post")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
}
