// Package seed tops the database up with synthetic demo users and posts.
// Every external call has a local fallback: one bad response degrades a
// single entity, never the whole run.
package seed

import (
	"context"
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"vistagram.app/internal/audit"
	"vistagram.app/internal/auth"
	"vistagram.app/internal/media"
	"vistagram.app/internal/obs"
	"vistagram.app/internal/social"
)

const fallbackCaption = "A beautiful moment! ✨"

// Generator produces synthetic usernames and captions.
type Generator interface {
	GenerateUsername(ctx context.Context) (string, error)
	CaptionImage(ctx context.Context, url string) (string, error)
}

// ImageSource yields stock image URLs.
type ImageSource interface {
	RandomImageURL() string
}

// Config bounds one seeding run.
type Config struct {
	MinUsers        int
	MinPosts        int
	DefaultPassword string
	// PostInterval paces consecutive post creations to respect external
	// rate limits.
	PostInterval time.Duration
}

// Seeder implements the best-effort population routine.
type Seeder struct {
	store    social.Store
	gen      Generator
	images   ImageSource
	uploader media.Uploader
	cfg      Config
	limiter  *rate.Limiter

	mu   sync.Mutex
	rand *mathrand.Rand
	now  func() time.Time
}

// Option configures Seeder behavior.
type Option func(*Seeder)

// WithRand overrides the randomness source (useful for tests).
func WithRand(r *mathrand.Rand) Option {
	return func(s *Seeder) {
		if r != nil {
			s.rand = r
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Seeder) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New constructs a Seeder.
func New(store social.Store, gen Generator, images ImageSource, uploader media.Uploader, cfg Config, opts ...Option) *Seeder {
	interval := cfg.PostInterval
	if interval <= 0 {
		interval = time.Second
	}
	s := &Seeder{
		store:    store,
		gen:      gen,
		images:   images,
		uploader: uploader,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		rand:     mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Populate tops user and post counts up to the configured minimums. Failures
// on individual entities are logged and skipped; only count/list failures
// abort the run.
func (s *Seeder) Populate(ctx context.Context) error {
	users := s.store.Users(ctx)
	posts := s.store.Posts(ctx)

	userCount, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	var usersCreated int
	for i := userCount; i < s.cfg.MinUsers; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.createUser(ctx, users) {
			usersCreated++
		}
	}

	all, err := users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	postCount, err := posts.Count(ctx)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	var postsCreated int
	if len(all) > 0 {
		for i := postCount; i < s.cfg.MinPosts; i++ {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			if s.createPost(ctx, posts, all) {
				postsCreated++
			}
		}
	}

	_ = audit.LogEvent(ctx, "seeder.run.completed", map[string]any{
		"users_created": usersCreated,
		"posts_created": postsCreated,
	})
	return nil
}

// createUser synthesizes one user. Reports whether a row was written.
func (s *Seeder) createUser(ctx context.Context, users social.UserStore) bool {
	username, err := s.gen.GenerateUsername(ctx)
	if err != nil || strings.TrimSpace(username) == "" {
		username = fmt.Sprintf("User%d", s.intn(10000))
		_ = audit.LogEvent(ctx, "seeder.username.fallback", map[string]any{"username": username})
	}

	hash, err := auth.HashPassword(s.cfg.DefaultPassword)
	if err != nil {
		_ = audit.LogEvent(ctx, "seeder.user.failed", map[string]any{"error": err.Error()})
		return false
	}

	u := &social.User{
		Username:     username,
		Email:        strings.ToLower(username) + "@example.com",
		PasswordHash: hash,
	}
	if err := users.Create(ctx, u); err != nil {
		_ = audit.LogEvent(ctx, "seeder.user.failed", map[string]any{
			"username": username,
			"error":    err.Error(),
		})
		return false
	}

	obs.CountSeededUser()
	_ = audit.LogEvent(ctx, "seeder.user.created", map[string]any{
		"username": username,
		"email":    u.Email,
	})
	return true
}

// createPost synthesizes one post for a random existing user.
func (s *Seeder) createPost(ctx context.Context, posts social.PostStore, users []*social.User) bool {
	author := users[s.intn(len(users))]
	sourceURL := s.images.RandomImageURL()

	caption, err := s.gen.CaptionImage(ctx, sourceURL)
	if err != nil || strings.TrimSpace(caption) == "" {
		caption = fallbackCaption
		_ = audit.LogEvent(ctx, "seeder.caption.fallback", map[string]any{"image_url": sourceURL})
	}

	imageURL, err := s.uploader.Upload(ctx, sourceURL)
	if err != nil {
		// Keep the origin URL rather than lose the post.
		imageURL = sourceURL
		_ = audit.LogEvent(ctx, "seeder.upload.fallback", map[string]any{
			"image_url": sourceURL,
			"error":     err.Error(),
		})
	}

	p := &social.Post{
		UserID:     author.ID,
		ImageURL:   imageURL,
		Caption:    caption,
		ShareCount: s.intn(50),
		CreatedAt:  s.randomDateWithinYear(),
	}
	if err := posts.Create(ctx, p); err != nil {
		_ = audit.LogEvent(ctx, "seeder.post.failed", map[string]any{
			"user_id": author.ID,
			"error":   err.Error(),
		})
		return false
	}

	obs.CountSeededPost()
	_ = audit.LogEvent(ctx, "seeder.post.created", map[string]any{
		"post_id":  p.ID,
		"username": author.Username,
		"caption":  caption,
	})
	return true
}

func (s *Seeder) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(n)
}

func (s *Seeder) randomDateWithinYear() time.Time {
	now := s.now().UTC()
	span := now.Sub(now.AddDate(-1, 0, 0))
	s.mu.Lock()
	offset := time.Duration(s.rand.Int63n(int64(span)))
	s.mu.Unlock()
	return now.Add(-offset)
}
