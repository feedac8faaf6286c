package providers

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"cryptodash/internal/cache"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/logger"
	"cryptodash/internal/metrics"
)

// DefaultSubreddits are the communities memes are drawn from.
var DefaultSubreddits = []string{"CryptoCurrencyMemes", "cryptomemes", "CryptoCurrency"}

var errNoPosts = errors.New("no image posts found")

// Memes serves a random post from a pool of Reddit image posts. The pool is
// refreshed at most once per cache TTL; when a refresh fails the last pool
// is reused.
type Memes struct {
	BaseURL    string
	Client     *http.Client
	Pool       *cache.TTL[[]dashboard.MemePayload]
	Subreddits []string
	// Pick returns an index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title         string `json:"title"`
	Permalink     string `json:"permalink"`
	URL           string `json:"url"`
	URLOverridden string `json:"url_overridden_by_dest"`
	Over18        bool   `json:"over_18"`
	Stickied      bool   `json:"stickied"`
	Subreddit     string `json:"subreddit"`
	Preview       struct {
		Images []struct {
			Source struct {
				URL string `json:"url"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

func (m *Memes) Fetch(ctx context.Context, prof dashboard.Profile) dashboard.Payload {
	return m.Rotate(ctx, prof, nil)
}

// Rotate serves a post other than current whenever the pool holds another
// one, so a refreshed meme slot changes on every load.
func (m *Memes) Rotate(ctx context.Context, _ dashboard.Profile, current dashboard.Payload) dashboard.Payload {
	prev, _ := current.(dashboard.MemePayload)

	if posts, ok := m.Pool.Fresh(ctx); ok && len(posts) > 0 {
		metrics.ProviderFetch("meme", metrics.OutcomeCached)
		return m.pickOther(posts, prev)
	}

	posts, err := m.Refresh(ctx)
	if err == nil {
		metrics.ProviderFetch("meme", metrics.OutcomeOK)
		return m.pickOther(posts, prev)
	}

	logger.Warn("reddit meme refresh failed", logger.ErrorField(err))
	metrics.ProviderFetch("meme", metrics.OutcomeFallback)
	if last, ok := m.Pool.Last(ctx); ok && len(last) > 0 {
		return m.pickOther(last, prev)
	}
	return dashboard.MemePayload{
		Title:  "Meme unavailable (Reddit fetch failed)",
		Source: "reddit",
	}
}

func (m *Memes) pickOther(posts []dashboard.MemePayload, prev dashboard.MemePayload) dashboard.MemePayload {
	candidates := posts
	if prev.ImageURL != nil {
		candidates = make([]dashboard.MemePayload, 0, len(posts))
		for _, p := range posts {
			if !samePost(p, prev) {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) == 0 {
			candidates = posts
		}
	}
	return candidates[m.pick(len(candidates))]
}

func samePost(a, b dashboard.MemePayload) bool {
	return equalPtr(a.ImageURL, b.ImageURL) && equalPtr(a.PostURL, b.PostURL)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Refresh fetches a new pool and stores it.
func (m *Memes) Refresh(ctx context.Context) ([]dashboard.MemePayload, error) {
	posts, err := m.fetchPosts(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, errNoPosts
	}
	m.Pool.Put(ctx, posts)
	return posts, nil
}

// Warm keeps the pool fresh until ctx is cancelled.
func (m *Memes) Warm(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, ok := m.Pool.Fresh(ctx); ok {
				continue
			}
			if _, err := m.Refresh(ctx); err != nil {
				logger.Warn("meme pool warm failed", logger.ErrorField(err))
			}
		}
	}
}

func (m *Memes) fetchPosts(ctx context.Context) ([]dashboard.MemePayload, error) {
	subs := m.Subreddits
	if len(subs) == 0 {
		subs = DefaultSubreddits
	}
	sub := subs[m.pick(len(subs))]

	var listing redditListing
	u := strings.TrimRight(m.BaseURL, "/") + "/r/" + sub + "/hot.json?limit=50"
	if err := getJSON(ctx, m.Client, u, nil, &listing); err != nil {
		return nil, err
	}

	var posts []dashboard.MemePayload
	for _, c := range listing.Data.Children {
		d := c.Data
		if d.Stickied || d.Over18 {
			continue
		}

		image := imageURL(d)
		if image == "" {
			continue
		}

		title := d.Title
		if title == "" {
			title = "Crypto meme"
		}
		subreddit := "r/" + sub
		if d.Subreddit != "" {
			subreddit = "r/" + d.Subreddit
		}
		p := dashboard.MemePayload{
			Title:     title,
			ImageURL:  &image,
			Subreddit: &subreddit,
			Source:    "reddit",
		}
		if d.Permalink != "" {
			link := "https://www.reddit.com" + d.Permalink
			p.PostURL = &link
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// imageURL prefers a direct image link and falls back to Reddit's preview.
func imageURL(d redditPost) string {
	u := d.URLOverridden
	if u == "" {
		u = d.URL
	}
	if isImageURL(u) {
		return u
	}
	if len(d.Preview.Images) > 0 && d.Preview.Images[0].Source.URL != "" {
		return strings.ReplaceAll(d.Preview.Images[0].Source.URL, "&amp;", "&")
	}
	return ""
}

func isImageURL(u string) bool {
	u = strings.ToLower(u)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif"} {
		if strings.HasSuffix(u, ext) {
			return true
		}
	}
	return false
}

func (m *Memes) pick(n int) int {
	if m.Pick != nil {
		return m.Pick(n)
	}
	return rand.IntN(n)
}
