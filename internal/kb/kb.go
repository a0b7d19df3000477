package kb

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
)

const (
	fetchTimeout = 15 * time.Second
	excerptLimit = 400 // characters of extracted text per article
	defaultLimit = 3
)

// Source points at a help-center page that can be offered alongside replies.
type Source struct {
	Title    string
	URL      string
	Keywords []string
}

// Article is a fetched knowledge-base page with a readable excerpt.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Library matches user queries against configured sources and extracts
// readable excerpts from the matching pages. Fetched pages are cached for
// the lifetime of the library.
type Library struct {
	sources []Source
	client  *http.Client
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]Article
}

// New creates a library over the given sources.
func New(sources []Source, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		sources: sources,
		client:  &http.Client{Timeout: fetchTimeout},
		logger:  logger,
		cache:   make(map[string]Article),
	}
}

// Lookup returns up to limit articles whose keywords appear in the query,
// best match first. Pages that cannot be fetched are returned without an
// excerpt rather than dropped: the link itself is still useful.
func (l *Library) Lookup(ctx context.Context, query string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	q := strings.ToLower(query)

	type scored struct {
		src   Source
		score int
	}
	var matches []scored
	for _, s := range l.sources {
		score := 0
		for _, kw := range s.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{src: s, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Article, 0, len(matches))
	for _, m := range matches {
		a, err := l.fetch(ctx, m.src)
		if err != nil {
			l.logger.Warn("knowledge fetch failed", "url", m.src.URL, "error", err)
			a = Article{Title: m.src.Title, URL: m.src.URL}
		}
		out = append(out, a)
	}
	return out, nil
}

// Sources returns the configured sources.
func (l *Library) Sources() []Source {
	return l.sources
}

func (l *Library) fetch(ctx context.Context, src Source) (Article, error) {
	l.mu.Lock()
	if a, ok := l.cache[src.URL]; ok {
		l.mu.Unlock()
		return a, nil
	}
	l.mu.Unlock()

	parsedURL, err := url.Parse(src.URL)
	if err != nil {
		return Article{}, fmt.Errorf("kb: invalid URL %q: %w", src.URL, err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", src.URL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("kb: %w", err)
	}
	req.Header.Set("User-Agent", "supportdesk/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("kb: fetch %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("kb: fetch %s: HTTP %d", src.URL, resp.StatusCode)
	}

	page, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return Article{}, fmt.Errorf("kb: parse %s: %w", src.URL, err)
	}

	var textBuf bytes.Buffer
	if err := page.RenderText(&textBuf); err != nil {
		return Article{}, fmt.Errorf("kb: render %s: %w", src.URL, err)
	}

	title := src.Title
	if title == "" {
		title = page.Title()
	}
	a := Article{
		Title:   title,
		URL:     src.URL,
		Excerpt: excerpt(textBuf.String()),
	}

	l.mu.Lock()
	l.cache[src.URL] = a
	l.mu.Unlock()
	return a, nil
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= excerptLimit {
		return text
	}
	cut := text[:excerptLimit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
