// Package scraper fetches dataset files. Sources are local paths, direct CSV
// URLs, or HTML pages whose CSV links are followed.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gocolly/colly"
)

// ErrNoCSVLink is returned when a page links no CSV file.
var ErrNoCSVLink = errors.New("no csv link found")

type ScraperInterface interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
	FetchDataset(ctx context.Context, source, hint string) ([]byte, error)
	DiscoverCSVLinks(ctx context.Context, pageURL string) ([]string, error)
}

type Scraper struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
	Logger      *slog.Logger
}

func NewScraper() *Scraper {
	return &Scraper{
		UserAgent:   "streamlens/1.0",
		Timeout:     60 * time.Second,
		MaxBodySize: 200 << 20,
		Logger:      slog.Default(),
	}
}

func (s *Scraper) collector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(s.UserAgent),
		colly.MaxBodySize(s.MaxBodySize),
		colly.AllowURLRevisit(),
	)
	if s.Timeout > 0 {
		c.SetRequestTimeout(s.Timeout)
	}
	c.OnRequest(func(r *colly.Request) {
		s.logger().Debug("visiting", "url", r.URL.String())
	})
	return c
}

func (s *Scraper) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch returns the raw body of source. Local paths are read from disk.
func (s *Scraper) Fetch(ctx context.Context, source string) ([]byte, error) {
	if !IsRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		return data, nil
	}
	body, _, err := s.get(ctx, source)
	return body, err
}

// FetchDataset fetches a CSV dataset. When source is an HTML page, the first
// CSV link containing hint (or the first CSV link when none does) is
// followed.
func (s *Scraper) FetchDataset(ctx context.Context, source, hint string) ([]byte, error) {
	if !IsRemote(source) {
		return s.Fetch(ctx, source)
	}

	body, contentType, err := s.get(ctx, source)
	if err != nil {
		return nil, err
	}
	if !isHTML(contentType) {
		return body, nil
	}

	links, err := s.DiscoverCSVLinks(ctx, source)
	if err != nil {
		return nil, err
	}
	link := pickLink(links, hint)
	s.logger().Info("following csv link", "page", source, "link", link)
	data, _, err := s.get(ctx, link)
	return data, err
}

// DiscoverCSVLinks returns the absolute URLs of the CSV files a page links,
// in document order without duplicates.
func (s *Scraper) DiscoverCSVLinks(ctx context.Context, pageURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.collector()
	var links []string
	seen := make(map[string]bool)
	var fetchErr error

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" || seen[link] || !isCSVLink(link) {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("failed to fetch %s: status %d: %w", pageURL, r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoCSVLink, pageURL)
	}
	return links, nil
}

func (s *Scraper) get(ctx context.Context, target string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	c := s.collector()
	var body []byte
	var contentType string
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		s.logger().Debug("response received", "url", target, "status", r.StatusCode, "bytes", len(r.Body))
		body = r.Body
		contentType = r.Headers.Get("Content-Type")
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("failed to fetch %s: status %d: %w", target, r.StatusCode, err)
	})

	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("failed to visit %s: %w", target, err)
	}
	if fetchErr != nil {
		return nil, "", fetchErr
	}
	return body, contentType, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mediaType == "text/html" || mediaType == "application/xhtml+xml")
}

func isCSVLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".csv")
}

func pickLink(links []string, hint string) string {
	hint = strings.ToLower(hint)
	if hint != "" {
		for _, l := range links {
			if strings.Contains(strings.ToLower(l), hint) {
				return l
			}
		}
	}
	return links[0]
}
