package seeder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/elstracker/elstracker/internal/config"
	"github.com/elstracker/elstracker/internal/tools"
)

// ErrExternalFetch is returned when the class tree page cannot be fetched or
// does not contain the expected markup.
var ErrExternalFetch = errors.New("external fetch failed")

const maxPageBytes = 8 << 20

type SpecializationEntry struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
}

// ClassTree is a base class together with every specialization listed under
// it on the wiki.
type ClassTree struct {
	Name            string                `json:"name"`
	IconURL         string                `json:"iconUrl"`
	Specializations []SpecializationEntry `json:"specializations"`
}

type Source interface {
	FetchClasses(ctx context.Context) ([]ClassTree, error)
}

// StaticSource serves a fixed set of class trees.
type StaticSource []ClassTree

func (s StaticSource) FetchClasses(context.Context) ([]ClassTree, error) {
	return s, nil
}

// WikiSource scrapes the character banner on the wiki front page.
type WikiSource struct {
	URL       string
	UserAgent string
	Client    *http.Client
}

func NewWikiSource(cfg *config.Config) *WikiSource {
	return &WikiSource{
		URL:       cfg.SeederSourceURL,
		UserAgent: cfg.SeederUserAgent,
		Client: &http.Client{
			Timeout: time.Duration(cfg.SeederFetchTimeoutSeconds) * time.Second,
		},
	}
}

func (w *WikiSource) FetchClasses(ctx context.Context) ([]ClassTree, error) {
	base, err := url.Parse(w.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", w.URL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if w.UserAgent != "" {
		req.Header.Set("User-Agent", w.UserAgent)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrExternalFetch, base, resp.StatusCode)
	}

	root, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse page: %w", ErrExternalFetch, err)
	}

	return ParseClassTrees(goquery.NewDocumentFromNode(root), base)
}

// ParseClassTrees extracts the class trees from the banner markup. Relative
// icon URLs are resolved against base.
func ParseClassTrees(doc *goquery.Document, base *url.URL) ([]ClassTree, error) {
	wrap := doc.Find(".character-banner-wrap").First()
	if wrap.Length() == 0 {
		return nil, fmt.Errorf("%w: no .character-banner-wrap on page", ErrExternalFetch)
	}

	// class icons live in the selector strip, keyed by the same display name
	classIcons := make(map[string]string)
	wrap.Find(".character-banner-select").First().Find("div[data-display-base]").Each(func(_ int, sel *goquery.Selection) {
		name := tools.CleanName(sel.AttrOr("data-display-base", ""))
		if _, seen := classIcons[name]; !seen {
			classIcons[name] = imageURL(sel.Find("img").First(), base)
		}
	})

	trees := wrap.Find(".char-banner-tree")
	if trees.Length() == 0 {
		return nil, fmt.Errorf("%w: no .char-banner-tree in banner", ErrExternalFetch)
	}

	var classes []ClassTree
	trees.Each(func(_ int, tree *goquery.Selection) {
		name := tools.CleanName(tree.AttrOr("data-display-base", ""))
		if name == "" {
			return
		}

		class := ClassTree{Name: name, IconURL: classIcons[name]}
		tree.Find(".char-banner-tree-image").Each(func(_ int, node *goquery.Selection) {
			specName := tools.CleanName(node.AttrOr("data-class-name", ""))
			if specName == "" {
				return
			}

			class.Specializations = append(class.Specializations, SpecializationEntry{
				Name:    specName,
				IconURL: imageURL(node.Find("img").First(), base),
			})
		})

		classes = append(classes, class)
	})

	return classes, nil
}

func imageURL(img *goquery.Selection, base *url.URL) string {
	src := img.AttrOr("src", "")
	if src == "" {
		// lazy loaded images keep the real location here
		src = img.AttrOr("data-src", "")
	}
	if src == "" {
		return ""
	}

	ref, err := url.Parse(src)
	if err != nil {
		return src
	}

	return base.ResolveReference(ref).String()
}
