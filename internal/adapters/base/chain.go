// Package base provides the shared plumbing every chain adapter
// builds on: the adapter interface itself, HTML anchor extraction (the
// chains publish plain anchor tags, never a JS-rendered listing), and
// a thin wrapper tying a chain's config to the shared rate-limited
// fetch client. No chain-specific parsing lives here — that is the
// entire point of the adapter boundary.
package base

import (
	"context"
	"regexp"
	"strings"

	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/types"
)

// ChainAdapter is the contract every chain adapter implements.
type ChainAdapter interface {
	Slug() string
	ListStoreFileURLs(ctx context.Context) ([]string, error)
	ListPriceFileURLs(ctx context.Context) ([]string, error)
	ParseStores(data []byte) ([]types.StoreRecord, error)
	ParsePrices(data []byte) ([]types.PriceRecord, error)
}

// Base holds the fields common to every adapter implementation:
// chain identity, a fetch client, and the chain's static config.
type Base struct {
	Config adapterconfig.ChainConfig
	Client *fetch.Client
}

// NewBase creates the shared adapter plumbing for a chain.
func NewBase(cfg adapterconfig.ChainConfig, client *fetch.Client) Base {
	return Base{Config: cfg, Client: client}
}

// Slug returns the chain slug.
func (b Base) Slug() string { return string(b.Config.ID) }

// Anchor is one <a> tag found on an index page.
type Anchor struct {
	Href string
	Text string
}

var (
	anchorPattern = regexp.MustCompile(`(?is)<a\b[^>]*\bhref\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a>`)
	tagPattern    = regexp.MustCompile(`(?is)<[^>]+>`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// ExtractAnchors pulls every <a href="..">text</a> pair out of raw
// HTML. It deliberately does not use a full DOM parser: the chains'
// index pages are static, hand-templated HTML, and these portals have
// historically broken far more often from a changed anchor-text
// marker than from malformed markup.
func ExtractAnchors(html string) []Anchor {
	matches := anchorPattern.FindAllStringSubmatch(html, -1)
	anchors := make([]Anchor, 0, len(matches))
	for _, m := range matches {
		text := tagPattern.ReplaceAllString(m[2], "")
		text = spacePattern.ReplaceAllString(text, " ")
		anchors = append(anchors, Anchor{
			Href: strings.TrimSpace(m[1]),
			Text: strings.TrimSpace(text),
		})
	}
	return anchors
}

// AnchorsWithText filters anchors to those whose text equals want
// after whitespace normalization.
func AnchorsWithText(anchors []Anchor, want string) []Anchor {
	out := make([]Anchor, 0)
	for _, a := range anchors {
		if a.Text == want {
			out = append(out, a)
		}
	}
	return out
}

// DedupeByFilename removes URLs that resolve to the same file name,
// keeping the first occurrence, so discovery stays stable across
// paginated index pages that repeat a link.
func DedupeByFilename(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		name := filenameOf(u)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, u)
	}
	return out
}

func filenameOf(u string) string {
	u = strings.Split(u, "?")[0]
	if idx := strings.LastIndex(u, "/"); idx >= 0 {
		return u[idx+1:]
	}
	return u
}
