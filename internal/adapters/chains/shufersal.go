// Package chains holds the per-chain dialect adapters. Each file in
// this package is the ONLY place that may know a given chain's anchor
// text, XML element names, or URL scheme — every other package works
// purely in terms of internal/types records.
package chains

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/adapters/base"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/types"
	"github.com/rs/zerolog/log"
)

// ShufersalAdapter implements base.ChainAdapter for the Shufersal
// price-transparency portal.
type ShufersalAdapter struct {
	base.Base
}

// NewShufersalAdapter constructs the Shufersal adapter.
func NewShufersalAdapter(client *fetch.Client) *ShufersalAdapter {
	cfg, _ := adapterconfig.GetChainConfig(adapterconfig.ChainShufersal)
	return &ShufersalAdapter{Base: base.NewBase(cfg, client)}
}

var shufersalPageParam = regexp.MustCompile(`(?i)[?&]page=(\d+)`)

// ListStoreFileURLs fetches the (non-paginated) category-5 index and
// returns every download link, deduplicated by filename.
func (a *ShufersalAdapter) ListStoreFileURLs(ctx context.Context) ([]string, error) {
	html, err := a.Client.GetText(ctx, a.Config.StoreIndexURL)
	if err != nil {
		return nil, fmt.Errorf("shufersal: fetch store index: %w", err)
	}
	return base.DedupeByFilename(a.extractDownloadLinks(html, a.Config.StoreIndexURL)), nil
}

// ListPriceFileURLs walks the paginated category-2 index. Page 1 is
// scraped for a ">>" anchor whose href carries the last page number
//; pages 1..N are then all fetched and their download
// links merged and deduplicated by filename.
func (a *ShufersalAdapter) ListPriceFileURLs(ctx context.Context) ([]string, error) {
	firstPageURL := a.Config.PriceIndexURL
	firstHTML, err := a.Client.GetText(ctx, firstPageURL)
	if err != nil {
		return nil, fmt.Errorf("shufersal: fetch price index page 1: %w", err)
	}

	lastPage := a.discoverLastPage(firstHTML)

	var urls []string
	urls = append(urls, a.extractDownloadLinks(firstHTML, firstPageURL)...)

	for page := 2; page <= lastPage; page++ {
		pageURL := replacePageParam(firstPageURL, page)
		html, err := a.Client.GetText(ctx, pageURL)
		if err != nil {
			log.Warn().Err(err).Str("chain", "shufersal").Int("page", page).Msg("failed to fetch price index page, continuing")
			continue
		}
		urls = append(urls, a.extractDownloadLinks(html, pageURL)...)
	}

	return base.DedupeByFilename(urls), nil
}

// discoverLastPage looks for the literal ">>" anchor and reads the
// page query parameter from its href. If no such anchor is found, it
// logs a warning and caps discovery at page 1.
func (a *ShufersalAdapter) discoverLastPage(html string) int {
	anchors := base.ExtractAnchors(html)
	markers := base.AnchorsWithText(anchors, a.Config.PaginationMarker)
	if len(markers) == 0 {
		log.Warn().Str("chain", "shufersal").Msg(`no ">>" last-page anchor found; capping discovery at page 1`)
		return 1
	}

	m := shufersalPageParam.FindStringSubmatch(markers[0].Href)
	if m == nil {
		log.Warn().Str("chain", "shufersal").Str("href", markers[0].Href).Msg(`">>" anchor has no page query parameter; capping discovery at page 1`)
		return 1
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// extractDownloadLinks returns the absolute URL of every anchor whose
// text is the chain's literal download marker.
func (a *ShufersalAdapter) extractDownloadLinks(html, pageURL string) []string {
	anchors := base.ExtractAnchors(html)
	links := base.AnchorsWithText(anchors, a.Config.DownloadAnchorText)

	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, resolveURL(pageURL, l.Href))
	}
	return out
}

func replacePageParam(rawURL string, page int) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// ParseStores parses a Shufersal stores XML payload: a flat //STORE
// list with STOREID/STORENAME/ADDRESS/CITY children.
func (a *ShufersalAdapter) ParseStores(data []byte) ([]types.StoreRecord, error) {
	root, err := base.ParseXMLTree(data)
	if err != nil {
		return nil, fmt.Errorf("shufersal: parse stores xml: %w", err)
	}

	stores := base.FindAllByTag(root, "STORE")
	records := make([]types.StoreRecord, 0, len(stores))
	for _, s := range stores {
		storeID := base.StripLeadingZeros(base.ChildText(s, "STOREID"))
		if storeID == "" {
			continue
		}
		records = append(records, types.StoreRecord{
			StoreID: storeID,
			Name:    base.ChildText(s, "STORENAME"),
			Address: base.ChildText(s, "ADDRESS"),
			City:    base.ChildText(s, "CITY"),
		})
	}
	return records, nil
}

// ParsePrices parses a Shufersal prices XML payload. The root-level
// store id is read from whichever of StoreId/StoreID/STOREID is
// present; products appear under //Product, falling back to //Item,
// falling back to //PRODUCT. A product whose price fails numeric
// parsing or is non-positive is skipped; its siblings still import
//.
func (a *ShufersalAdapter) ParsePrices(data []byte) ([]types.PriceRecord, error) {
	root, err := base.ParseXMLTree(data)
	if err != nil {
		return nil, fmt.Errorf("shufersal: parse prices xml: %w", err)
	}

	var storeIDText string
	if len(root.Children) > 0 {
		storeIDText = base.ChildText(root.Children[0], "StoreId", "StoreID", "STOREID")
	}
	if storeIDText == "" {
		// Some files nest the store id one level further; fall back to a
		// tree-wide search before giving up.
		if nodes := base.FindFirstAllByTag(root, "StoreId", "StoreID", "STOREID"); len(nodes) > 0 {
			storeIDText = strings.TrimSpace(nodes[0].Text)
		}
	}
	storeID := base.StripLeadingZeros(storeIDText)

	products := base.FindFirstAllByTag(root, "Product", "Item", "PRODUCT")
	records := make([]types.PriceRecord, 0, len(products))
	for _, p := range products {
		barcode := base.ChildText(p, "ItemCode", "Barcode", "ITEMCODE")
		name := base.ChildText(p, "ItemName", "ProductName", "ITEMNAME")
		priceText := base.ChildText(p, "ItemPrice", "Price", "ITEMPRICE")

		if barcode == "" {
			continue
		}
		price, ok := base.ParsePositivePrice(priceText)
		if !ok {
			continue
		}

		records = append(records, types.PriceRecord{
			StoreID: storeID,
			Barcode: barcode,
			Name:    name,
			Price:   price,
		})
	}
	return records, nil
}
