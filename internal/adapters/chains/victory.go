package chains

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainwatch/price-compare/internal/adapters/base"
	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/types"
)

// VictoryAdapter implements base.ChainAdapter for the Victory
// price-transparency portal.
type VictoryAdapter struct {
	base.Base
}

// NewVictoryAdapter constructs the Victory adapter.
func NewVictoryAdapter(client *fetch.Client) *VictoryAdapter {
	cfg, _ := adapterconfig.GetChainConfig(adapterconfig.ChainVictory)
	return &VictoryAdapter{Base: base.NewBase(cfg, client)}
}

// ListStoreFileURLs scrapes the stores index page for download
// anchors and filters to hrefs that look like a stores file
// (case-insensitive substring "stores").
func (a *VictoryAdapter) ListStoreFileURLs(ctx context.Context) ([]string, error) {
	return a.listFileURLs(ctx, a.Config.StoreIndexURL, "stores")
}

// ListPriceFileURLs scrapes the prices index page for download
// anchors and filters to hrefs containing "price".
func (a *VictoryAdapter) ListPriceFileURLs(ctx context.Context) ([]string, error) {
	return a.listFileURLs(ctx, a.Config.PriceIndexURL, "price")
}

func (a *VictoryAdapter) listFileURLs(ctx context.Context, indexURL, substr string) ([]string, error) {
	html, err := a.Client.GetText(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("victory: fetch index %s: %w", indexURL, err)
	}

	anchors := base.ExtractAnchors(html)
	links := base.AnchorsWithText(anchors, a.Config.DownloadAnchorText)

	var urls []string
	for _, l := range links {
		if !strings.Contains(strings.ToLower(l.Href), substr) {
			continue
		}
		urls = append(urls, a.normalizeHref(l.Href))
	}
	return base.DedupeByFilename(urls), nil
}

// normalizeHref converts backslashes to forward slashes and resolves
// relative paths against the chain's base URL.
func (a *VictoryAdapter) normalizeHref(href string) string {
	href = strings.ReplaceAll(href, `\`, "/")

	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base := strings.TrimRight(a.Config.BaseURL, "/")
	href = strings.TrimLeft(href, "/")
	return base + "/" + href
}

// ParseStores parses a Victory stores XML payload: stores live under
// /Store/Branches/Branch with mixed-case child elements.
func (a *VictoryAdapter) ParseStores(data []byte) ([]types.StoreRecord, error) {
	root, err := base.ParseXMLTree(data)
	if err != nil {
		return nil, fmt.Errorf("victory: parse stores xml: %w", err)
	}

	branches := base.FindAllByTag(root, "Branch")
	records := make([]types.StoreRecord, 0, len(branches))
	for _, br := range branches {
		storeID := base.ChildText(br, "StoreID", "StoreId")
		if storeID == "" {
			continue
		}
		records = append(records, types.StoreRecord{
			StoreID: storeID, // Victory ids are persisted verbatim
			Name:    base.ChildText(br, "StoreName"),
			Address: base.ChildText(br, "Address"),
			City:    base.ChildText(br, "City"),
		})
	}
	return records, nil
}

// ParsePrices parses a Victory prices XML payload: a mirror of the
// Shufersal dialect with //Product as the primary container.
func (a *VictoryAdapter) ParsePrices(data []byte) ([]types.PriceRecord, error) {
	root, err := base.ParseXMLTree(data)
	if err != nil {
		return nil, fmt.Errorf("victory: parse prices xml: %w", err)
	}

	var storeIDText string
	if len(root.Children) > 0 {
		storeIDText = base.ChildText(root.Children[0], "StoreId", "StoreID", "STOREID")
	}
	if storeIDText == "" {
		if nodes := base.FindFirstAllByTag(root, "StoreId", "StoreID", "STOREID"); len(nodes) > 0 {
			storeIDText = strings.TrimSpace(nodes[0].Text)
		}
	}

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
			StoreID: storeIDText,
			Barcode: barcode,
			Name:    name,
			Price:   price,
		})
	}
	return records, nil
}
