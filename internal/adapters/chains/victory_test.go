package chains

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/fetch/ratelimit"
)

func newVictoryForServer(t *testing.T, srv *httptest.Server) *VictoryAdapter {
	t.Helper()
	client := fetch.NewClient(ratelimit.Config{RequestsPerSecond: 100, MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1}, 0)
	a := &VictoryAdapter{}
	a.Config = adapterconfig.ChainConfig{
		ID:                 adapterconfig.ChainVictory,
		BaseURL:            srv.URL,
		StoreIndexURL:      srv.URL + "/Stores",
		PriceIndexURL:      srv.URL + "/Prices",
		DownloadAnchorText: "לחץ כאן להורדה",
	}
	a.Client = client
	return a
}

// TestVictoryListFileURLs_BackslashAndRelativeHref verifies hrefs that
// use backslashes and omit the scheme/host are normalized against the
// chain's base URL.
func TestVictoryListFileURLs_BackslashAndRelativeHref(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Prices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
			<a href="\Downloads\PriceFull7290700100003-001-202401190600.gz">` + "לחץ כאן להורדה" + `</a>
			<a href="/Downloads/Stores7290700100003-001.gz">` + "לחץ כאן להורדה" + `</a>
		</html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newVictoryForServer(t, srv)
	urls, err := a.ListPriceFileURLs(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 1, "only the price-matching href should survive the substring filter")
	assert.Equal(t, srv.URL+"/Downloads/PriceFull7290700100003-001-202401190600.gz", urls[0])
}

func TestVictoryListFileURLs_AbsoluteHrefPassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Stores", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><a href="https://cdn.example.com/Stores1.gz">` + "לחץ כאן להורדה" + `</a></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newVictoryForServer(t, srv)
	urls, err := a.ListStoreFileURLs(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://cdn.example.com/Stores1.gz", urls[0])
}

func TestVictoryParseStores(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?>
	<Store>
		<Branches>
			<Branch>
				<StoreID>0017</StoreID>
				<StoreName>Haifa Bay</StoreName>
				<Address>HaNamal 3</Address>
				<City>Haifa</City>
			</Branch>
			<Branch>
				<StoreId></StoreId>
				<StoreName>Missing Id</StoreName>
			</Branch>
		</Branches>
	</Store>`)

	a := &VictoryAdapter{}
	records, err := a.ParseStores(xmlDoc)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0017", records[0].StoreID, "victory ids are persisted verbatim, no leading-zero stripping")
	assert.Equal(t, "Haifa Bay", records[0].Name)
	assert.Equal(t, "Haifa", records[0].City)
}

func TestVictoryParsePrices(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?>
	<Prices>
		<StoreId>0017</StoreId>
		<Items>
			<Product>
				<ItemCode>7290000111111</ItemCode>
				<ItemName>Olive Oil 1L</ItemName>
				<ItemPrice>32.90</ItemPrice>
			</Product>
			<Product>
				<ItemCode></ItemCode>
				<ItemName>No Barcode</ItemName>
				<ItemPrice>5.00</ItemPrice>
			</Product>
		</Items>
	</Prices>`)

	a := &VictoryAdapter{}
	records, err := a.ParsePrices(xmlDoc)
	require.NoError(t, err)
	require.Len(t, records, 1, "a product with no barcode must be skipped")
	assert.Equal(t, "0017", records[0].StoreID)
	assert.Equal(t, "7290000111111", records[0].Barcode)
	assert.Equal(t, 32.90, records[0].Price)
}

func TestVictoryNormalizeHref(t *testing.T) {
	a := &VictoryAdapter{}
	a.Config = adapterconfig.ChainConfig{BaseURL: "https://laibcatalog.co.il/"}

	assert.Equal(t, "https://laibcatalog.co.il/Downloads/x.gz", a.normalizeHref(`\Downloads\x.gz`))
	assert.Equal(t, "https://laibcatalog.co.il/Downloads/x.gz", a.normalizeHref(`/Downloads/x.gz`))
	assert.Equal(t, "https://elsewhere.example.com/x.gz", a.normalizeHref("https://elsewhere.example.com/x.gz"))
}
