package chains

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/fetch/ratelimit"
)

func newShufersalForServer(t *testing.T, srv *httptest.Server) *ShufersalAdapter {
	t.Helper()
	client := fetch.NewClient(ratelimit.Config{RequestsPerSecond: 100, MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1}, 0)
	a := &ShufersalAdapter{}
	a.Config = adapterconfig.ChainConfig{
		ID:                 adapterconfig.ChainShufersal,
		BaseURL:            srv.URL,
		StoreIndexURL:      srv.URL + "/stores",
		PriceIndexURL:      srv.URL + "/prices?page=1",
		DownloadAnchorText: "לחץ להורדה",
		PaginationMarker:   ">>",
	}
	a.Client = client
	return a
}

// TestShufersalListPriceFileURLs_Pagination verifies the adapter reads
// the last page number from page 1's ">>" anchor, fetches every page up
// to it, and dedupes by filename across pages.
func TestShufersalListPriceFileURLs_Pagination(t *testing.T) {
	pages := map[string]string{
		"1": `<html><a href="/files/PriceFull1.gz">` + "לחץ להורדה" + `</a> <a href="/prices?page=3">>></a></html>`,
		"2": `<html><a href="/files/PriceFull2.gz">` + "לחץ להורדה" + `</a></html>`,
		"3": `<html><a href="/files/PriceFull3.gz">` + "לחץ להורדה" + `</a></html>`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/prices", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		w.Write([]byte(pages[page]))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newShufersalForServer(t, srv)
	urls, err := a.ListPriceFileURLs(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 3)
	for i, want := range []string{"PriceFull1.gz", "PriceFull2.gz", "PriceFull3.gz"} {
		assert.Contains(t, urls[i], want)
	}
}

// TestShufersalListPriceFileURLs_NoPaginationAnchor covers the case
// where the ">>" anchor is absent: discovery must cap at page 1
// rather than erroring.
func TestShufersalListPriceFileURLs_NoPaginationAnchor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/prices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><a href="/files/Only.gz">` + "לחץ להורדה" + `</a></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newShufersalForServer(t, srv)
	urls, err := a.ListPriceFileURLs(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], "Only.gz")
}

func TestShufersalListStoreFileURLs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stores", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
			<a href="/files/Stores1.gz">` + "לחץ להורדה" + `</a>
			<a href="/files/Stores1.gz">` + "לחץ להורדה" + `</a>
			<a href="/ignored">not a download</a>
		</html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newShufersalForServer(t, srv)
	urls, err := a.ListStoreFileURLs(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 1, "duplicate filename across anchors must be deduped")
	assert.Contains(t, urls[0], "Stores1.gz")
}

func TestShufersalParseStores(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?>
	<Stores>
		<STORE>
			<STOREID>007</STOREID>
			<STORENAME>Tel Aviv Central</STORENAME>
			<ADDRESS>Dizengoff 1</ADDRESS>
			<CITY>Tel Aviv</CITY>
		</STORE>
		<STORE>
			<STOREID></STOREID>
			<STORENAME>Skip Me</STORENAME>
		</STORE>
	</Stores>`)

	a := &ShufersalAdapter{}
	records, err := a.ParseStores(xmlDoc)
	require.NoError(t, err)
	require.Len(t, records, 1, "a store with an empty id must be skipped")
	assert.Equal(t, "7", records[0].StoreID, "leading zeros are stripped for Shufersal ids")
	assert.Equal(t, "Tel Aviv Central", records[0].Name)
	assert.Equal(t, "Tel Aviv", records[0].City)
}

func TestShufersalParsePrices(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?>
	<Prices>
		<StoreID>007</StoreID>
		<Products>
			<Product>
				<ItemCode>7290000000001</ItemCode>
				<ItemName>Milk 1L</ItemName>
				<ItemPrice>6.90</ItemPrice>
			</Product>
			<Product>
				<ItemCode>7290000000002</ItemCode>
				<ItemName>Bad Price</ItemName>
				<ItemPrice>not-a-number</ItemPrice>
			</Product>
			<Product>
				<ItemCode>7290000000003</ItemCode>
				<ItemName>Zero Price</ItemName>
				<ItemPrice>0</ItemPrice>
			</Product>
		</Products>
	</Prices>`)

	a := &ShufersalAdapter{}
	records, err := a.ParsePrices(xmlDoc)
	require.NoError(t, err)
	require.Len(t, records, 1, "non-numeric and non-positive prices must be skipped, siblings still import")
	assert.Equal(t, "7", records[0].StoreID)
	assert.Equal(t, "7290000000001", records[0].Barcode)
	assert.Equal(t, 6.90, records[0].Price)
}

func TestShufersalParsePrices_TolerantFieldNames(t *testing.T) {
	// Uppercase dialect: STOREID/PRODUCT/ITEMCODE/ITEMPRICE.
	xmlDoc := []byte(`<?xml version="1.0"?>
	<Root>
		<STOREID>042</STOREID>
		<Items>
			<PRODUCT>
				<ITEMCODE>123</ITEMCODE>
				<ITEMNAME>Bread</ITEMNAME>
				<ITEMPRICE>4.50</ITEMPRICE>
			</PRODUCT>
		</Items>
	</Root>`)

	a := &ShufersalAdapter{}
	records, err := a.ParsePrices(xmlDoc)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "42", records[0].StoreID)
	assert.Equal(t, "123", records[0].Barcode)
}

func TestReplacePageParam(t *testing.T) {
	got := replacePageParam("https://prices.shufersal.co.il/FileObject/UpdateCategory?catID=2&page=1", 5)
	assert.True(t, strings.Contains(got, "page=5"))
	assert.True(t, strings.Contains(got, "catID=2"))
}
