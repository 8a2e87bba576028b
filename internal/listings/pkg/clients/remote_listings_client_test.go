package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golistingsync_api/internal/listings/business/services"
	"golistingsync_api/internal/listings/business/syncerr"
)

func newTestClient(server *httptest.Server) *RemoteListingsClient {
	return NewRemoteListingsClient(server.URL, services.NewBearerAuth("test-key"), nil)
}

func TestFetchListingsPageParsesOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/sellers/seller-1/listings", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		w.Write([]byte(`{
			"listings": [
				{"itemId": "R1", "title": "Vintage Card", "listingStatus": "Active",
				 "currentPrice": 19.99, "currency": "USD", "watchCount": 3},
				{"itemId": "R2"}
			],
			"cursor": "next",
			"hasMore": true
		}`))
	}))
	defer server.Close()

	page, err := newTestClient(server).FetchListingsPage(context.Background(), "seller-1", "", 200)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "next", page.Cursor)

	first := page.Items[0]
	assert.Equal(t, "R1", first.RemoteID)
	require.NotNil(t, first.Title)
	assert.Equal(t, "Vintage Card", *first.Title)
	require.NotNil(t, first.WatchCount)
	assert.Equal(t, 3, *first.WatchCount)
	require.NotNil(t, first.Currency)
	assert.Equal(t, "USD", *first.Currency)

	second := page.Items[1]
	assert.Equal(t, "R2", second.RemoteID)
	assert.Nil(t, second.Title)
	assert.Nil(t, second.Status)
	assert.Nil(t, second.WatchCount)
}

func TestFetchListingsPageSkipsItemsWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"listings": [{"title": "no id"}, {"itemId": "R1"}], "hasMore": false}`))
	}))
	defer server.Close()

	page, err := newTestClient(server).FetchListingsPage(context.Background(), "seller-1", "", 200)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "R1", page.Items[0].RemoteID)
}

func TestFetchListingsPageDropsInvalidCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"listings": [{"itemId": "R1", "currency": "NOPE"}], "hasMore": false}`))
	}))
	defer server.Close()

	page, err := newTestClient(server).FetchListingsPage(context.Background(), "seller-1", "", 200)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Nil(t, page.Items[0].Currency, "an invalid currency code is treated as absent")
}

func TestFetchListingsPageUntrustedPaginationFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"listings": [], "hasMore": true, "cursor": ""}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchListingsPage(context.Background(), "seller-1", "", 200)

	assert.ErrorIs(t, err, syncerr.ErrMalformedRemoteData)
}

func TestFetchListingsPageClassifiesAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchListingsPage(context.Background(), "seller-1", "", 200)

	assert.ErrorIs(t, err, syncerr.ErrRemoteRejected)
}

func TestFetchListingsPageClassifiesThrottlingAndOutage(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newTestClient(server).FetchListingsPage(context.Background(), "seller-1", "", 200)

		assert.ErrorIs(t, err, syncerr.ErrRemoteUnavailable, "status %d", status)
		server.Close()
	}
}

func TestFetchListingsPageMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"listings": [`))
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchListingsPage(context.Background(), "seller-1", "", 200)

	assert.ErrorIs(t, err, syncerr.ErrMalformedRemoteData)
}

func TestFetchListingNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchListing(context.Background(), "seller-1", "R9")

	assert.ErrorIs(t, err, syncerr.ErrRemoteNotFound)
}

func TestFetchListingParsesItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sellers/seller-1/listings/R1", r.URL.Path)
		w.Write([]byte(`{"itemId": "R1", "listingStatus": "Active", "bidCount": 4, "timeLeft": "PT2H"}`))
	}))
	defer server.Close()

	listing, err := newTestClient(server).FetchListing(context.Background(), "seller-1", "R1")

	require.NoError(t, err)
	assert.Equal(t, "R1", listing.RemoteID)
	require.NotNil(t, listing.Status)
	assert.Equal(t, "Active", *listing.Status)
	require.NotNil(t, listing.BidCount)
	assert.Equal(t, 4, *listing.BidCount)
	require.NotNil(t, listing.TimeRemaining)
	assert.Equal(t, "PT2H", *listing.TimeRemaining)
}
