package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/text/currency"

	"golistingsync_api/internal/listings/business/models"
	"golistingsync_api/internal/listings/business/services"
	"golistingsync_api/internal/listings/business/syncerr"
	"golistingsync_api/pkg/logger"
)

// RemoteListingsClient talks to the marketplace seller API. It is the only
// place that knows the provider wire format; everything behind it works with
// models.RemoteListing.
type RemoteListingsClient struct {
	ApiURL string
	auth   services.AuthEngine
	client *http.Client
	log    logger.Logger
}

func NewRemoteListingsClient(apiURL string, auth services.AuthEngine, writer io.Writer) *RemoteListingsClient {
	_log := logger.NewLogger(writer, "[RemoteListingsClient]")
	return &RemoteListingsClient{
		ApiURL: apiURL,
		auth:   auth,
		client: &http.Client{},
		log:    _log,
	}
}

// listingPayload mirrors the provider's listing shape. Every telemetry field
// is a pointer: absent means the provider did not report it on this fetch.
type listingPayload struct {
	ItemID       string   `json:"itemId"`
	Title        *string  `json:"title,omitempty"`
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
	Currency     *string  `json:"currency,omitempty"`
	Status       *string  `json:"listingStatus,omitempty"`
	ListingType  *string  `json:"listingType,omitempty"`
	Duration     *string  `json:"listingDuration,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
	QuantitySold *int     `json:"quantitySold,omitempty"`
	WatchCount   *int     `json:"watchCount,omitempty"`
	HitCount     *int     `json:"hitCount,omitempty"`
	BidCount     *int     `json:"bidCount,omitempty"`
	TimeLeft     *string  `json:"timeLeft,omitempty"`
	ViewItemURL  *string  `json:"viewItemUrl,omitempty"`
}

type listingsPageResponse struct {
	Listings []listingPayload `json:"listings"`
	Cursor   string           `json:"cursor"`
	HasMore  bool             `json:"hasMore"`
}

// FetchListingsPage fetches one page of the seller's listings. The caller
// follows Cursor/HasMore until exhausted.
func (c *RemoteListingsClient) FetchListingsPage(ctx context.Context, accountKey, cursor string, limit int) (*models.ListingsPage, error) {
	endpoint := fmt.Sprintf("%s/api/v1/sellers/%s/listings", c.ApiURL, url.PathEscape(accountKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	req.URL.RawQuery = q.Encode()
	c.auth.SetApiKey(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncerr.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var page listingsPageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decoding listings page: %v", syncerr.ErrMalformedRemoteData, err)
	}
	if page.HasMore && page.Cursor == "" {
		// Pagination itself cannot be trusted; failing the fetch beats an
		// incomplete bulk replace.
		return nil, fmt.Errorf("%w: provider reported more pages without a cursor", syncerr.ErrMalformedRemoteData)
	}

	result := &models.ListingsPage{
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	}
	for _, payload := range page.Listings {
		if payload.ItemID == "" {
			c.log.Log("Skipping listing without item id")
			continue
		}
		result.Items = append(result.Items, parseListing(payload))
	}
	return result, nil
}

// FetchListing fetches one listing by remote id. A 404 maps to
// syncerr.ErrRemoteNotFound, distinct from an empty bulk result.
func (c *RemoteListingsClient) FetchListing(ctx context.Context, accountKey, remoteID string) (*models.RemoteListing, error) {
	endpoint := fmt.Sprintf("%s/api/v1/sellers/%s/listings/%s",
		c.ApiURL, url.PathEscape(accountKey), url.PathEscape(remoteID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.auth.SetApiKey(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncerr.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", syncerr.ErrRemoteNotFound, remoteID)
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var payload listingPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding listing %s: %v", syncerr.ErrMalformedRemoteData, remoteID, err)
	}
	if payload.ItemID == "" {
		return nil, fmt.Errorf("%w: listing %s has no item id", syncerr.ErrMalformedRemoteData, remoteID)
	}

	listing := parseListing(payload)
	return &listing, nil
}

func classifyStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusOK:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", syncerr.ErrRemoteRejected, statusCode)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: provider throttled the request", syncerr.ErrRemoteUnavailable)
	case statusCode >= 500:
		return fmt.Errorf("%w: status %d", syncerr.ErrRemoteUnavailable, statusCode)
	default:
		return fmt.Errorf("%w: unexpected status %d", syncerr.ErrRemoteUnavailable, statusCode)
	}
}

func parseListing(payload listingPayload) models.RemoteListing {
	listing := models.RemoteListing{
		RemoteID:      payload.ItemID,
		Title:         payload.Title,
		CurrentPrice:  payload.CurrentPrice,
		Status:        payload.Status,
		ListingFormat: payload.ListingType,
		Duration:      payload.Duration,
		Quantity:      payload.Quantity,
		QuantitySold:  payload.QuantitySold,
		WatchCount:    payload.WatchCount,
		ViewCount:     payload.HitCount,
		BidCount:      payload.BidCount,
		TimeRemaining: payload.TimeLeft,
		RemoteURL:     payload.ViewItemURL,
	}
	if payload.Currency != nil {
		if _, err := currency.ParseISO(*payload.Currency); err == nil {
			listing.Currency = payload.Currency
		}
	}
	return listing
}
