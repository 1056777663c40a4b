package ycloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/creditdash/internal/config"
	usagedomain "github.com/smallbiznis/creditdash/internal/usage/domain"
	"go.uber.org/zap"
)

const defaultCreditChannel = "WhatsApp"

// usageDetailsResponse mirrors GET /v2/billing/usageDetails. Cost buckets
// are nested per day, optionally per channel.
type usageDetailsResponse struct {
	Items []struct {
		Date      string `json:"date"`
		Channel   string `json:"channel"`
		CostItems []struct {
			ConversationOriginType string  `json:"conversationOriginType"`
			Quantity               int64   `json:"quantity"`
			Cost                   float64 `json:"cost"`
		} `json:"costItems"`
	} `json:"items"`
	TotalUsage *struct {
		TotalQuantity int64   `json:"totalQuantity"`
		TotalCost     float64 `json:"totalCost"`
	} `json:"totalUsage"`
}

// Client queries the YCloud billing API for per-day usage breakdowns.
type Client struct {
	baseURL   string
	pageLimit int
	client    *http.Client
	log       *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.YCloudRequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	pageLimit := cfg.YCloudPageLimit
	if pageLimit <= 0 {
		pageLimit = 30
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.YCloudBaseURL, "/"),
		pageLimit: pageLimit,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

func (c *Client) FetchUsage(
	ctx context.Context,
	creds usagedomain.ProviderCredentials,
	window usagedomain.Window,
) ([]usagedomain.ProviderRecord, *usagedomain.ProviderTotals, error) {
	values := url.Values{}
	values.Set("filter.startDate", window.Start)
	values.Set("filter.endDate", window.End)
	values.Set("includeTotal", "true")
	values.Set("limit", strconv.Itoa(c.pageLimit))

	endpoint := c.baseURL + "/v2/billing/usageDetails?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("X-API-Key", creds.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if creds.ManagedAccountID != "" {
		req.Header.Set("X-Managed-Account-ID", creds.ManagedAccountID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("usage details request rejected",
			zap.Int("status", resp.StatusCode),
		)
		return nil, nil, &usagedomain.ProviderError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var payload usageDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil, err
	}

	records := flatten(payload)
	var totals *usagedomain.ProviderTotals
	if payload.TotalUsage != nil {
		totals = &usagedomain.ProviderTotals{
			TotalQuantity: payload.TotalUsage.TotalQuantity,
			TotalCost:     payload.TotalUsage.TotalCost,
		}
	}
	return records, totals, nil
}

// flatten turns the nested per-day cost buckets into flat usage lines,
// labelling each one "<channel> - <origin type>".
func flatten(payload usageDetailsResponse) []usagedomain.ProviderRecord {
	var records []usagedomain.ProviderRecord
	for _, item := range payload.Items {
		channel := strings.TrimSpace(item.Channel)
		if channel == "" {
			channel = defaultCreditChannel
		}
		for _, cost := range item.CostItems {
			creditType := channel
			if origin := strings.TrimSpace(cost.ConversationOriginType); origin != "" {
				creditType = channel + " - " + origin
			}
			records = append(records, usagedomain.ProviderRecord{
				Date:       item.Date,
				CreditType: creditType,
				Quantity:   cost.Quantity,
				Cost:       cost.Cost,
			})
		}
	}
	return records
}
