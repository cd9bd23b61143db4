package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// HTTPFetcher reads weekly figures from the book's admin export API.
type HTTPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPFetcher creates a new fetcher with optional proxy support.
func NewHTTPFetcher(baseURL, apiKey, proxyURL string) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// exportRow is the JSON shape of one player in the export.
type exportRow struct {
	Agent       string       `json:"agent"`
	PlayerID    string       `json:"player_id"`
	DisplayName string       `json:"display_name"`
	WeekAmount  exportAmount `json:"week_amount"`
	Engaged     bool         `json:"engaged"`
	Paid        bool         `json:"paid"`
}

// exportAmount accepts numbers as well as strings such as "$-216" or "1,234".
type exportAmount struct {
	decimal.Decimal
}

func (a *exportAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.Decimal = model.ParseAmount(s)
		return nil
	}
	a.Decimal = model.ParseAmount(string(b))
	return nil
}

func (f *HTTPFetcher) LatestWeek(ctx context.Context) (string, error) {
	var result struct {
		WeekID string `json:"week_id"`
	}
	if err := f.getJSON(ctx, f.BaseURL+"/api/v1/weeks/latest", &result); err != nil {
		return "", fmt.Errorf("fetch latest week: %w", err)
	}
	return result.WeekID, nil
}

func (f *HTTPFetcher) FetchRows(ctx context.Context, weekID string) ([]model.Row, error) {
	endpoint := fmt.Sprintf("%s/api/v1/weeks/%s/rows", f.BaseURL, url.PathEscape(weekID))
	var export []exportRow
	if err := f.getJSON(ctx, endpoint, &export); err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}
	rows := make([]model.Row, len(export))
	for i, e := range export {
		rows[i] = model.Row{
			GroupID:     e.Agent,
			EntityID:    e.PlayerID,
			DisplayName: e.DisplayName,
			Amount:      e.WeekAmount.Decimal,
			Engaged:     e.Engaged,
			Paid:        e.Paid,
		}
	}
	return rows, nil
}

func (f *HTTPFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
