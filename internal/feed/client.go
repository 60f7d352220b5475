// Package feed polls the host application's vessel-state endpoint.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

const DefaultTimeout = 20 * time.Second

// maxBodyBytes bounds a single poll response.
const maxBodyBytes = 64 << 20

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// FetchVessels returns every vessel in the response. The body may be a bare
// array or an object wrapping it under "vessels" or "data". Entries without
// an id are skipped; the count of skipped entries is returned alongside.
func (c *Client) FetchVessels(ctx context.Context) ([]model.VesselUpdate, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch vessels: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetch vessels: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read vessels: %w", err)
	}
	return ParseVessels(body)
}

// ParseVessels decodes a vessel-state response body.
func ParseVessels(body []byte) ([]model.VesselUpdate, int, error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("parse vessels: invalid JSON")
	}
	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		list = list.Get("vessels")
		if !list.Exists() {
			list = gjson.GetBytes(body, "data")
		}
	}
	if !list.IsArray() {
		return nil, 0, fmt.Errorf("parse vessels: no vessel list in response")
	}

	var skipped int
	updates := make([]model.VesselUpdate, 0, len(list.Array()))
	list.ForEach(func(_, v gjson.Result) bool {
		var u model.VesselUpdate
		if err := model.UnmarshalVesselUpdate([]byte(v.Raw), &u); err != nil || u.ID == "" {
			skipped++
			return true
		}
		updates = append(updates, u)
		return true
	})
	return updates, skipped, nil
}
