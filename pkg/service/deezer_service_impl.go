package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"deezer-search-widget/pkg/models"

	"github.com/sirupsen/logrus"
)

const DefaultDeezerURL = "https://api.deezer.com"

type DeezerHandler struct {
	HttpClient Requestor
	BaseURL    string
}

func (d *DeezerHandler) Search(ctx context.Context, query string, strict bool, order models.SearchOrder) (*models.SearchResponse, error) {
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if order != "" && !order.Valid() {
		return nil, fmt.Errorf("invalid order: %v", order)
	}

	baseURL := d.BaseURL
	if baseURL == "" {
		baseURL = DefaultDeezerURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL(baseURL, query, strict, order), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.HttpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if resp.Body == nil {
			return
		}
		if err := resp.Body.Close(); err != nil {
			logrus.WithError(err).Error("Error closing response body")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("Deezer API error: %v", statusText(resp))
	}
	if resp.Body == nil {
		return nil, errors.New("Deezer API error: empty response body")
	}

	var result models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error decoding Deezer response: %w", err)
	}

	// Deezer reports quota and parameter problems in-band with a 200.
	if result.Error != nil {
		return nil, fmt.Errorf("Deezer API error: %v", result.Error.Message)
	}

	logrus.WithFields(logrus.Fields{
		"query":   query,
		"total":   result.Total,
		"results": len(result.Data),
	}).Debug("Deezer search completed")

	return &result, nil
}

func searchURL(baseURL, query string, strict bool, order models.SearchOrder) string {
	params := url.Values{}
	params.Set("q", query)
	if strict {
		params.Set("strict", "on")
	}
	if order != "" {
		params.Set("order", string(order))
	}
	return fmt.Sprintf("%v/search?%v", strings.TrimRight(baseURL, "/"), params.Encode())
}

// statusText drops the numeric prefix from resp.Status, falling back to the
// canonical text when the server sent none.
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
