package service

import (
	"context"
	"net/http"

	"deezer-search-widget/pkg/models"
)

type Requestor interface {
	Do(req *http.Request) (*http.Response, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, strict bool, order models.SearchOrder) (*models.SearchResponse, error)
}
