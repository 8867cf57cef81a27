package mocks

import (
	"context"

	"deezer-search-widget/pkg/models"

	"github.com/stretchr/testify/mock"
)

type Searcher struct {
	mock.Mock
}

func (_m *Searcher) Search(ctx context.Context, query string, strict bool, order models.SearchOrder) (*models.SearchResponse, error) {
	ret := _m.Called(ctx, query, strict, order)

	var r0 *models.SearchResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.SearchResponse)
	}

	return r0, ret.Error(1)
}
