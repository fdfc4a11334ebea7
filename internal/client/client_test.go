package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseplate/backoffice/internal/core/query"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New[item]("localhost:8080", "users")
	assert.Error(t, err)

	_, err = New[item]("http://localhost:8080", "")
	assert.Error(t, err)
}

func TestFetchPage(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(query.PageResult[item]{
			Data:       []item{{ID: "1", Name: "Ada"}},
			Total:      11,
			Page:       2,
			Limit:      10,
			TotalPages: 2,
		})
	}))
	defer srv.Close()

	c, err := New[item](srv.URL+"/", "users")
	require.NoError(t, err)

	page, err := c.FetchPage(context.Background(), query.Descriptor{
		Search:  "ada",
		Filters: query.Filters{"status": {"active", "inactive"}},
		SortBy:  "name",
		Page:    2,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/modules/users/records", got.URL.Path)

	d, err := query.ParseValues(got.URL.Query())
	require.NoError(t, err)
	assert.Equal(t, "ada", d.Search)
	assert.Equal(t, query.FilterValue{"active", "inactive"}, d.Filters["status"])
	assert.Equal(t, 2, d.Page)

	assert.Equal(t, 11, page.Total)
	assert.Equal(t, []item{{ID: "1", Name: "Ada"}}, page.Data)
}

func TestQueryPostsDescriptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/modules/orders/query", r.URL.Path)

		var d query.Descriptor
		require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		assert.Equal(t, "orders", d.Module)
		assert.Equal(t, "ship", d.Search)

		json.NewEncoder(w).Encode(query.Result[item]{
			PageResult:  query.PageResult[item]{Data: []item{}, Page: 1, Limit: 10},
			Facets:      query.FacetSet{"status": {{Value: "shipped", Count: 2}}},
			Suggestions: []string{"Search in number"},
		})
	}))
	defer srv.Close()

	c, err := New[item](srv.URL, "orders")
	require.NoError(t, err)

	res, err := c.Query(context.Background(), query.Descriptor{Search: "ship"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Search in number"}, res.Suggestions)
	assert.Equal(t, 2, res.Facets["status"][0].Count)
	assert.Empty(t, res.Data)
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid query","details":{"errors":[{"field":"sortBy","message":"not sortable"}]}}`))
	}))
	defer srv.Close()

	c, err := New[item](srv.URL, "users")
	require.NoError(t, err)

	_, err = c.FetchPage(context.Background(), query.Descriptor{SortBy: "password"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid query", apiErr.Message)
	require.NotNil(t, apiErr.Details)
	assert.Equal(t, []string{"sortBy"}, apiErr.Details.Fields())
}

func TestPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New[item](srv.URL, "users")
	require.NoError(t, err)

	_, err = c.FetchPage(context.Background(), query.Descriptor{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New[item](srv.URL, "users", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.FetchPage(context.Background(), query.Descriptor{})
	assert.Error(t, err)
}
