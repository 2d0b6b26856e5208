package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// ErrGraphQLNotFound is returned when GitHub reports the queried node does not exist.
var ErrGraphQLNotFound = errors.New("graphql: not found")

// graphqlEndpoint maps a REST base URL to its GraphQL endpoint:
//
//	https://api.github.com/          -> https://api.github.com/graphql
//	https://<host>/api/v3/ (GHES)    -> https://<host>/api/graphql
func graphqlEndpoint(base *url.URL) (*url.URL, error) {
	if base == nil {
		return nil, fmt.Errorf("graphql: base url is nil")
	}

	u := *base
	u.RawQuery = ""
	u.Fragment = ""
	if strings.HasSuffix(strings.TrimSuffix(u.Path, "/"), "/api/v3") {
		u.Path = "/api/graphql"
	} else {
		u.Path = "/graphql"
	}
	return &u, nil
}

// DoGraphQL executes a GraphQL POST through the same transport as the REST client
// (auth, request logging) and decodes data into T.
func DoGraphQL[T any](ctx context.Context, c *Client, req GraphQLRequest) (T, *http.Response, error) {
	var zero T
	if ctx == nil {
		return zero, nil, fmt.Errorf("graphql: ctx is nil")
	}
	if c == nil || c.Client == nil || c.HTTP == nil {
		return zero, nil, fmt.Errorf("graphql: client is nil")
	}

	endpoint, err := graphqlEndpoint(c.Client.BaseURL)
	if err != nil {
		return zero, nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return zero, nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return zero, nil, fmt.Errorf("graphql: build request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	hresp, err := c.HTTP.Do(hreq)
	if err != nil {
		return zero, nil, fmt.Errorf("graphql: do request: %w", err)
	}
	defer hresp.Body.Close()

	if hresp.StatusCode < 200 || hresp.StatusCode >= 300 {
		return zero, hresp, fmt.Errorf("graphql: http %d", hresp.StatusCode)
	}

	var out graphQLResponse[T]
	if err := json.NewDecoder(hresp.Body).Decode(&out); err != nil {
		return zero, hresp, fmt.Errorf("graphql: decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		if out.Errors[0].Type == "NOT_FOUND" {
			return zero, hresp, fmt.Errorf("%w: %s", ErrGraphQLNotFound, out.Errors[0].Message)
		}
		return zero, hresp, fmt.Errorf("graphql: %s", out.Errors[0].Message)
	}
	return out.Data, hresp, nil
}
