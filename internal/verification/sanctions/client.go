// Package sanctions implements watch-list screening against the OFAC-style
// sanctions sources: the customer's full name is searched against the SDN and
// UK lists and any match is surfaced as a warning for manual review.
package sanctions

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"kyc/internal/secrets"
)

// minMatchScore is the fuzzy-match cutoff requested from the screening
// provider, in percent.
const minMatchScore = 98

var screeningSources = []string{"SDN", "UK"}

// Query is one screened identity.
type Query struct {
	Name        string
	DateOfBirth string
	Gender      string
}

// Match is one watch-list hit for a searched name.
type Match struct {
	Programs []string `json:"programs"`
}

// SearchResult is the decoded screening response. Matches is keyed by the
// searched name; an empty slice means the name is clean.
type SearchResult struct {
	Error   bool               `json:"error"`
	Matches map[string][]Match `json:"matches"`
}

// Client performs one screening call. Implementations return plain errors for
// transport and decode failures; the validator owns the failure-to-warning
// conversion.
type Client interface {
	Search(ctx context.Context, creds secrets.SanctionsCredentials, query Query) (*SearchResult, error)
}

// HTTPClient is the production Client on top of resty.
type HTTPClient struct {
	http *resty.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{http: resty.New()}
}

type searchRequest struct {
	APIKey   string       `json:"apiKey"`
	MinScore int          `json:"minScore"`
	Source   []string     `json:"source"`
	Cases    []searchCase `json:"cases"`
}

type searchCase struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Gender string `json:"gender"`
}

func (c *HTTPClient) Search(ctx context.Context, creds secrets.SanctionsCredentials, query Query) (*SearchResult, error) {
	body := searchRequest{
		APIKey:   creds.APIKey,
		MinScore: minMatchScore,
		Source:   screeningSources,
		Cases: []searchCase{{
			Name:   query.Name,
			DOB:    query.DateOfBirth,
			Gender: query.Gender,
		}},
	}
	var decoded SearchResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(body).
		SetResult(&decoded).
		Post(creds.URL)
	if err != nil {
		return nil, fmt.Errorf("sanctions search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sanctions search: status %d", resp.StatusCode())
	}
	return &decoded, nil
}
