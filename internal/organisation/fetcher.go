package organisation

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"kyc/internal/customer/models"
	"kyc/internal/secrets"
)

// HTTPFetcher retrieves the organisation list from the organisation manager
// API: a username/password login yields a bearer token, then the list is a
// single authenticated GET.
type HTTPFetcher struct {
	http    *resty.Client
	secrets secrets.Provider
}

func NewHTTPFetcher(provider secrets.Provider) *HTTPFetcher {
	return &HTTPFetcher{http: resty.New(), secrets: provider}
}

type loginResponse struct {
	AuthenticationResult struct {
		IDToken string `json:"IdToken"`
	} `json:"AuthenticationResult"`
}

// wireOrganisation is the org-manager response shape; the KYC validation
// requirements sit under a per-service config block.
type wireOrganisation struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	APIKey        string `json:"apiKey"`
	IsDeleted     bool   `json:"isDeleted"`
	ServiceConfig struct {
		KYC struct {
			RequiredValidations []models.DocumentType `json:"requiredValidations"`
		} `json:"KYC"`
	} `json:"serviceConfig"`
}

func (f *HTTPFetcher) FetchOrganisations(ctx context.Context) ([]Organisation, error) {
	creds, err := f.secrets.GetSecrets(ctx)
	if err != nil {
		return nil, err
	}

	var login loginResponse
	resp, err := f.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"userName": creds.OrgManager.Username,
			"password": creds.OrgManager.Password,
		}).
		SetResult(&login).
		Post(creds.OrgManager.LoginURL)
	if err != nil {
		return nil, fmt.Errorf("organisation manager login: %w", err)
	}
	if resp.IsError() || login.AuthenticationResult.IDToken == "" {
		return nil, fmt.Errorf("organisation manager login: status %d", resp.StatusCode())
	}

	var wire []wireOrganisation
	resp, err = f.http.R().
		SetContext(ctx).
		SetAuthToken(login.AuthenticationResult.IDToken).
		SetResult(&wire).
		Get(creds.OrgManager.OrgURL)
	if err != nil {
		return nil, fmt.Errorf("fetch organisations: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch organisations: status %d", resp.StatusCode())
	}

	orgs := make([]Organisation, 0, len(wire))
	for _, w := range wire {
		orgs = append(orgs, Organisation{
			ID:                  w.ID,
			Name:                w.Name,
			APIKeyHash:          w.APIKey,
			IsDeleted:           w.IsDeleted,
			RequiredValidations: w.ServiceConfig.KYC.RequiredValidations,
		})
	}
	return orgs, nil
}
