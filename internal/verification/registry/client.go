// Package registry implements the external civil-registry check for South
// African identity documents: a credential exchange followed by an RSA-ID
// verification call, producing deceased/blocked/name-match/register-presence
// results and an optional government-sourced facial image.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"kyc/internal/customer/models"
	"kyc/internal/secrets"
)

// Result is the decoded registry response for one ID verification.
type Result struct {
	DeadIndicator   bool    `json:"DeadIndicator"`
	DateOfDeath     string  `json:"DateOfDeath"`
	IDBlocked       bool    `json:"IDBlocked"`
	FirstNameResult float64 `json:"FirstNameResult"`
	LastNameResult  float64 `json:"LastNameResult"`
	OnNPR           bool    `json:"OnNPR"`
	OnHANIS         bool    `json:"OnHanis"`
	// SAFPSResults is non-nil when the fraud-prevention service holds any
	// listing for this ID.
	SAFPSResults []map[string]any `json:"SAFPSResults"`
	// FacialImage is a base64 image (optionally a data URI) from the
	// national identification system.
	FacialImage string `json:"FacialImage"`
}

// Client performs the two sequential registry calls. Implementations return
// plain errors for every transport, auth, or decode failure; the validator
// owns the failure-to-warning conversion.
type Client interface {
	Login(ctx context.Context, creds secrets.RegistryCredentials) (accessToken string, err error)
	VerifyID(ctx context.Context, creds secrets.RegistryCredentials, accessToken string, customer *models.Customer) (*Result, error)
}

// HTTPClient is the production Client on top of resty.
type HTTPClient struct {
	http *resty.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{http: resty.New()}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *HTTPClient) Login(ctx context.Context, creds secrets.RegistryCredentials) (string, error) {
	var token tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Connection", "keep-alive").
		SetFormData(map[string]string{
			"grant_type":    "password",
			"scope":         creds.Scope,
			"username":      creds.Username,
			"password":      creds.Password,
			"client_id":     creds.ClientID,
			"client_secret": creds.ClientSecret,
		}).
		SetResult(&token).
		Post(creds.TokenURL)
	if err != nil {
		return "", fmt.Errorf("registry login: %w", err)
	}
	if resp.IsError() || token.AccessToken == "" {
		return "", fmt.Errorf("registry login: status %d", resp.StatusCode())
	}
	return token.AccessToken, nil
}

type verifyRequest struct {
	IDNumber           string `json:"IdNumber"`
	RequestReason      string `json:"RequestReason"`
	CRef               string `json:"CRef"`
	ConsentReceived    bool   `json:"ConsentReceived"`
	Subsidiary         string `json:"Subsidiary"`
	IdentityCache      bool   `json:"IdentityCache"`
	CachePreferred     bool   `json:"CachePreferred"`
	SAFPSRequired      bool   `json:"SAFPSRequired"`
	LivenessRequired   bool   `json:"LivenessRequired"`
	HANISImageRequired bool   `json:"HANISImageRequired"`
	FirstNames         string `json:"FirstNames"`
	LastName           string `json:"LastName"`
	FaceString         string `json:"FaceString"`
}

type verifyResponse struct {
	Response *Result `json:"response"`
}

func (c *HTTPClient) VerifyID(ctx context.Context, creds secrets.RegistryCredentials, accessToken string, customer *models.Customer) (*Result, error) {
	body := verifyRequest{
		IDNumber:           customer.IdentityDocumentNumber,
		RequestReason:      "KYC verification",
		CRef:               customer.ID,
		ConsentReceived:    true,
		IdentityCache:      true,
		CachePreferred:     true,
		SAFPSRequired:      true,
		LivenessRequired:   false,
		HANISImageRequired: true,
		FirstNames:         strings.TrimSpace(customer.FirstName + " " + customer.MiddleNames),
		LastName:           strings.TrimSpace(customer.LastName),
	}
	var decoded verifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(body).
		SetResult(&decoded).
		Post(creds.VerifyURL)
	if err != nil {
		return nil, fmt.Errorf("registry verify: %w", err)
	}
	if resp.IsError() || decoded.Response == nil {
		return nil, fmt.Errorf("registry verify: status %d", resp.StatusCode())
	}
	return decoded.Response, nil
}
