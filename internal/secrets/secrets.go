// Package secrets provides the per-integration credential blob consumed by
// the remote validators. Credentials live in AWS Secrets Manager under a
// single JSON secret per environment.
package secrets

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"

	"kyc/pkg/kycerrors"
)

// RegistryCredentials authenticate the civil-registry integration via a
// password-grant token exchange.
type RegistryCredentials struct {
	TokenURL     string `json:"token_url"`
	VerifyURL    string `json:"verify_url"`
	Scope        string `json:"scope"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// SanctionsCredentials authenticate the sanctions-screening integration.
type SanctionsCredentials struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

// OrgManagerCredentials authenticate against the organisation directory API.
type OrgManagerCredentials struct {
	LoginURL string `json:"login_url"`
	OrgURL   string `json:"org_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Secrets is the decoded credential blob.
type Secrets struct {
	Registry   RegistryCredentials   `json:"registry"`
	Sanctions  SanctionsCredentials  `json:"sanctions"`
	OrgManager OrgManagerCredentials `json:"org_manager"`
}

// Provider fetches the credential blob. Implementations must be safe for
// concurrent use; validators fetch per verification call.
type Provider interface {
	GetSecrets(ctx context.Context) (*Secrets, error)
}

// AWSProvider reads the blob from AWS Secrets Manager.
type AWSProvider struct {
	client     secretsmanageriface.SecretsManagerAPI
	secretName string
}

func NewAWSProvider(sess *session.Session, secretName string) *AWSProvider {
	return &AWSProvider{client: secretsmanager.New(sess), secretName: secretName}
}

// NewAWSProviderWithClient is used by tests to inject a stub client.
func NewAWSProviderWithClient(client secretsmanageriface.SecretsManagerAPI, secretName string) *AWSProvider {
	return &AWSProvider{client: client, secretName: secretName}
}

func (p *AWSProvider) GetSecrets(ctx context.Context) (*Secrets, error) {
	out, err := p.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		return nil, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not fetch secrets")
	}
	var s Secrets
	if err := json.Unmarshal([]byte(aws.StringValue(out.SecretString)), &s); err != nil {
		return nil, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not decode secrets")
	}
	return &s, nil
}

// Static returns a fixed blob, for tests and local development.
type Static struct {
	Value Secrets
}

func (s Static) GetSecrets(context.Context) (*Secrets, error) {
	v := s.Value
	return &v, nil
}
