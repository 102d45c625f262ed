package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// AzureDatabaseScope is the Entra ID scope shared by Azure Database for
// PostgreSQL and MySQL flexible servers.
const AzureDatabaseScope = "https://ossrdbms-aad.database.windows.net/.default"

// AzureTokenProvider acquires Entra ID access tokens for Azure Database
// for MySQL or PostgreSQL from an azcore credential.
type AzureTokenProvider struct {
	credential  azcore.TokenCredential
	description string
}

// NewAzureTokenProvider wraps an existing credential.
func NewAzureTokenProvider(credential azcore.TokenCredential, description string) *AzureTokenProvider {
	return &AzureTokenProvider{credential: credential, description: description}
}

// NewAzureServicePrincipalProvider authenticates as a Service Principal.
// All three parameters are required.
func NewAzureServicePrincipalProvider(tenantID, clientID, clientSecret string) (*AzureTokenProvider, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, errors.New("azure service principal requires tenantID, clientID, and clientSecret")
	}

	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return NewAzureTokenProvider(cred, fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", tenantID, clientID)), nil
}

// NewAzureDefaultCredentialProvider uses the DefaultAzureCredential chain:
// environment variables, workload identity, managed identity, then the
// Azure CLI and Developer CLI logins.
func NewAzureDefaultCredentialProvider() (*AzureTokenProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return NewAzureTokenProvider(cred, "AzureDefaultCredential"), nil
}

func (p *AzureTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{AzureDatabaseScope},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (p *AzureTokenProvider) String() string {
	return p.description
}
