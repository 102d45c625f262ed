package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
)

// rdsTokenLifetime is how long an RDS IAM auth token is accepted.
const rdsTokenLifetime = 15 * time.Minute

// AWSIAMTokenProvider builds RDS IAM authentication tokens for a MySQL or
// PostgreSQL instance. Credentials come from the default AWS chain
// (environment, shared config, instance or task role).
type AWSIAMTokenProvider struct {
	endpoint string // host:port
	region   string
	username string

	credentials func(ctx context.Context, region string) (aws.CredentialsProvider, error)
}

// NewAWSIAMTokenProvider creates a token provider for the RDS endpoint
// (host:port), region and IAM-enabled database user.
func NewAWSIAMTokenProvider(endpoint, region, username string) (*AWSIAMTokenProvider, error) {
	var errs []error
	if endpoint == "" {
		errs = append(errs, errors.New("AWS IAM auth requires endpoint (host:port)"))
	}
	if region == "" {
		errs = append(errs, errors.New("AWS IAM auth requires region (use --aws-region or $AWS_REGION)"))
	}
	if username == "" {
		errs = append(errs, errors.New("AWS IAM auth requires database username (-U)"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &AWSIAMTokenProvider{
		endpoint:    endpoint,
		region:      region,
		username:    username,
		credentials: defaultAWSCredentials,
	}, nil
}

func defaultAWSCredentials(ctx context.Context, region string) (aws.CredentialsProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg.Credentials, nil
}

func (p *AWSIAMTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	creds, err := p.credentials(ctx, p.region)
	if err != nil {
		return "", time.Time{}, err
	}

	issued := time.Now()
	token, err := auth.BuildAuthToken(ctx, p.endpoint, p.region, p.username, creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build RDS auth token: %w", err)
	}
	return token, issued.Add(rdsTokenLifetime), nil
}

func (p *AWSIAMTokenProvider) String() string {
	return fmt.Sprintf("AWSIAMTokenProvider(endpoint=%s, region=%s, user=%s)", p.endpoint, p.region, p.username)
}
