package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/ilcsoft/mokkadump/internal/testing/fixtures"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

func TestNewConnector_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		config  *mokka.ConnectionConfig
		want    string
		wantErr error
	}{
		{
			name:   "mysql standard",
			config: &mokka.ConnectionConfig{Driver: mokka.DriverMySQL, Host: "h", Port: 3306, Database: "d"},
			want:   "*db.StandardConnector",
		},
		{
			name:   "postgres standard",
			config: &mokka.ConnectionConfig{Driver: mokka.DriverPostgres, Host: "h", Port: 5432, Database: "d"},
			want:   "*db.StandardConnector",
		},
		{
			name:   "duckdb",
			config: &mokka.ConnectionConfig{Driver: mokka.DriverDuckDB, Database: "x.duckdb"},
			want:   "*db.DuckDBConnector",
		},
		{
			name: "aws",
			config: &mokka.ConnectionConfig{Driver: mokka.DriverMySQL, Host: "h", Port: 3306, Database: "d",
				Username: "u", AuthMethod: mokka.AuthMethodAWSIAM, AWSRegion: "eu-west-3"},
			want: "*db.TokenBasedConnector",
		},
		{
			name: "google",
			config: &mokka.ConnectionConfig{Driver: mokka.DriverPostgres, Database: "d", Username: "u",
				AuthMethod: mokka.AuthMethodGoogleIAM, GoogleInstance: "p:r:i"},
			want: "*db.GoogleCloudSQLConnector",
		},
		{
			name: "aws without region",
			config: &mokka.ConnectionConfig{Driver: mokka.DriverMySQL, Host: "h", Port: 3306, Database: "d",
				Username: "u", AuthMethod: mokka.AuthMethodAWSIAM},
			wantErr: mokka.ErrInvalidConfig,
		},
		{
			name: "google on mysql",
			config: &mokka.ConnectionConfig{Driver: mokka.DriverMySQL, Database: "d", Username: "u",
				AuthMethod: mokka.AuthMethodGoogleIAM, GoogleInstance: "p:r:i"},
			wantErr: mokka.ErrUnsupportedAuthMethod,
		},
		{
			name:    "google without instance",
			config:  &mokka.ConnectionConfig{Driver: mokka.DriverPostgres, Database: "d", Username: "u", AuthMethod: mokka.AuthMethodGoogleIAM},
			wantErr: mokka.ErrInvalidConfig,
		},
		{
			name:    "duckdb with token auth",
			config:  &mokka.ConnectionConfig{Driver: mokka.DriverDuckDB, Database: "x", AuthMethod: mokka.AuthMethodAWSIAM},
			wantErr: mokka.ErrUnsupportedAuthMethod,
		},
		{
			name:    "unknown auth method",
			config:  &mokka.ConnectionConfig{Driver: mokka.DriverMySQL, AuthMethod: mokka.AuthMethod(42)},
			wantErr: mokka.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConnector(tt.config, Options{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConnector() error = %v", err)
			}
			if typeName(got) != tt.want {
				t.Errorf("NewConnector() = %s, want %s", typeName(got), tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *StandardConnector:
		return "*db.StandardConnector"
	case *DuckDBConnector:
		return "*db.DuckDBConnector"
	case *TokenBasedConnector:
		return "*db.TokenBasedConnector"
	case *GoogleCloudSQLConnector:
		return "*db.GoogleCloudSQLConnector"
	}
	return "unknown"
}

func TestStandardConnector_RefusedIsConnectionFailed(t *testing.T) {
	for _, driver := range []mokka.Driver{mokka.DriverMySQL, mokka.DriverPostgres} {
		t.Run(string(driver), func(t *testing.T) {
			cfg := &mokka.ConnectionConfig{
				Driver:         driver,
				Host:           "127.0.0.1",
				Port:           1,
				Database:       "models03",
				Username:       "consult",
				Password:       "consult",
				SSLMode:        "disable",
				ConnectTimeout: 2 * time.Second,
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			_, err := NewStandardConnector(cfg, Options{MaxRetries: -1}).Connect(ctx)
			if err == nil {
				t.Fatal("expected connection error")
			}
			if !errors.Is(err, mokka.ErrConnectionFailed) {
				t.Errorf("error %v does not wrap ErrConnectionFailed", err)
			}
			if mokka.ExitCodeForError(err) != mokka.ExitConnectionError {
				t.Errorf("exit code = %d", mokka.ExitCodeForError(err))
			}
		})
	}
}

type fakeTokenProvider struct {
	token string
	err   error
	calls int
}

func (f *fakeTokenProvider) GetToken(context.Context) (string, time.Time, error) {
	f.calls++
	return f.token, time.Now().Add(time.Hour), f.err
}

func (f *fakeTokenProvider) String() string { return "fake" }

func TestTokenBasedConnector_TokenFailure(t *testing.T) {
	provider := &fakeTokenProvider{err: errors.New("no credentials")}
	cfg := &mokka.ConnectionConfig{Driver: mokka.DriverMySQL, Host: "127.0.0.1", Port: 1, Database: "d", Username: "u"}

	_, err := NewTokenBasedConnector(cfg, provider, "Fake", Options{}).Connect(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, mokka.ErrConnectionFailed) {
		t.Errorf("error %v does not wrap ErrConnectionFailed", err)
	}
	if !strings.Contains(err.Error(), "failed to acquire Fake token") {
		t.Errorf("unexpected message: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("token acquired %d times, a credential error must not be retried", provider.calls)
	}
}

func TestAWSIAMTokenProvider_Validation(t *testing.T) {
	_, err := NewAWSIAMTokenProvider("", "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"endpoint", "region", "username"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestAWSIAMTokenProvider_GetToken(t *testing.T) {
	p, err := NewAWSIAMTokenProvider("models.example.rds.amazonaws.com:3306", "eu-west-3", "consult")
	if err != nil {
		t.Fatal(err)
	}
	p.credentials = func(context.Context, string) (aws.CredentialsProvider, error) {
		return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}), nil
	}

	token, expires, err := p.GetToken(context.Background())
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if !strings.HasPrefix(token, "models.example.rds.amazonaws.com:3306/?") {
		t.Errorf("token = %q", token)
	}
	if !strings.Contains(token, "DBUser=consult") {
		t.Errorf("token does not name the user: %q", token)
	}
	if d := time.Until(expires); d <= 14*time.Minute || d > 15*time.Minute {
		t.Errorf("token lifetime = %v", d)
	}
}

func TestAzureServicePrincipalProvider_RequiresAllFields(t *testing.T) {
	if _, err := NewAzureServicePrincipalProvider("tenant", "", "secret"); err == nil {
		t.Error("expected error for missing client id")
	}
}

type fakeAzureCredential struct {
	scopes []string
}

func (f *fakeAzureCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.scopes = opts.Scopes
	return azcore.AccessToken{Token: "entra-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestAzureTokenProvider_RequestsDatabaseScope(t *testing.T) {
	cred := &fakeAzureCredential{}
	p := NewAzureTokenProvider(cred, "fake")

	token, _, err := p.GetToken(context.Background())
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if token != "entra-token" {
		t.Errorf("token = %q", token)
	}
	if len(cred.scopes) != 1 || cred.scopes[0] != AzureDatabaseScope {
		t.Errorf("scopes = %v, want [%s]", cred.scopes, AzureDatabaseScope)
	}
	if p.String() != "fake" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestDuckDBConnector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.duckdb")
	writeSnapshot(t, path)

	src, err := NewDuckDBConnector(path).Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer src.Close()

	rows, err := src.DriverDefaults(context.Background(), fixtures.ILDModel)
	if err != nil {
		t.Fatalf("DriverDefaults() error = %v", err)
	}
	if len(rows) != 6 {
		t.Errorf("got %d driver defaults, want 6", len(rows))
	}
}

func TestDuckDBConnector_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.duckdb")

	_, err := NewDuckDBConnector(path).Connect(context.Background())
	if !errors.Is(err, mokka.ErrConnectionFailed) {
		t.Fatalf("error = %v, want ErrConnectionFailed", err)
	}
}

func writeSnapshot(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	exec := func(ctx context.Context, query string, args ...any) error {
		_, err := db.ExecContext(ctx, query, args...)
		return err
	}
	if err := fixtures.ILDFixture().Load(context.Background(), exec, fixtures.QuestionMark, true); err != nil {
		t.Fatal(err)
	}
}

func TestWrapConnectionError(t *testing.T) {
	cfg := &mokka.ConnectionConfig{Driver: mokka.DriverMySQL, Host: "pollin1.in2p3.fr", Port: 3306, Database: "models03", Username: "consult"}

	tests := []struct {
		name         string
		errMsg       string
		wantContains string
	}{
		{"connection refused", "dial tcp 127.0.0.1:3306: connect: connection refused", "connection refused to pollin1.in2p3.fr:3306"},
		{"actively refused (Windows)", "No connection could be made because the target machine actively refused it", "connection refused to pollin1.in2p3.fr:3306"},
		{"no such host", "dial tcp: lookup pollin1.in2p3.fr: no such host", `cannot resolve host "pollin1.in2p3.fr"`},
		{"mysql access denied", "Error 1045 (28000): Access denied for user 'consult'@'10.0.0.1'", `authentication failed for user "consult" on database "models03"`},
		{"postgres password failed", `password authentication failed for user "consult"`, `authentication failed for user "consult"`},
		{"mysql unknown database", "Error 1049 (42000): Unknown database 'models03'", `database "models03" does not exist`},
		{"timeout", "dial tcp 10.0.0.1:3306: i/o timeout", "connection timed out to pollin1.in2p3.fr:3306"},
		{"TLS error", "tls: handshake failure", "SSL/TLS connection error"},
		{"too many connections", "Error 1040: Too many connections", "too many connections to pollin1.in2p3.fr:3306"},
		{"unknown error falls through", "something completely unexpected happened", "failed to connect to database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalErr := errors.New(tt.errMsg)
			wrapped := wrapConnectionError(originalErr, cfg)

			if !strings.Contains(wrapped.Error(), tt.wantContains) {
				t.Errorf("wrapConnectionError() = %q, want it to contain %q", wrapped.Error(), tt.wantContains)
			}
			if !errors.Is(wrapped, originalErr) {
				t.Error("wrapped error does not unwrap to original error")
			}
		})
	}
}
