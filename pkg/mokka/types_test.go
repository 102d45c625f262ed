package mokka_test

import (
	"errors"
	"testing"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

func validConn() *mokka.ConnectionConfig {
	return &mokka.ConnectionConfig{
		Driver:   mokka.DriverMySQL,
		Host:     mokka.LegacyHost,
		Port:     mokka.LegacyPort,
		Database: mokka.LegacyDatabase,
		Username: mokka.LegacyUser,
	}
}

func TestExportConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     mokka.ExportConfig
		wantErr error
	}{
		{"valid", mokka.ExportConfig{Model: "ILD_o1_v05", Connection: validConn()}, nil},
		{"empty model", mokka.ExportConfig{Connection: validConn()}, mokka.ErrInvalidConfig},
		{"no connection", mokka.ExportConfig{Model: "m"}, mokka.ErrInvalidConfig},
		{"negative timeout", mokka.ExportConfig{Model: "m", Connection: validConn(), Timeout: -1}, mokka.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConnectionConfig_Validate(t *testing.T) {
	duck := &mokka.ConnectionConfig{Driver: mokka.DriverDuckDB, Database: "models.duckdb"}
	if err := duck.Validate(); err != nil {
		t.Fatalf("duckdb config should be valid: %v", err)
	}

	duck.AuthMethod = mokka.AuthMethodAWSIAM
	if err := duck.Validate(); !errors.Is(err, mokka.ErrUnsupportedAuthMethod) {
		t.Fatalf("expected ErrUnsupportedAuthMethod, got %v", err)
	}

	google := validConn()
	google.AuthMethod = mokka.AuthMethodGoogleIAM
	if err := google.Validate(); !errors.Is(err, mokka.ErrUnsupportedAuthMethod) {
		t.Fatalf("google IAM on mysql should be rejected, got %v", err)
	}

	noHost := validConn()
	noHost.Host = ""
	if err := noHost.Validate(); !errors.Is(err, mokka.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]mokka.Driver{
		"mysql":      mokka.DriverMySQL,
		"MariaDB":    mokka.DriverMySQL,
		"postgresql": mokka.DriverPostgres,
		"pg":         mokka.DriverPostgres,
		"duckdb":     mokka.DriverDuckDB,
	} {
		got, err := mokka.ParseDriver(in)
		if err != nil || got != want {
			t.Errorf("ParseDriver(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := mokka.ParseDriver("oracle"); !errors.Is(err, mokka.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for oracle, got %v", err)
	}
}

func TestParseAuthMethod(t *testing.T) {
	for in, want := range map[string]mokka.AuthMethod{
		"":           mokka.AuthMethodStandard,
		"aws-iam":    mokka.AuthMethodAWSIAM,
		"azure":      mokka.AuthMethodAzureEntraID,
		"google-iam": mokka.AuthMethodGoogleIAM,
	} {
		got, err := mokka.ParseAuthMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseAuthMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := mokka.ParseAuthMethod("kerberos"); !errors.Is(err, mokka.ErrUnsupportedAuthMethod) {
		t.Errorf("expected ErrUnsupportedAuthMethod, got %v", err)
	}
}

func TestConnectionConfig_SourceHost(t *testing.T) {
	c := validConn()
	if c.SourceHost() != mokka.LegacyHost {
		t.Errorf("SourceHost = %q", c.SourceHost())
	}
	d := &mokka.ConnectionConfig{Driver: mokka.DriverDuckDB, Database: "x.duckdb"}
	if d.SourceHost() != "localhost" {
		t.Errorf("duckdb SourceHost = %q", d.SourceHost())
	}
}
