package mokka_test

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

type valuer struct{ v driver.Value }

func (v valuer) Value() (driver.Value, error) { return v.v, nil }

func TestValue_IsFalsy(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"empty bytes", []byte{}, true},
		{"zero int", 0, true},
		{"zero int64", int64(0), true},
		{"zero float", 0.0, true},
		{"zero float32", float32(0), true},
		{"float32", float32(0.1), false},
		{"false", false, true},
		{"text", "2*mm", false},
		{"bytes", []byte("1.5"), false},
		{"text zero", "0", false},
		{"int", int64(3), false},
		{"negative float", -0.5, false},
		{"true", true, false},
		{"time", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"valuer nil", valuer{nil}, true},
		{"valuer text", valuer{"x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mokka.NewValue(tt.raw).IsFalsy(); got != tt.want {
				t.Errorf("NewValue(%#v).IsFalsy() = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValue_Format(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"null", nil, "None"},
		{"text", "TPC_outer_radius", "TPC_outer_radius"},
		{"bytes", []byte("1808*mm"), "1808*mm"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint64", uint64(18), "18"},
		{"integral float", 100.0, "100.0"},
		{"fraction", 0.25, "0.25"},
		{"small float", 0.00001, "1e-05"},
		{"large float", 1.5e16, "1.5e+16"},
		{"float32", float32(0.5), "0.5"},
		{"float32 tenth", float32(0.1), "0.1"},
		{"float32 fraction", float32(1.7), "1.7"},
		{"integral float32", float32(30), "30.0"},
		{"small float32", float32(0.00001), "1e-05"},
		{"zero float", 0.0, "0.0"},
		{"true", true, "True"},
		{"false", false, "False"},
		{"time", time.Date(2014, 3, 7, 9, 5, 0, 0, time.UTC), "2014-03-07 09:05:00"},
		{"valuer", valuer{"3.50"}, "3.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mokka.NewValue(tt.raw).String(); got != tt.want {
				t.Errorf("NewValue(%#v).String() = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValue_CustomNullMarker(t *testing.T) {
	if got := mokka.Null().Format("NULL"); got != "NULL" {
		t.Errorf("Format = %q, want NULL", got)
	}
	if got := mokka.Text("").Format("NULL"); got != "" {
		t.Errorf("empty text should stay empty, got %q", got)
	}
	if !mokka.Null().IsNull() || mokka.Text("").IsNull() {
		t.Error("IsNull must only be true for NULL")
	}
}
