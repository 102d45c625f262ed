package store

import "testing"

func TestDollarPlaceholders(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"WHERE a = ?", "WHERE a = $1"},
		{"VALUES (?, ?, ?)", "VALUES ($1, $2, $3)"},
		{modelOverridesQuery, "SELECT * FROM model_parameters WHERE model = $1"},
	}
	for _, tt := range tests {
		if got := dollarPlaceholders(tt.in); got != tt.want {
			t.Errorf("dollarPlaceholders(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDollarPlaceholders_ManyArgs(t *testing.T) {
	in := "??????????????"
	want := "$1$2$3$4$5$6$7$8$9$10$11$12$13$14"
	if got := dollarPlaceholders(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
