package validation

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{
			name:  "simple address",
			email: "t@test.com",
			valid: true,
		},
		{
			name:  "dotted local part",
			email: "first.last@example.com.br",
			valid: true,
		},
		{
			name:  "missing at sign",
			email: "test.com",
			valid: false,
		},
		{
			name:  "missing domain",
			email: "user@",
			valid: false,
		},
		{
			name:  "missing tld",
			email: "user@example",
			valid: false,
		},
		{
			name:  "empty string",
			email: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.valid {
				t.Fatalf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.valid)
			}
		})
	}
}
