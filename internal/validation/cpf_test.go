package validation

import "testing"

func TestIsValidCPF(t *testing.T) {
	tests := []struct {
		name  string
		cpf   string
		valid bool
	}{
		{
			name:  "valid example 1",
			cpf:   "37850775724",
			valid: true,
		},
		{
			name:  "valid example 2",
			cpf:   "52998224725",
			valid: true,
		},
		{
			name:  "invalid first check digit",
			cpf:   "37850775714",
			valid: false,
		},
		{
			name:  "invalid second check digit",
			cpf:   "37850775725",
			valid: false,
		},
		{
			name:  "all same digits",
			cpf:   "11111111111",
			valid: false,
		},
		{
			name:  "too short",
			cpf:   "3785077572",
			valid: false,
		},
		{
			name:  "contains letters",
			cpf:   "3785077572a",
			valid: false,
		},
		{
			name:  "not normalized",
			cpf:   "378.507.757-24",
			valid: false,
		},
		{
			name:  "empty string",
			cpf:   "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidCPF(tt.cpf)
			if got != tt.valid {
				t.Fatalf("IsValidCPF(%q) = %v, want %v", tt.cpf, got, tt.valid)
			}
		})
	}
}

func TestNormalizeCPF(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "378.507.757-24", want: "37850775724"},
		{raw: "37850775724", want: "37850775724"},
		{raw: "378-507-757.24", want: "37850775724"},
	}

	for _, tt := range tests {
		if got := NormalizeCPF(tt.raw); got != tt.want {
			t.Fatalf("NormalizeCPF(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizedCPFStaysValid(t *testing.T) {
	if !IsValidCPF(NormalizeCPF("378.507.757-24")) {
		t.Fatalf("formatted CPF must validate after normalization")
	}
}
