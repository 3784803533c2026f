package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@sub.example.co.uk", true},
		{"a@b.co", true},

		{"", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user@localhost", false},
		{"user @example.com", false},
		{"user@exam ple.com", false},
		{"a@@b.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsSnowflake(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"123456789012345678", true},
		{"80351110224678912", true},
		{"12345", false},
		{"abc123456789012345", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsSnowflake(tt.in); got != tt.want {
				t.Errorf("IsSnowflake(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	if !IsCode("482913") {
		t.Error("482913 should be a code")
	}
	for _, bad := range []string{"", "12345", "1234567", "12a456"} {
		if IsCode(bad) {
			t.Errorf("IsCode(%q) should be false", bad)
		}
	}
}

func TestIsValidObjectID(t *testing.T) {
	if !IsValidObjectID("507f1f77bcf86cd799439011") {
		t.Error("expected valid ObjectID")
	}
	if IsValidObjectID("nope") {
		t.Error("expected invalid ObjectID")
	}
}
