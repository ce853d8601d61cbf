package validation

import (
	"strings"
	"testing"

	"github.com/civicspot/internal/constants"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		shouldErr bool
	}{
		{"valid simple", "user@x.com", false},
		{"valid subdomain", "a.b+tag@mail.example.org", false},

		{"empty", "", true},
		{"missing at", "user.x.com", true},
		{"missing domain dot", "user@localhost", true},
		{"display name form", "User <user@x.com>", true},
		{"spaces", "us er@x.com", true},
		{"too long", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.shouldErr && err == nil {
				t.Errorf("expected error but got none for email: %s", tt.email)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error for valid email %s: %v", tt.email, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		shouldErr bool
	}{
		{"minimum length", strings.Repeat("p", constants.MinPasswordLength), false},
		{"long", "correct horse battery staple", false},

		{"empty", "", true},
		{"too short", "12345", true},
		{"over bcrypt limit", strings.Repeat("p", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	tests := []struct {
		name      string
		display   string
		shouldErr bool
	}{
		{"simple", "Ada", false},
		{"unicode", "Zoë Ñúñez", false},
		{"with spaces", "Ada Lovelace", false},

		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"markup", "<script>", true},
		{"too long", strings.Repeat("n", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisplayName(tt.display)
			if tt.shouldErr && err == nil {
				t.Errorf("expected error but got none for name: %q", tt.display)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error for valid name %q: %v", tt.display, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		shouldErr bool
	}{
		{"empty is allowed", "", false},
		{"simple", "ada", false},
		{"dots and underscores", "ada.love_lace", false},

		{"too short", "ab", true},
		{"too long", strings.Repeat("u", 31), true},
		{"reserved", "Admin", true},
		{"at sign", "@ada", true},
		{"hyphen", "ada-l", true},
		{"leading dot", ".ada", true},
		{"trailing dot", "ada.", true},
		{"double dot", "ada..l", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.shouldErr && err == nil {
				t.Errorf("expected error but got none for username: %s", tt.username)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error for valid username %s: %v", tt.username, err)
			}
		})
	}
}

func TestValidateProfilePicture(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		size      int64
		shouldErr bool
	}{
		{"png", "me.png", 1024, false},
		{"upper case jpeg", "ME.JPEG", 1024, false},

		{"empty name", "", 1024, true},
		{"path", "../me.png", 1024, true},
		{"wrong type", "me.svg", 1024, true},
		{"empty file", "me.png", 0, true},
		{"too large", "me.png", constants.MaxProfileUploadBytes + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfilePicture(tt.filename, tt.size)
			if tt.shouldErr && err == nil {
				t.Errorf("expected error but got none for %s (%d bytes)", tt.filename, tt.size)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error for %s: %v", tt.filename, err)
			}
		})
	}
}
