package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/civicspot/internal/constants"
)

var (
	// usernameRegex allows only alphanumeric characters, dots and underscores
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
)

// Usernames that would collide with routes or admin wording
var reservedUsernames = map[string]bool{
	"admin":  true,
	"login":  true,
	"logout": true,
	"me":     true,
	"root":   true,
}

var pictureExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ValidateEmail validates an account email address
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if len(email) > 254 {
		return errors.New("email must be 254 characters or less")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email address is not valid")
	}
	if !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return errors.New("email domain must contain a dot")
	}
	return nil
}

// ValidatePassword checks the minimum password length
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", constants.MinPasswordLength)
	}
	if len(password) > 72 {
		// bcrypt ignores anything past 72 bytes
		return errors.New("password must be 72 bytes or less")
	}
	return nil
}

// ValidateDisplayName validates the name shown in menus and posts
func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("name cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > 64 {
		return errors.New("name must be 64 characters or less")
	}
	if strings.ContainsAny(name, "<>\x00") {
		return errors.New("name contains invalid characters")
	}
	return nil
}

// ValidateUsername validates an optional @handle. Empty is allowed.
func ValidateUsername(username string) error {
	if username == "" {
		return nil
	}
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > 30 {
		return errors.New("username must be 30 characters or less")
	}

	if reservedUsernames[strings.ToLower(username)] {
		return errors.New("username is reserved")
	}

	if !usernameRegex.MatchString(username) {
		return errors.New("username must contain only letters, numbers, dots, and underscores")
	}

	if strings.HasPrefix(username, ".") || strings.HasSuffix(username, ".") {
		return errors.New("username cannot start or end with a dot")
	}
	if strings.Contains(username, "..") {
		return errors.New("username cannot contain '..'")
	}

	return nil
}

// ValidateProfilePicture checks an uploaded picture's name and size
func ValidateProfilePicture(filename string, size int64) error {
	if filename == "" {
		return errors.New("picture file name cannot be empty")
	}
	if strings.ContainsAny(filename, `/\`) {
		return errors.New("picture file name cannot contain slashes")
	}
	if !pictureExtensions[strings.ToLower(filepath.Ext(filename))] {
		return errors.New("picture must be a jpg, png, gif or webp image")
	}
	if size <= 0 {
		return errors.New("picture cannot be empty")
	}
	if size > constants.MaxProfileUploadBytes {
		return fmt.Errorf("picture too large (maximum %d MB)", constants.MaxProfileUploadBytes>>20)
	}
	return nil
}
