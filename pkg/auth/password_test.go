package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword_Length(t *testing.T) {
	// Below minimum length fails regardless of character variety
	shortPasswords := []string{
		"",
		"aB1!",
		"aB1!xyz", // 7 chars, all four classes
	}

	for _, p := range shortPasswords {
		err := ValidatePassword(p)
		assert.Error(t, err, "password %q should be rejected", p)
	}
}

func TestValidatePassword_CharacterClasses(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"two classes upper+lower", "Abcdefgh", false},
		{"two classes lower+digit", "abcdefg1", false},
		{"two classes upper+symbol", "ABCDEFG!", false},
		{"three classes", "Abcdefg1", true},
		{"three classes with symbol", "abcdef1!", true},
		{"four classes", "Abcdef1!", true},
		{"one class", "abcdefgh", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"a@b.co", true},
		{"user.name+tag@sub.example.com", true},
		{"", false},
		{"userexample.com", false},      // no @
		{"user@examplecom", false},      // no dot after @
		{"user@.com", false},            // empty label before dot
		{"user@example.", false},        // empty TLD
		{"@example.com", false},         // empty local part
		{"us er@example.com", false},    // whitespace
		{"user@@example.com", false},    // double @
		{"user@exa mple.com", false},    // whitespace in domain
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidateEmail(tt.email), "email %q", tt.email)
	}
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("Jo"))
	assert.True(t, ValidateName("  Jo  "))
	assert.False(t, ValidateName("J"))
	assert.False(t, ValidateName("   "))
	assert.False(t, ValidateName(""))
}

func TestGenerateTempPassword(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 32; i++ {
		pw, err := GenerateTempPassword()
		require.NoError(t, err)
		assert.Len(t, pw, TempPasswordLen)
		assert.False(t, seen[pw], "temp passwords should not repeat")
		seen[pw] = true

		for _, c := range pw {
			assert.True(t, strings.ContainsRune(tempPasswordAlphabet, c),
				"character %q outside allowed alphabet", c)
		}
	}
}
