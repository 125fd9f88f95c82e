package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	// ErrPasswordMismatch is returned when a password does not match the
	// stored hash.
	ErrPasswordMismatch = errors.New("password does not match")
	// ErrWeakPassword is returned when a password fails a validation rule.
	ErrWeakPassword = errors.New("password does not meet requirements")
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash. A
// mismatch returns ErrPasswordMismatch; any other failure (for example a
// malformed stored hash) is returned as-is so callers can treat it as an
// internal error rather than bad credentials.
func VerifyPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("compare password hash: %w", err)
}

// PasswordRule validates one aspect of a candidate password.
type PasswordRule interface {
	Validate(password string) error
}

// PasswordValidator runs a fixed set of rules over a candidate password and
// reports the first failure.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator builds the validator used at registration and reset.
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		rules: []PasswordRule{
			MinLengthRule{Min: 8},
			CharacterClassesRule{},
			StrengthRule{MinScore: 2},
		},
	}
}

// Validate returns nil when all rules pass. Failures wrap ErrWeakPassword.
func (v *PasswordValidator) Validate(password string) error {
	for _, rule := range v.rules {
		if err := rule.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

// MinLengthRule requires a minimum password length in runes.
type MinLengthRule struct {
	Min int
}

func (r MinLengthRule) Validate(password string) error {
	if len([]rune(password)) < r.Min {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, r.Min)
	}
	return nil
}

// CharacterClassesRule requires an uppercase letter, a lowercase letter, a
// digit and one of the special characters @$!%*?&.
type CharacterClassesRule struct{}

const specialCharacters = "@$!%*?&"

func (r CharacterClassesRule) Validate(password string) error {
	var upper, lower, digit, special bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		case strings.ContainsRune(specialCharacters, c):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fmt.Errorf(
			"%w: must contain uppercase, lowercase, a number and one of %s",
			ErrWeakPassword, specialCharacters,
		)
	}
	return nil
}

// StrengthRule rejects passwords below a zxcvbn score threshold even when
// they technically satisfy the character class requirements.
type StrengthRule struct {
	MinScore int
}

func (r StrengthRule) Validate(password string) error {
	result := zxcvbn.PasswordStrength(password, nil)
	if result.Score < r.MinScore {
		return fmt.Errorf("%w: too easy to guess", ErrWeakPassword)
	}
	return nil
}

// ValidateFullName restricts display names to letters and spaces.
func ValidateFullName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("full name is required")
	}
	for _, c := range trimmed {
		if !unicode.IsLetter(c) && c != ' ' {
			return errors.New("full name can only contain letters and spaces")
		}
	}
	return nil
}
