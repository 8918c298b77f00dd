package middleware

import (
	"encoding/json"
	"errors"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPasswordBytes is the longest password bcrypt can hash without truncation.
const MaxPasswordBytes = 72

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Column limits of the users, categories and expenses tables.
const (
	MaxNameLength         = 255
	MaxEmailLength        = 255
	MaxCategoryNameLength = 100
	// MaxAmount is exclusive; amounts are stored as NUMERIC(14,2).
	MaxAmount = 1e12
)

// Validation errors. Their text is returned to clients as-is.
var (
	ErrNameRequired         = errors.New("Name is required")
	ErrNameTooLong          = errors.New("Name must be at most 255 characters")
	ErrEmailInvalid         = errors.New("Please include a valid email")
	ErrEmailTooLong         = errors.New("Email must be at most 255 characters")
	ErrPasswordWeak         = errors.New("Password must be 8+ characters with uppercase, lowercase, and number")
	ErrPasswordTooLong      = errors.New("Password must be at most 72 bytes")
	ErrPasswordRequired     = errors.New("Password is required")
	ErrCategoryNameRequired = errors.New("Category name is required")
	ErrCategoryNameTooLong  = errors.New("Category name must be at most 100 characters")
	ErrCategoryRequired     = errors.New("Category is required")
	ErrAmountInvalid        = errors.New("Amount must be a positive number")
	ErrAmountTooLarge       = errors.New("Amount must be less than 1000000000000")
	ErrDateInvalid          = errors.New("Invalid date format")
)

// FieldError is one failed check on a request field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// FieldErrors collects failed checks in request order.
type FieldErrors []FieldError

// Check records err against field when err is non-nil.
func (fe *FieldErrors) Check(field string, err error) {
	if err != nil {
		*fe = append(*fe, FieldError{Field: field, Msg: err.Error()})
	}
}

// Empty reports whether no check failed.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// ValidateName requires a non-blank name of at most MaxNameLength characters.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// ValidateEmail accepts a bare address with a dotted domain.
// Display-name forms like "Ann <ann@example.com>" are rejected.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailInvalid
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailInvalid
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword enforces the registration policy: at least 8 characters
// with one uppercase letter, one lowercase letter and one digit.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordWeak
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrPasswordWeak
	}
	return nil
}

// ValidatePasswordPresent only requires the field on login.
func ValidatePasswordPresent(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// ValidateCategoryName requires a non-blank category name on creation.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrCategoryNameRequired
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	return nil
}

// ValidateCategoryRef requires a non-blank category on an expense.
func ValidateCategoryRef(category string) error {
	if strings.TrimSpace(category) == "" {
		return ErrCategoryRequired
	}
	return nil
}

// ParseAmount reads a JSON number or numeric string, rounds it to cents and
// requires 0 <= amount < MaxAmount.
func ParseAmount(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, ErrAmountInvalid
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, ErrAmountInvalid
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrAmountInvalid
	}
	v = math.Round(v*100) / 100
	if v >= MaxAmount {
		return 0, ErrAmountTooLarge
	}
	return v, nil
}
