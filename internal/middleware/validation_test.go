package middleware

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr error
	}{
		{"ann@example.com", nil},
		{"ann.lee+bills@mail.example.co", nil},
		{"", ErrEmailInvalid},
		{"ann", ErrEmailInvalid},
		{"ann@", ErrEmailInvalid},
		{"ann@localhost", ErrEmailInvalid},
		{"ann@example.", ErrEmailInvalid},
		{"Ann <ann@example.com>", ErrEmailInvalid},
		{"ann@exa mple.com", ErrEmailInvalid},
		{strings.Repeat("a", 244) + "@example.com", ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if err := ValidateEmail(tt.email); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Password1", nil},
		{"exactly eight", "Abcdefg1", nil},
		{"too short", "Abcde1", ErrPasswordWeak},
		{"no uppercase", "password1", ErrPasswordWeak},
		{"no lowercase", "PASSWORD1", ErrPasswordWeak},
		{"no digit", "Password", ErrPasswordWeak},
		{"empty", "", ErrPasswordWeak},
		{"too long for bcrypt", "Aa1" + strings.Repeat("x", 70), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		check   func(string) error
		value   string
		wantErr error
	}{
		{"name present", ValidateName, "Ann", nil},
		{"name blank", ValidateName, "   ", ErrNameRequired},
		{"name at limit", ValidateName, strings.Repeat("é", MaxNameLength), nil},
		{"name too long", ValidateName, strings.Repeat("n", MaxNameLength+1), ErrNameTooLong},
		{"login password present", ValidatePasswordPresent, "x", nil},
		{"login password missing", ValidatePasswordPresent, "", ErrPasswordRequired},
		{"category name present", ValidateCategoryName, "Food", nil},
		{"category name blank", ValidateCategoryName, "", ErrCategoryNameRequired},
		{"category name at limit", ValidateCategoryName, " " + strings.Repeat("é", MaxCategoryNameLength) + " ", nil},
		{"category name too long", ValidateCategoryName, strings.Repeat("c", MaxCategoryNameLength+1), ErrCategoryNameTooLong},
		{"category ref present", ValidateCategoryRef, "Food", nil},
		{"category ref blank", ValidateCategoryRef, " ", ErrCategoryRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.check(tt.value); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr error
	}{
		{`12.5`, 12.5, nil},
		{`0`, 0, nil},
		{`"42.10"`, 42.1, nil},
		{`12.346`, 12.35, nil},
		{`0.004`, 0, nil},
		{`999999999999.99`, 999999999999.99, nil},
		{`1e12`, 0, ErrAmountTooLarge},
		{`"999999999999.999"`, 0, ErrAmountTooLarge},
		{`-1`, 0, ErrAmountInvalid},
		{`"abc"`, 0, ErrAmountInvalid},
		{`null`, 0, ErrAmountInvalid},
		{``, 0, ErrAmountInvalid},
		{`"NaN"`, 0, ErrAmountInvalid},
		{`"Inf"`, 0, ErrAmountInvalid},
		{`true`, 0, ErrAmountInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseAmount(%s) error = %v, want %v", tt.raw, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%s) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	var fe FieldErrors
	fe.Check("name", nil)
	if !fe.Empty() {
		t.Fatal("nil error should not be recorded")
	}

	fe.Check("email", ErrEmailInvalid)
	fe.Check("password", ErrPasswordWeak)

	if len(fe) != 2 {
		t.Fatalf("len = %d, want 2", len(fe))
	}
	if fe[0].Field != "email" || fe[0].Msg != "Please include a valid email" {
		t.Errorf("first error = %+v", fe[0])
	}

	body, err := json.Marshal(map[string]FieldErrors{"errors": fe})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `{"field":"password","msg":"Password must be 8+ characters with uppercase, lowercase, and number"}`) {
		t.Errorf("unexpected JSON: %s", body)
	}
}
