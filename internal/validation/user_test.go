package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{email: "ann@example.com"},
		{email: "a.b+tag@sub.example.org"},
		{email: "", wantErr: true},
		{email: "plainaddress", wantErr: true},
		{email: "Ann <ann@example.com>", wantErr: true},
		{email: "ann@localhost", wantErr: true},
		{email: strings.Repeat("a", 250) + "@x.io", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Ann"))
	assert.NoError(t, ValidateName("Анна"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName("A"))
	assert.Error(t, ValidateName(strings.Repeat("x", MaxNameLen+1)))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "secret123"},
		{name: "empty", password: "", wantErr: true, errMsg: "password is required"},
		{name: "too short", password: "abc", wantErr: true, errMsg: "at least 6"},
		{name: "too long", password: strings.Repeat("p", 73), wantErr: true, errMsg: "must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorContains(t, err, tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAvatar(t *testing.T) {
	assert.NoError(t, ValidateAvatar(""))
	assert.NoError(t, ValidateAvatar("https://cdn.example.com/a.png"))
	assert.Error(t, ValidateAvatar("ftp://cdn.example.com/a.png"))
	assert.Error(t, ValidateAvatar("not a url"))
	assert.Error(t, ValidateAvatar("/relative/path.png"))
}
