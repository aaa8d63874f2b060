package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		password string
		wantErr  bool
	}{
		{
			name:     "successful hash",
			password: "secret123",
			wantErr:  false,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
			errMsg:   "password cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed, err := HashPassword(tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Empty(t, hashed)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hashed)
			assert.NoError(t, VerifyPassword(tt.password, hashed))
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("secret123")
	require.NoError(t, err)
	h2, err := HashPassword("secret123")
	require.NoError(t, err)

	// bcrypt использует случайную соль
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("secret123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
		anyErr   bool
	}{
		{name: "correct password", password: "secret123", hash: hashed},
		{name: "wrong password", password: "secret124", hash: hashed, wantErr: ErrPasswordMismatch},
		{name: "empty hash", password: "secret123", hash: "", anyErr: true},
		{name: "not a bcrypt hash", password: "secret123", hash: "plain", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword(tt.password, tt.hash)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrPasswordMismatch)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestBurnPasswordCheck(t *testing.T) {
	assert.ErrorIs(t, BurnPasswordCheck("anything"), ErrPasswordMismatch)
	assert.ErrorIs(t, BurnPasswordCheck("bookshelf-dummy-password"), ErrPasswordMismatch)
}
