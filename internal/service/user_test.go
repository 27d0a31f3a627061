package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/repository"
)

func TestRegister(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()

	tok, err := l.Register(ctx, "ExistingUser", "existingUserPassword", "eu@mail.com")
	require.NoError(t, err)
	assert.Equal(t, "ExistingUser", tok.Username)
	assert.NotEmpty(t, tok.Token)

	u, err := l.store.GetUser(ctx, "ExistingUser")
	require.NoError(t, err)
	assert.NotEqual(t, "existingUserPassword", u.PasswordHash, "plaintext must not be stored")
	assert.Equal(t, "eu@mail.com", u.Email)

	user, err := l.Auth.Validate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "ExistingUser", user)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name                      string
		username, password, email string
		field                     string
	}{
		{"missing username", "", "pw", "e@mail.com", "username"},
		{"blank username", "   ", "pw", "e@mail.com", "username"},
		{"missing password", "u", "", "e@mail.com", "password"},
		{"missing email", "u", "pw", "", "email"},
		{"long username", strings.Repeat("u", MaxUsernameLength+1), "pw", "e@mail.com", "username"},
		{"long password", "u", strings.Repeat("p", MaxPasswordLength+1), "e@mail.com", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLobby()
			_, err := l.Register(context.Background(), tt.username, tt.password, tt.email)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)

			counts, _ := l.store.RowCounts(context.Background())
			assert.Zero(t, counts[repository.TableUsers])
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()

	_, err := l.Register(ctx, "alice", "pw1", "a@mail.com")
	require.NoError(t, err)

	_, err = l.Register(ctx, "alice", "pw2", "other@mail.com")
	assert.ErrorIs(t, err, apperror.ErrAlreadyTaken)

	counts, err := l.store.RowCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[repository.TableUsers])
	assert.EqualValues(t, 1, counts[repository.TableAuthTokens])
}

func TestRegister_ConcurrentSameName(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Register(ctx, "racer", "pw", "r@mail.com")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrAlreadyTaken)
	}
	assert.Equal(t, 1, ok)
}

func TestLogin(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()

	first, err := l.Register(ctx, "alice", "pw", "a@mail.com")
	require.NoError(t, err)

	second, err := l.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	// Logging in again does not invalidate earlier tokens.
	for _, tok := range []string{first.Token, second.Token} {
		user, err := l.Auth.Validate(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", user)
	}
}

func TestLogin_FailuresLookIdentical(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()
	_, err := l.Register(ctx, "alice", "pw", "a@mail.com")
	require.NoError(t, err)

	_, wrongPw := l.Login(ctx, "alice", "nope")
	_, unknown := l.Login(ctx, "bob", "pw")

	require.ErrorIs(t, wrongPw, apperror.ErrUnauthorized)
	require.ErrorIs(t, unknown, apperror.ErrUnauthorized)
	assert.Equal(t, wrongPw.Error(), unknown.Error())

	// Both paths ran a password comparison.
	assert.Equal(t, 2, l.hasher.verifies)
}

func TestLogin_Validation(t *testing.T) {
	l := newTestLobby()
	_, err := l.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = l.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
