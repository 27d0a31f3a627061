package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
	"github.com/sakif/chess-lobby/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory repository.Store. It applies the same rules as the
// real backends (atomic register, conditional seat claim) behind one mutex.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]model.User
	tokens map[string]string
	games  map[int64]*model.Game
	nextID int64

	// set to a non-nil error to simulate a storage failure
	failWith error

	// hooks run outside the lock, to interleave other calls with a lookup
	// or a delete
	afterGetToken func(token string)
	beforeDelete  func(token string)
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]model.User),
		tokens: make(map[string]string),
		games:  make(map[int64]*model.Game),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User, token *model.AuthToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return apperror.Storage(f.failWith)
	}
	if _, ok := f.users[user.Username]; ok {
		return apperror.AlreadyTaken("username", user.Username)
	}
	if token != nil {
		if _, ok := f.tokens[token.Token]; ok {
			return apperror.Storage(errors.New("token collision"))
		}
		f.tokens[token.Token] = token.Username
	}
	f.users[user.Username] = *user
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, apperror.Storage(f.failWith)
	}
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return &u, nil
}

func (f *fakeStore) CreateToken(_ context.Context, token *model.AuthToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return apperror.Storage(f.failWith)
	}
	if _, ok := f.tokens[token.Token]; ok {
		return apperror.Storage(errors.New("token collision"))
	}
	if _, ok := f.users[token.Username]; !ok {
		return apperror.NotFound("user", token.Username)
	}
	f.tokens[token.Token] = token.Username
	return nil
}

func (f *fakeStore) GetToken(_ context.Context, token string) (*model.AuthToken, error) {
	f.mu.Lock()
	if f.failWith != nil {
		f.mu.Unlock()
		return nil, apperror.Storage(f.failWith)
	}
	u, ok := f.tokens[token]
	hook := f.afterGetToken
	f.mu.Unlock()

	if hook != nil {
		hook(token)
	}
	if !ok {
		return nil, apperror.NotFound("auth token", "<redacted>")
	}
	return &model.AuthToken{Token: token, Username: u}, nil
}

func (f *fakeStore) DeleteToken(_ context.Context, token string) (bool, error) {
	if f.beforeDelete != nil {
		f.beforeDelete(token)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, apperror.Storage(f.failWith)
	}
	_, ok := f.tokens[token]
	delete(f.tokens, token)
	return ok, nil
}

func (f *fakeStore) CreateGame(_ context.Context, game *model.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return apperror.Storage(f.failWith)
	}
	f.nextID++
	game.ID = f.nextID
	g := *game
	f.games[g.ID] = &g
	return nil
}

func (f *fakeStore) GetGame(_ context.Context, id int64) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, apperror.GameNotFound(id)
	}
	cp := *g
	return &cp, nil
}

func (f *fakeStore) ListGames(_ context.Context) ([]model.GameSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, apperror.Storage(f.failWith)
	}
	out := []model.GameSummary{}
	for _, g := range f.games {
		out = append(out, g.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ClaimSeat(_ context.Context, id int64, color model.Color, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return apperror.Storage(f.failWith)
	}
	g, ok := f.games[id]
	if !ok {
		return apperror.GameNotFound(id)
	}
	seat := &g.WhiteUsername
	if color == model.Black {
		seat = &g.BlackUsername
	}
	if *seat != "" {
		return apperror.SeatTaken(id, color.String())
	}
	*seat = username
	return nil
}

func (f *fakeStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return apperror.Storage(f.failWith)
	}
	f.users = make(map[string]model.User)
	f.tokens = make(map[string]string)
	f.games = make(map[int64]*model.Game)
	return nil
}

func (f *fakeStore) RowCounts(_ context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return map[string]int64{
		repository.TableUsers:      int64(len(f.users)),
		repository.TableAuthTokens: int64(len(f.tokens)),
		repository.TableGames:      int64(len(f.games)),
	}, nil
}

func (f *fakeStore) Close() error { return nil }

// fakeCache records calls so tests can check the read-through behaviour. Fill
// follows the same fencing rules as auth.RedisTokenCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	revoked map[string]bool
	epoch   int64
	gets    int
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string), revoked: make(map[string]bool)}
}

func (c *fakeCache) Get(_ context.Context, token string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return "", false, c.err
	}
	u, ok := c.entries[token]
	return u, ok, nil
}

func (c *fakeCache) Epoch(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, c.err
}

func (c *fakeCache) Fill(_ context.Context, token, username string, epoch int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.revoked[token] || epoch != c.epoch {
		return false, nil
	}
	if _, ok := c.entries[token]; ok {
		return false, nil
	}
	c.entries[token] = username
	return true, nil
}

func (c *fakeCache) MarkRevoked(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.revoked[token] = true
	delete(c.entries, token)
	return nil
}

func (c *fakeCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
	return c.err
}

func (c *fakeCache) Flush(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[string]string)
	return c.err
}

// fakeHasher is a reversible stand-in for bcrypt that counts Verify calls.
type fakeHasher struct {
	mu       sync.Mutex
	verifies int
}

var errMismatch = errors.New("mismatch")

func (h *fakeHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (h *fakeHasher) Verify(hash, p string) error {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	if hash != "hashed:"+p {
		return errMismatch
	}
	return nil
}

type fakeEngine struct{ err error }

func (e fakeEngine) NewGame() (model.GameState, error) {
	if e.err != nil {
		return nil, e.err
	}
	return model.GameState("initial-state"), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testLobby struct {
	*Lobby
	store  *fakeStore
	cache  *fakeCache
	hasher *fakeHasher
}

func newTestLobby() *testLobby {
	store := newFakeStore()
	cache := newFakeCache()
	hasher := &fakeHasher{}
	l := NewLobby(store, LobbyOptions{Cache: cache, Engine: fakeEngine{}, Hasher: hasher}, discardLogger())
	return &testLobby{Lobby: l, store: store, cache: cache, hasher: hasher}
}
