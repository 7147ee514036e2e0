package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/snake-server/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory stand-in for *postgres.Repository with the
// same observable semantics.
type fakeStore struct {
	mu sync.Mutex

	nextUserID int64
	nextGameID int64

	users    map[int64]*domain.User
	tokens   map[string]*domain.AuthToken
	games    map[int64]*domain.GameSession
	scores   map[int64]*domain.HighScore
	presence map[int64]*presenceEntry
}

type presenceEntry struct {
	lastPing      time.Time
	currentGameID *int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*domain.User),
		tokens:   make(map[string]*domain.AuthToken),
		games:    make(map[int64]*domain.GameSession),
		scores:   make(map[int64]*domain.HighScore),
		presence: make(map[int64]*presenceEntry),
	}
}

// UserStore

func (f *fakeStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUserID++
	user := &domain.User{
		ID:           f.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.users[user.ID] = user
	return cloneUser(user), nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Username, username) {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeStore) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.GoogleID != "" && user.GoogleID == googleID {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeStore) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.GoogleID = googleID
	return nil
}

func (f *fakeStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := f.GetUserByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeStore) MarkOnline(ctx context.Context, userID int64, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.IsOnline = true
	user.LastActivity = now
	return nil
}

func (f *fakeStore) MarkOffline(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.IsOnline = false
	return nil
}

func (f *fakeStore) UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.FavoriteScore != nil {
		user.FavoriteScore = update.FavoriteScore
	}
	if update.Location != nil {
		user.Location = *update.Location
	}
	return cloneUser(user), nil
}

func (f *fakeStore) SetProfilePhotoURL(ctx context.Context, userID int64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.ProfilePhotoURL = url
	return nil
}

func (f *fakeStore) RecordGameEnd(ctx context.Context, userID, finalScore int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.TotalGamesPlayed++
	if finalScore > user.BestScore {
		user.BestScore = finalScore
	}
	return nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *cloneUser(user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BestScore > out[j].BestScore })
	return out, nil
}

// TokenStore

func (f *fakeStore) CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) (*domain.AuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &domain.AuthToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	f.tokens[token] = t
	clone := *t
	return &clone, nil
}

func (f *fakeStore) GetToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, domain.ErrTokenInvalid
}

func (f *fakeStore) DeleteToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeStore) DeleteUserTokens(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, token)
		}
	}
	return nil
}

func (f *fakeStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for token, t := range f.tokens {
		if t.Expired(now) {
			delete(f.tokens, token)
			n++
		}
	}
	return n, nil
}

// GameStore

func (f *fakeStore) CreateGame(ctx context.Context, userID int64, state domain.GameState) (*domain.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Any prior active session is deactivated first
	now := time.Now()
	for _, game := range f.games {
		if game.UserID == userID && game.IsActive {
			game.IsActive = false
			ended := now
			game.EndedAt = &ended
		}
	}

	f.nextGameID++
	game := &domain.GameSession{
		ID:        f.nextGameID,
		UserID:    userID,
		GameData:  state,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.games[game.ID] = game

	entry, ok := f.presence[userID]
	if !ok {
		entry = &presenceEntry{}
		f.presence[userID] = entry
	}
	entry.lastPing = now
	gameID := game.ID
	entry.currentGameID = &gameID

	return cloneGame(game), nil
}

func (f *fakeStore) GetGame(ctx context.Context, gameID, userID int64) (*domain.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[gameID]
	if !ok || game.UserID != userID {
		return nil, domain.ErrGameNotFound
	}
	return cloneGame(game), nil
}

func (f *fakeStore) UpdateGame(ctx context.Context, gameID, userID int64, state domain.GameState, score int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[gameID]
	if !ok || game.UserID != userID {
		return domain.ErrGameNotFound
	}
	if !game.IsActive {
		return domain.ErrGameNotActive
	}
	game.GameData = state
	game.Score = score
	game.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) EndGame(ctx context.Context, gameID, userID int64, now time.Time) (*domain.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[gameID]
	if !ok || game.UserID != userID {
		return nil, domain.ErrGameNotFound
	}
	if !game.IsActive {
		return nil, domain.ErrGameNotActive
	}
	game.IsActive = false
	ended := now
	game.EndedAt = &ended
	game.UpdatedAt = now
	return cloneGame(game), nil
}

// ScoreStore

func (f *fakeStore) UpsertHighScore(ctx context.Context, userID, score int64, achievedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.scores[userID]
	if !ok {
		f.scores[userID] = &domain.HighScore{UserID: userID, Score: score, AchievedAt: achievedAt}
		return nil
	}
	if domain.BeatsRecord(score, current.Score) {
		current.Score = score
		current.AchievedAt = achievedAt
	}
	return nil
}

func (f *fakeStore) GetHighScore(ctx context.Context, userID int64) (*domain.HighScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hs, ok := f.scores[userID]; ok {
		clone := *hs
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeStore) TopHighScores(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := make([]domain.LeaderboardEntry, 0, len(f.scores))
	for userID, hs := range f.scores {
		entry := domain.LeaderboardEntry{
			UserID:     userID,
			Score:      hs.Score,
			AchievedAt: hs.AchievedAt,
		}
		if user, ok := f.users[userID]; ok {
			entry.Username = user.Username
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].AchievedAt.After(entries[j].AchievedAt)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	return entries, nil
}

func (f *fakeStore) AllHighScores(ctx context.Context) (map[int64]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]int64, len(f.scores))
	for userID, hs := range f.scores {
		out[userID] = hs.Score
	}
	return out, nil
}

func (f *fakeStore) HighScoreCount(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.scores)), nil
}

// PresenceStore

func (f *fakeStore) TouchPresence(ctx context.Context, userID int64, now time.Time, gameID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.presence[userID]
	if !ok {
		entry = &presenceEntry{}
		f.presence[userID] = entry
	}
	entry.lastPing = now
	if gameID != nil {
		// Only sessions owned by the user may be attached
		if game, ok := f.games[*gameID]; ok && game.UserID == userID {
			id := *gameID
			entry.currentGameID = &id
		}
	}
	return nil
}

func (f *fakeStore) PruneAndListOnline(ctx context.Context, now time.Time, window time.Duration) ([]domain.OnlinePlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked(now, window)

	players := make([]domain.OnlinePlayer, 0, len(f.presence))
	for userID, entry := range f.presence {
		player := domain.OnlinePlayer{
			UserID:   userID,
			LastPing: entry.lastPing,
		}
		if user, ok := f.users[userID]; ok {
			player.Username = user.Username
			player.BestScore = user.BestScore
			player.TotalGames = user.TotalGamesPlayed
		}
		if entry.currentGameID != nil {
			if game, ok := f.games[*entry.currentGameID]; ok && game.IsActive {
				player.CurrentGame = &domain.CurrentGame{ID: game.ID, Score: game.Score}
			}
		}
		players = append(players, player)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Username < players[j].Username })
	return players, nil
}

func (f *fakeStore) PruneAndCountOnline(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked(now, window)
	return int64(len(f.presence)), nil
}

func (f *fakeStore) pruneLocked(now time.Time, window time.Duration) {
	for userID, entry := range f.presence {
		if domain.Stale(entry.lastPing, now, window) {
			delete(f.presence, userID)
		}
	}
}

func (f *fakeStore) ClearCurrentGame(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.presence[userID]; ok {
		entry.currentGameID = nil
	}
	return nil
}

func (f *fakeStore) RemovePresence(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.presence, userID)
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func cloneGame(g *domain.GameSession) *domain.GameSession {
	clone := *g
	if g.EndedAt != nil {
		ended := *g.EndedAt
		clone.EndedAt = &ended
	}
	return &clone
}

// fakeMirror is an in-memory stand-in for the Redis ledger mirror
type fakeMirror struct {
	mu     sync.Mutex
	scores map[int64]int64
	fail   bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{scores: make(map[int64]int64)}
}

func (m *fakeMirror) SetScoreIfHigher(ctx context.Context, userID, score int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false, context.DeadlineExceeded
	}
	current, ok := m.scores[userID]
	if !ok || domain.BeatsRecord(score, current) {
		m.scores[userID] = score
		return true, nil
	}
	return false, nil
}

func (m *fakeMirror) Rank(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.scores[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	rank := int64(1)
	for _, other := range m.scores {
		if other > score {
			rank++
		}
	}
	return rank, nil
}

func (m *fakeMirror) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return 0, context.DeadlineExceeded
	}
	return int64(len(m.scores)), nil
}

func (m *fakeMirror) BatchSet(ctx context.Context, scores map[int64]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, score := range scores {
		m.scores[userID] = score
	}
	return nil
}

// fakeHub records broadcasts
type fakeHub struct {
	mu               sync.Mutex
	leaderboardCalls int
	lastEntries      []domain.LeaderboardEntry
	lastTotal        int64
	onlineCountCalls int
	lastOnlineCount  int64
}

func (h *fakeHub) BroadcastLeaderboard(entries []domain.LeaderboardEntry, totalPlayers int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaderboardCalls++
	h.lastEntries = entries
	h.lastTotal = totalPlayers
}

func (h *fakeHub) BroadcastOnlineCount(count int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onlineCountCalls++
	h.lastOnlineCount = count
}

// fakeGoogle returns canned claims
type fakeGoogle struct {
	claims   *domain.GoogleClaims
	err      error
	photoURL string
}

func (g *fakeGoogle) Configured() bool { return true }

func (g *fakeGoogle) Verify(ctx context.Context, token string) (*domain.GoogleClaims, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.claims, nil
}

func (g *fakeGoogle) ResolveProfilePicture(ctx context.Context, pictureURL string) (string, error) {
	if g.photoURL != "" {
		return g.photoURL, nil
	}
	return pictureURL, nil
}
