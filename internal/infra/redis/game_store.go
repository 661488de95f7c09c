package redis

import (
	"context"
	"sync"
	"time"

	"exodus-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GameStore is a Redis-aware implementation of app.GameRepository.
// Notes:
//   - Games live in a local map; the controller keeps its state in-process.
//   - Redis holds a liveness marker per game so operators (or a second
//     instance) can see which games are active on this node.
//   - Markers expire on their own if the process dies without cleaning up.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	node   string
	log    *zap.Logger

	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewGameStore(client *redis.Client, ttl time.Duration, node string, log *zap.Logger) *GameStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &GameStore{
		client: client,
		ttl:    ttl,
		node:   node,
		log:    log.With(zap.String("component", "redis_game_store")),
		games:  make(map[string]*app.Game),
	}
}

func (s *GameStore) GetOrCreate(gameID string) *app.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[gameID]; ok {
		s.touch(gameID)
		return g
	}
	g := app.NewGame(gameID)
	s.games[gameID] = g
	s.touch(gameID)
	return g
}

// Get refreshes the marker TTL, so a game in active play never looks abandoned.
func (s *GameStore) Get(gameID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	if ok {
		s.touch(gameID)
	}
	return g, ok
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return
	}
	delete(s.games, gameID)
	if err := s.client.Del(context.Background(), s.key(gameID)).Err(); err != nil {
		s.log.Warn("failed to clear game marker", zap.String("game_id", gameID), zap.Error(err))
	}
}

// Owner reports which node holds a live game, if any.
func (s *GameStore) Owner(ctx context.Context, gameID string) (string, bool, error) {
	node, err := s.client.Get(ctx, s.key(gameID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return node, true, nil
}

// touch writes a best-effort liveness marker.
func (s *GameStore) touch(gameID string) {
	if err := s.client.Set(context.Background(), s.key(gameID), s.node, s.ttl).Err(); err != nil {
		s.log.Warn("failed to set game marker", zap.String("game_id", gameID), zap.Error(err))
	}
}

func (s *GameStore) key(gameID string) string {
	return "quiz:game:" + gameID
}
