package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"exodus-quiz-service/internal/domain"
	"exodus-quiz-service/internal/game"
	"go.uber.org/zap"
)

// GameRepository abstracts where live games are kept (in-memory, Redis, etc).
type GameRepository interface {
	GetOrCreate(gameID string) *Game
	Get(gameID string) (*Game, bool)
	Delete(gameID string)
}

// QuestionSource produces question batches. Implementations may be slow or fail.
type QuestionSource interface {
	Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, error)
}

// LoadErrorMessage is shown on the menu when the first batch cannot be fetched.
const LoadErrorMessage = "无法生成题目，请检查网络或稍后再试。"

// GameService contains the game use cases and runs the prefetch policy.
type GameService struct {
	games        GameRepository
	source       QuestionSource
	machine      game.Machine
	log          *zap.Logger
	fetchTimeout time.Duration
	wg           sync.WaitGroup
}

// Option customizes a GameService.
type Option func(*GameService)

func WithMachine(m game.Machine) Option {
	return func(s *GameService) { s.machine = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *GameService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithFetchTimeout bounds every call to the question source; zero means no bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *GameService) { s.fetchTimeout = d }
}

func NewGameService(games GameRepository, source QuestionSource, opts ...Option) *GameService {
	s := &GameService{
		games:   games,
		source:  source,
		machine: game.DefaultMachine(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "game_service"))
	return s
}

// Open attaches a connection to the game for gameID, creating it on the
// menu if needed. Every Open must be paired with a Close.
func (s *GameService) Open(_ context.Context, gameID string) (View, error) {
	if gameID == "" {
		return View{}, domain.ErrGameNotFound
	}
	for {
		g := s.games.GetOrCreate(gameID)
		g.mu.Lock()
		if g.closed {
			// Lost a race with the last Close; it has already left the repository.
			g.mu.Unlock()
			continue
		}
		g.conns++
		v := g.viewLocked(s.lives())
		g.mu.Unlock()
		return v, nil
	}
}

// Start moves a game from the menu to playing. It blocks while the first
// batch is fetched.
func (s *GameService) Start(ctx context.Context, gameID string, difficulty domain.Difficulty) (View, error) {
	g := s.games.GetOrCreate(gameID)
	return s.load(ctx, g, game.Start{Difficulty: difficulty})
}

// Restart replays an ended game with the same difficulty.
func (s *GameService) Restart(ctx context.Context, gameID string) (View, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return View{}, domain.ErrGameNotFound
	}
	return s.load(ctx, g, game.Restart{})
}

func (s *GameService) load(ctx context.Context, g *Game, ev game.Event) (View, error) {
	g.mu.Lock()
	next, session, effects, err := s.machine.Step(g.state, g.session, ev)
	if err != nil {
		g.mu.Unlock()
		return View{}, err
	}
	g.state, g.session = next, session
	g.epoch++
	g.fetching = false
	g.lastAnswer = nil
	g.lastError = ""
	g.touchLocked()
	epoch := g.epoch
	g.broadcastLocked(s.lives())
	g.mu.Unlock()

	var req domain.GenerationRequest
	for _, eff := range effects {
		if f, ok := eff.(game.FetchInitial); ok {
			req = f.Request
		}
	}
	log := s.log.With(zap.String("game_id", g.id), zap.String("difficulty", string(req.Difficulty)))
	log.Info("loading initial questions", zap.Int("count", req.Count))

	questions, fetchErr := s.generate(ctx, req)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epoch != epoch || g.state != game.Loading {
		log.Debug("discarding stale initial batch")
		return g.viewLocked(s.lives()), domain.ErrInvalidTransition
	}

	var result game.Event = game.Loaded{Difficulty: req.Difficulty, Questions: questions}
	if fetchErr != nil {
		result = game.LoadFailed{Err: fetchErr}
	}
	next, session, effects, err = s.machine.Step(g.state, g.session, result)
	if err != nil {
		return g.viewLocked(s.lives()), err
	}
	g.state, g.session = next, session
	g.touchLocked()

	var loadErr error
	for _, eff := range effects {
		if r, ok := eff.(game.ReportError); ok {
			loadErr = r.Err
			g.lastError = LoadErrorMessage
			log.Error("initial question fetch failed", zap.Error(r.Err))
		}
	}
	if loadErr == nil {
		log.Info("game started", zap.Int("buffered", len(g.session.Questions)))
		s.maybePrefetchLocked(g)
	}
	return g.broadcastLocked(s.lives()), loadErr
}

// Submit records the player's option for the current question.
func (s *GameService) Submit(_ context.Context, gameID string, option int) (game.AnswerOutcome, View, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return game.AnswerOutcome{}, View{}, domain.ErrGameNotFound
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	next, session, effects, err := s.machine.Step(g.state, g.session, game.Answer{Option: option})
	if err != nil {
		// The player may be sitting at the end of the buffer; give the policy another chance.
		if errors.Is(err, domain.ErrAwaitingQuestions) {
			s.maybePrefetchLocked(g)
		}
		return game.AnswerOutcome{}, g.viewLocked(s.lives()), err
	}
	g.state, g.session = next, session

	var outcome game.AnswerOutcome
	for _, eff := range effects {
		if a, ok := eff.(game.Answered); ok {
			outcome = a.Outcome
		}
	}
	g.lastAnswer = &outcome
	g.touchLocked()
	s.maybePrefetchLocked(g)
	return outcome, g.broadcastLocked(s.lives()), nil
}

// Advance moves to the next question, or to game over when no lives remain.
func (s *GameService) Advance(_ context.Context, gameID string) (View, error) {
	return s.apply(gameID, game.Advance{}, false)
}

// Quit ends a running game.
func (s *GameService) Quit(_ context.Context, gameID string) (View, error) {
	return s.apply(gameID, game.Quit{}, false)
}

// Home returns an ended game to the menu and discards its session.
func (s *GameService) Home(_ context.Context, gameID string) (View, error) {
	return s.apply(gameID, game.Home{}, true)
}

func (s *GameService) apply(gameID string, ev game.Event, newEpoch bool) (View, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return View{}, domain.ErrGameNotFound
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	next, session, _, err := s.machine.Step(g.state, g.session, ev)
	if err != nil {
		return g.viewLocked(s.lives()), err
	}
	g.state, g.session = next, session
	if newEpoch {
		g.epoch++
		g.fetching = false
		g.lastAnswer = nil
	}
	if next != game.Playing {
		s.log.Info("game state changed", zap.String("game_id", g.id), zap.String("state", string(next)), zap.Int("score", session.Score))
	}
	g.lastError = ""
	g.touchLocked()
	s.maybePrefetchLocked(g)
	return g.broadcastLocked(s.lives()), nil
}

// Sync re-evaluates the prefetch policy for a game and returns its view.
// Presentation layers call it whenever they render.
func (s *GameService) Sync(_ context.Context, gameID string) (View, bool, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return View{}, false, domain.ErrGameNotFound
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	triggered := s.maybePrefetchLocked(g)
	return g.viewLocked(s.lives()), triggered, nil
}

// View returns the current snapshot of a game.
func (s *GameService) View(gameID string) (View, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return View{}, domain.ErrGameNotFound
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked(s.lives()), nil
}

// Subscribe returns a channel that receives view updates for a game.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, gameID string) (<-chan View, func(), error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return nil, nil, domain.ErrGameNotFound
	}
	ch, cancel, ok := g.subscribe(s.lives())
	if !ok {
		return nil, nil, domain.ErrGameNotFound
	}
	return ch, cancel, nil
}

// Close detaches one connection. The last Close drops the game; pending
// fetches for it are discarded when they resolve.
func (s *GameService) Close(_ context.Context, gameID string) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if g.conns > 0 {
		g.conns--
	}
	if g.conns > 0 {
		return
	}
	g.closed = true
	g.epoch++
	g.fetching = false
	g.closeSubscribersLocked()
	// Removed under the game lock so Open never attaches to a closed game still in the repository.
	s.games.Delete(gameID)
	s.log.Debug("game closed", zap.String("game_id", gameID))
}

// Wait blocks until every background fetch has resolved.
func (s *GameService) Wait() {
	s.wg.Wait()
}

// maybePrefetchLocked checks and sets the in-flight flag under the game lock.
func (s *GameService) maybePrefetchLocked(g *Game) bool {
	if !s.machine.Policy.ShouldPrefetch(g.state, g.session, g.fetching) {
		return false
	}
	g.fetching = true
	req := s.machine.Policy.Request(g.session)
	epoch := g.epoch

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.prefetch(g, epoch, req)
	}()
	return true
}

func (s *GameService) prefetch(g *Game, epoch uint64, req domain.GenerationRequest) {
	log := s.log.With(zap.String("game_id", g.id), zap.String("difficulty", string(req.Difficulty)))
	log.Debug("prefetching questions", zap.Int("count", req.Count), zap.Int("excluded", len(req.ExcludeTexts)))

	questions, err := s.generate(context.Background(), req)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epoch != epoch {
		log.Debug("discarding prefetch for a replaced session")
		return
	}
	g.fetching = false
	if err != nil {
		// Swallowed: play continues on the buffer and the next qualifying action retries.
		log.Warn("background question fetch failed", zap.Error(err))
		g.broadcastLocked(s.lives())
		return
	}

	next, session, _, err := s.machine.Step(g.state, g.session, game.Prefetched{Questions: questions})
	if err != nil {
		log.Warn("could not apply prefetched questions", zap.Error(err))
		g.broadcastLocked(s.lives())
		return
	}
	g.state, g.session = next, session
	g.touchLocked()
	log.Debug("prefetched questions appended", zap.Int("buffered", len(g.session.Questions)))
	s.maybePrefetchLocked(g)
	g.broadcastLocked(s.lives())
}

// generate calls the source and folds every failure into ErrGenerationFailed.
func (s *GameService) generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	if err := req.Validate(); err != nil {
		return nil, domain.GenerationFailed(err)
	}
	questions, err := s.source.Generate(ctx, req)
	if err != nil {
		return nil, domain.GenerationFailed(err)
	}
	if err := domain.ValidateBatch(req, questions); err != nil {
		return nil, domain.GenerationFailed(err)
	}
	return questions, nil
}

func (s *GameService) lives() int {
	return s.machine.Rules.InitialLives
}
