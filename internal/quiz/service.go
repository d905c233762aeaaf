// backend/internal/quiz/service.go
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"elephant-quiz/internal/models"
	"elephant-quiz/pkg/report"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRecordNotFound  = errors.New("play record not found")
)

const (
	historyLimit = 20

	// finishedTTL is how long a finished session stays readable before it
	// is evicted.
	finishedTTL = 30 * time.Minute
)

// RemovedQuestionText stands in for a played question no longer in the bank.
const RemovedQuestionText = "Question no longer available"

// Store is the persistence the service needs; *Repository satisfies it.
type Store interface {
	GetQuestions() ([]models.Question, error)
	CountQuestions() (int64, error)
	GetQuestionsByIDs(ids []uint) ([]models.Question, error)
	SaveRecord(record *models.PlayRecord) error
	GetRecordsByUser(userID uint, limit int) ([]models.PlayRecord, error)
	GetRecord(id uint) (*models.PlayRecord, error)
	GetBestScores(limit int) ([]models.LeaderboardEntry, error)
}

// Cache is the shared cache; *cache.RedisCache satisfies it.
type Cache interface {
	GetBank(ctx context.Context) ([]models.Question, error)
	SetBank(ctx context.Context, questions []models.Question) error
	RecordScore(ctx context.Context, username string, score int) error
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Notifier pushes session events to connected clients; *websocket.Hub satisfies it.
type Notifier interface {
	BroadcastMessage(sessionID string, messageType string, data interface{})
}

type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithSeed makes every session draw from rand sources seeded by seed.
func WithSeed(seed func() int64) Option {
	return func(s *Service) { s.seed = seed }
}

type Service struct {
	store    Store
	cache    Cache
	notifier Notifier
	config   Config
	clock    Clock
	seed     func() int64

	mu       sync.Mutex
	sessions map[string]*activeSession
	byUser   map[uint]string
	previous map[uint][]models.Question
}

type activeSession struct {
	id        string
	userID    uint
	username  string
	startedAt time.Time
	runner    *Runner

	mu         sync.Mutex
	recordID   uint
	final      *Session
	finishedAt time.Time
}

func (a *activeSession) attach(r *Runner) {
	a.mu.Lock()
	a.runner = r
	retired := a.final != nil
	a.mu.Unlock()
	if retired {
		go r.Stop()
	}
}

// retire keeps the finished state and releases the runner. It is called from
// the runner's own loop, which Stop waits on, so the stop runs in the
// background.
func (a *activeSession) retire(session Session, at time.Time) {
	a.mu.Lock()
	a.final = &session
	a.finishedAt = at
	r := a.runner
	a.mu.Unlock()
	if r != nil {
		go r.Stop()
	}
}

func (a *activeSession) finalSession() (Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.final == nil {
		return Session{}, false
	}
	return *a.final, true
}

func (a *activeSession) expired(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.final != nil && now.Sub(a.finishedAt) > finishedTTL
}

func (a *activeSession) setRecordID(id uint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recordID = id
}

func (a *activeSession) getRecordID() uint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recordID
}

// NewService builds the service. cache and notifier may be nil.
func NewService(store Store, cache Cache, notifier Notifier, config Config, opts ...Option) *Service {
	s := &Service{
		store:    store,
		cache:    cache,
		notifier: notifier,
		config:   config,
		clock:    SystemClock{},
		seed:     func() int64 { return time.Now().UnixNano() },
		sessions: make(map[string]*activeSession),
		byUser:   make(map[uint]string),
		previous: make(map[uint][]models.Question),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) loadBank(ctx context.Context) ([]models.Question, error) {
	if s.cache != nil {
		questions, err := s.cache.GetBank(ctx)
		if err == nil && len(questions) > 0 {
			return questions, nil
		}
	}

	questions, err := s.store.GetQuestions()
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	if s.cache != nil && len(questions) > 0 {
		if err := s.cache.SetBank(ctx, questions); err != nil {
			log.Printf("Error caching question bank: %v", err)
		}
	}
	return questions, nil
}

// StartSession begins a new session for the user. Any session the user
// already has is discarded, and its question order is not repeated.
func (s *Service) StartSession(ctx context.Context, userID uint, username string) (models.SessionDTO, error) {
	bank, err := s.loadBank(ctx)
	if err != nil {
		return models.SessionDTO{}, err
	}

	s.mu.Lock()
	prev, replay := s.previous[userID]
	s.mu.Unlock()

	rng := rand.New(rand.NewSource(s.seed()))
	var session Session
	if replay {
		session, err = Replay(Session{Questions: prev}, bank, s.config, rng)
	} else {
		session, err = Start(bank, s.config, rng)
	}
	if err != nil {
		return models.SessionDTO{}, err
	}

	active := &activeSession{
		id:        uuid.New().String(),
		userID:    userID,
		username:  username,
		startedAt: s.clock.Now(),
	}
	active.attach(NewRunner(session, s.clock, s.config.TickInterval, &sessionObserver{service: s, active: active}))

	s.mu.Lock()
	s.evictLocked(s.clock.Now())
	old, hadOld := s.sessions[s.byUser[userID]]
	if hadOld {
		s.forgetLocked(old)
	}
	s.sessions[active.id] = active
	s.byUser[userID] = active.id
	s.previous[userID] = session.Questions
	s.mu.Unlock()

	if hadOld {
		old.runner.Stop()
	}
	log.Printf("User %d started session %s with %d questions", userID, active.id, len(session.Questions))
	return s.toDTO(active, session), nil
}

// forgetLocked drops active from the session maps. s.mu must be held; the
// caller stops the runner after releasing it.
func (s *Service) forgetLocked(active *activeSession) {
	delete(s.sessions, active.id)
	if s.byUser[active.userID] == active.id {
		delete(s.byUser, active.userID)
	}
}

// evictLocked drops finished sessions older than finishedTTL. Their runners
// are already stopped.
func (s *Service) evictLocked(now time.Time) {
	for _, active := range s.sessions {
		if active.expired(now) {
			s.forgetLocked(active)
		}
	}
}

// stopped returns the final state of a session whose runner has been retired.
func (s *Service) stopped(active *activeSession) (Session, error) {
	if final, ok := active.finalSession(); ok {
		return final, nil
	}
	return Session{}, ErrSessionNotFound
}

func (s *Service) lookup(userID uint, sessionID string) (*activeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.sessions[sessionID]
	if !ok || active.userID != userID {
		return nil, ErrSessionNotFound
	}
	return active, nil
}

// OwnsSession reports whether sessionID is a live session of userID.
func (s *Service) OwnsSession(userID uint, sessionID string) bool {
	_, err := s.lookup(userID, sessionID)
	return err == nil
}

// SubmitAnswer answers question index of the session. A negative index
// answers whichever question is current.
func (s *Service) SubmitAnswer(ctx context.Context, userID uint, sessionID string, index int, label models.OptionLabel) (models.SessionDTO, error) {
	active, err := s.lookup(userID, sessionID)
	if err != nil {
		return models.SessionDTO{}, err
	}

	var session Session
	if index < 0 {
		session, err = active.runner.Answer(label)
	} else {
		session, err = active.runner.AnswerAt(index, label)
	}
	if errors.Is(err, ErrRunnerStopped) {
		final, err := s.stopped(active)
		if err != nil {
			return models.SessionDTO{}, err
		}
		return s.toDTO(active, final), ErrNotPlaying
	}
	if err != nil {
		return s.toDTO(active, session), err
	}
	return s.toDTO(active, session), nil
}

func (s *Service) GetSession(ctx context.Context, userID uint, sessionID string) (models.SessionDTO, error) {
	active, err := s.lookup(userID, sessionID)
	if err != nil {
		return models.SessionDTO{}, err
	}
	session, err := active.runner.Snapshot()
	if errors.Is(err, ErrRunnerStopped) {
		session, err = s.stopped(active)
	}
	if err != nil {
		return models.SessionDTO{}, err
	}
	return s.toDTO(active, session), nil
}

// ResetSession returns a finished session to Idle and releases it.
func (s *Service) ResetSession(ctx context.Context, userID uint, sessionID string) (models.SessionDTO, error) {
	active, err := s.lookup(userID, sessionID)
	if err != nil {
		return models.SessionDTO{}, err
	}
	session, err := active.runner.Reset()
	if errors.Is(err, ErrRunnerStopped) {
		final, ferr := s.stopped(active)
		if ferr != nil {
			return models.SessionDTO{}, ferr
		}
		session, err = final.ResetToIdle()
	}
	if err != nil {
		return s.toDTO(active, session), err
	}

	s.mu.Lock()
	s.forgetLocked(active)
	s.mu.Unlock()
	active.runner.Stop()

	log.Printf("User %d reset session %s", userID, sessionID)
	return s.toDTO(active, session), nil
}

// Shutdown stops every live session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	live := make([]*activeSession, 0, len(s.sessions))
	for _, active := range s.sessions {
		live = append(live, active)
		s.forgetLocked(active)
	}
	s.mu.Unlock()
	for _, active := range live {
		active.runner.Stop()
	}
}

func (s *Service) CountQuestions() (int64, error) {
	return s.store.CountQuestions()
}

// GetLeaderboard reads the redis leaderboard, falling back to play records
// when redis fails or holds no scores.
func (s *Service) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if s.cache != nil {
		entries, err := s.cache.GetLeaderboard(ctx, limit)
		switch {
		case err != nil:
			log.Printf("Error reading cached leaderboard: %v", err)
		case len(entries) > 0:
			return entries, nil
		}
	}
	return s.store.GetBestScores(limit)
}

func (s *Service) GetHistory(ctx context.Context, userID uint) ([]models.PlayRecord, error) {
	return s.store.GetRecordsByUser(userID, historyLimit)
}

// Scorecard renders the PDF scorecard of one of the user's play records.
func (s *Service) Scorecard(ctx context.Context, userID uint, recordID uint) ([]byte, error) {
	card, err := s.scorecardCard(userID, recordID)
	if err != nil {
		return nil, err
	}
	return report.Scorecard(card)
}

// scorecardCard prints what was stored when the session finished. Questions
// are matched to answers by position; one removed from the bank since then
// is printed as RemovedQuestionText.
func (s *Service) scorecardCard(userID uint, recordID uint) (report.Card, error) {
	record, err := s.store.GetRecord(recordID)
	if err != nil || record.UserID != userID {
		return report.Card{}, ErrRecordNotFound
	}
	found, err := s.store.GetQuestionsByIDs(record.QuestionIDs)
	if err != nil {
		return report.Card{}, fmt.Errorf("load scorecard questions: %w", err)
	}
	byID := make(map[uint]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	questions := make([]models.Question, len(record.QuestionIDs))
	for i, id := range record.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			q = models.Question{ID: id, Text: RemovedQuestionText}
		}
		questions[i] = q
	}
	return report.Card{
		Player:     record.Username,
		FinishedAt: record.FinishedAt,
		Result:     record.Result(questions),
	}, nil
}

func (s *Service) toDTO(active *activeSession, session Session) models.SessionDTO {
	dto := models.SessionDTO{
		ID:            active.id,
		Status:        session.Status,
		Index:         session.CurrentIndex,
		Total:         len(session.Questions),
		Score:         session.Score,
		TimeRemaining: session.TimeRemaining,
	}
	if q, ok := session.Current(); ok {
		question := q.ToDTO()
		dto.Question = &question
	}
	if res, ok := session.Result(); ok {
		result := res.ToDTO()
		dto.Result = &result
	}
	dto.RecordID = active.getRecordID()
	return dto
}

func (s *Service) finish(active *activeSession, session Session) {
	res, ok := session.Result()
	if !ok {
		return
	}
	record := models.NewPlayRecord(active.id, active.userID, active.username, res, active.startedAt, s.clock.Now())
	if err := s.store.SaveRecord(record); err != nil {
		log.Printf("Error saving result of session %s: %v", active.id, err)
	} else {
		active.setRecordID(record.ID)
	}
	if s.cache != nil && active.username != "" {
		if err := s.cache.RecordScore(context.Background(), active.username, res.Score); err != nil {
			log.Printf("Error recording score for %s: %v", active.username, err)
		}
	}
}

func (s *Service) notify(sessionID, messageType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.BroadcastMessage(sessionID, messageType, data)
	}
}

// sessionObserver persists and pushes the events of one session.
type sessionObserver struct {
	service *Service
	active  *activeSession
}

func (o *sessionObserver) OnQuestion(session Session) {
	o.service.notify(o.active.id, "question", o.service.toDTO(o.active, session))
}

func (o *sessionObserver) OnTick(session Session) {
	o.service.notify(o.active.id, "tick", map[string]int{"time_remaining": session.TimeRemaining})
}

func (o *sessionObserver) OnFinished(session Session) {
	o.service.finish(o.active, session)
	o.service.notify(o.active.id, "finished", o.service.toDTO(o.active, session))
	o.active.retire(session, o.service.clock.Now())
}
