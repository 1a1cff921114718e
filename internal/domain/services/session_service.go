package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ak/griddle/internal/domain/models"
	"github.com/ak/griddle/internal/domain/repositories"
	"github.com/ak/griddle/internal/pkg/errors"
	"github.com/ak/griddle/internal/pkg/timer"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock is the stopwatch a cook session runs on. Satisfied by timer.Timer;
// tests substitute a manual clock.
type Clock interface {
	Start(onTick timer.TickFunc)
	Pause()
	Reset()
	ElapsedSeconds() int
}

// SessionStatus is a point-in-time view of a cook session, including the
// doneness stage for the side currently on the pan.
type SessionStatus struct {
	models.CookSession
	ElapsedSeconds int                 `json:"elapsed_seconds"`
	Stage          models.PancakeStage `json:"stage"`
}

// RateResult is returned when a session is rated: the history record that
// was written and the recommendation after the engine folded it in.
type RateResult struct {
	Record         *models.HistoryRecord  `json:"record"`
	Recommendation *models.Recommendation `json:"recommendation"`
}

// SessionService drives cook sessions through
// ready -> first_side -> flip -> second_side -> done -> rated.
//
// All operations are serialized on one mutex, so phase transitions never
// race. Engine writes are serialized per recipe by the engine itself.
type SessionService interface {
	Start(ctx context.Context, recipeID primitive.ObjectID, temperature int) (*SessionStatus, error)
	Get(ctx context.Context, id string) (*SessionStatus, error)
	Flip(ctx context.Context, id string) (*SessionStatus, error)
	Finish(ctx context.Context, id string) (*SessionStatus, error)
	Rate(ctx context.Context, id string, rating models.Rating) (*RateResult, error)
	Cancel(ctx context.Context, id string) error
}

type cookSession struct {
	models.CookSession
	clock Clock
}

type sessionService struct {
	mu         sync.Mutex
	sessions   map[string]*cookSession
	recipeRepo repositories.RecipeRepository
	engine     EngineService
	history    HistoryService
	newClock   func() Clock
	maxActive  int
}

// NewSessionService creates a new session service. newClock supplies the
// stopwatch per session; nil uses the real timer. maxActive <= 0 means
// unlimited.
func NewSessionService(
	recipeRepo repositories.RecipeRepository,
	engine EngineService,
	history HistoryService,
	newClock func() Clock,
	maxActive int,
) SessionService {
	if newClock == nil {
		newClock = func() Clock { return timer.New(timer.DefaultTickInterval) }
	}
	return &sessionService{
		sessions:   make(map[string]*cookSession),
		recipeRepo: recipeRepo,
		engine:     engine,
		history:    history,
		newClock:   newClock,
		maxActive:  maxActive,
	}
}

// Start opens a session for the recipe at the given dial position and
// begins timing the first side.
func (s *sessionService) Start(ctx context.Context, recipeID primitive.ObjectID, temperature int) (*SessionStatus, error) {
	if !models.ValidTemperature(temperature) {
		return nil, errors.InvalidInput(fmt.Sprintf("temperature must be between %d and %d", models.MinTemperature, models.MaxTemperature))
	}

	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, errors.NotFound("recipe")
	}

	recommended, err := s.engine.GetRecommendation(ctx, recipeID, temperature)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxActive > 0 && len(s.sessions) >= s.maxActive {
		return nil, errors.ConstraintViolation("too many active cook sessions")
	}

	session := &cookSession{
		CookSession: models.CookSession{
			ID:          uuid.NewString(),
			RecipeID:    recipeID,
			Temperature: temperature,
			Phase:       models.PhaseFirstSide,
			Recommended: recommended,
			StartedAt:   time.Now(),
		},
		clock: s.newClock(),
	}
	session.clock.Start(nil)
	s.sessions[session.ID] = session

	return s.statusLocked(session), nil
}

func (s *sessionService) Get(_ context.Context, id string) (*SessionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("cook session")
	}
	return s.statusLocked(session), nil
}

// Flip ends the first side, freezing its time, and starts timing the
// second side.
func (s *sessionService) Flip(_ context.Context, id string) (*SessionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("cook session")
	}
	if session.Phase != models.PhaseFirstSide {
		return nil, errors.ConstraintViolation(fmt.Sprintf("cannot flip in phase %q", session.Phase))
	}

	session.Phase = models.PhaseFlip
	session.FirstSideTime = session.clock.ElapsedSeconds()
	session.clock.Reset()

	session.Phase = models.PhaseSecondSide
	session.clock.Start(nil)

	return s.statusLocked(session), nil
}

// Finish ends the second side and stops the clock; the session waits for a
// rating.
func (s *sessionService) Finish(_ context.Context, id string) (*SessionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("cook session")
	}
	if session.Phase != models.PhaseSecondSide {
		return nil, errors.ConstraintViolation(fmt.Sprintf("cannot finish in phase %q", session.Phase))
	}

	session.SecondSideTime = session.clock.ElapsedSeconds()
	session.clock.Pause()
	session.Phase = models.PhaseDone

	return s.statusLocked(session), nil
}

// Rate writes the history record, feeds the observation to the engine, and
// retires the session. The session is only discarded once both writes
// succeed, so a failed rating can be retried.
func (s *sessionService) Rate(ctx context.Context, id string, rating models.Rating) (*RateResult, error) {
	if !rating.Valid() {
		return nil, errors.InvalidInput("rating must be one of bad, mid, good")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("cook session")
	}
	if session.Phase != models.PhaseDone {
		return nil, errors.ConstraintViolation(fmt.Sprintf("cannot rate in phase %q", session.Phase))
	}

	record, err := s.history.Record(ctx, RecordCookRequest{
		RecipeID:       session.RecipeID,
		Temperature:    session.Temperature,
		FirstSideTime:  session.FirstSideTime,
		SecondSideTime: session.SecondSideTime,
		Rating:         rating,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.engine.UpdateRecommendation(ctx,
		session.RecipeID, session.Temperature,
		session.FirstSideTime, session.SecondSideTime, rating)
	if err != nil {
		return nil, err
	}

	session.Phase = models.PhaseRated
	delete(s.sessions, id)

	return &RateResult{Record: record, Recommendation: updated}, nil
}

// Cancel discards a session without recording anything.
func (s *sessionService) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return errors.NotFound("cook session")
	}
	session.clock.Pause()
	delete(s.sessions, id)
	return nil
}

// statusLocked snapshots a session. Caller holds s.mu.
func (s *sessionService) statusLocked(session *cookSession) *SessionStatus {
	elapsed := session.clock.ElapsedSeconds()

	recommended := 0
	if session.Recommended != nil {
		switch session.Phase {
		case models.PhaseSecondSide, models.PhaseDone:
			recommended = session.Recommended.SecondSideTime
		default:
			recommended = session.Recommended.FirstSideTime
		}
	}

	stage := models.StageRaw
	if session.Phase != models.PhaseReady {
		stage = s.engine.PancakeStage(elapsed, recommended)
	}

	return &SessionStatus{
		CookSession:    session.CookSession,
		ElapsedSeconds: elapsed,
		Stage:          stage,
	}
}
