package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"moodcheck/internal/conversation"
	"moodcheck/internal/domain"
	"moodcheck/internal/metrics"
	"moodcheck/internal/predictor"
	"moodcheck/internal/repository"
)

const DefaultRevealDelay = 500 * time.Millisecond

var ErrSessionNotFound = domain.ErrSessionNotFound

// Scheduler ejecuta f despues de d y devuelve una funcion que lo cancela.
type Scheduler func(d time.Duration, f func()) (cancel func() bool)

func timeScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type Option func(*ConversationService)

func WithRevealDelay(d time.Duration) Option {
	return func(s *ConversationService) {
		if d >= 0 {
			s.revealDelay = d
		}
	}
}

// WithRevealHook registra un callback para las preguntas que aparecen tras la demora.
func WithRevealHook(fn func(domain.Session)) Option {
	return func(s *ConversationService) { s.onReveal = fn }
}

func WithScheduler(schedule Scheduler) Option {
	return func(s *ConversationService) {
		if schedule != nil {
			s.schedule = schedule
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ConversationService) {
		if now != nil {
			s.now = now
		}
	}
}

// ConversationService conduce las sesiones de screening: aplica las transiciones
// del paquete conversation, ejecuta sus efectos contra el predictor y persiste
// el resultado. Los eventos de una misma sesion se serializan.
type ConversationService struct {
	sessions    repository.SessionRepository
	predictor   predictor.Client
	logger      *zap.Logger
	revealDelay time.Duration
	onReveal    func(domain.Session)
	schedule    Scheduler
	now         func() time.Time

	locks keyedMutex

	mu      sync.Mutex
	pending map[string]func() bool
	closed  bool
}

func NewConversationService(sessions repository.SessionRepository, client predictor.Client, logger *zap.Logger, opts ...Option) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ConversationService{
		sessions:    sessions,
		predictor:   client,
		logger:      logger,
		revealDelay: DefaultRevealDelay,
		schedule:    timeScheduler,
		now:         func() time.Time { return time.Now().UTC() },
		pending:     make(map[string]func() bool),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *ConversationService) Create(ctx context.Context) (domain.Session, error) {
	session := domain.NewSession(uuid.NewString(), s.now())
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("session created", zap.String("session_id", session.ID))
	return session, nil
}

func (s *ConversationService) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.load(ctx, id)
}

// StartAnalysis pide la clasificacion de username. Un fallo de red queda
// registrado en la sesion, no se devuelve como error.
func (s *ConversationService) StartAnalysis(ctx context.Context, id, username string) (domain.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	next, effect := conversation.StartAnalysis(session, username, s.now())
	if effect != conversation.EffectRequestAnalysis {
		return session, nil
	}
	if err := s.save(ctx, next); err != nil {
		return domain.Session{}, err
	}

	start := time.Now()
	classification, err := s.predictor.Predict(ctx, next.Username)
	metrics.PredictorDuration.WithLabelValues("predict").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("analysis failed",
			zap.String("session_id", id),
			zap.String("username", next.Username),
			zap.Error(err),
		)
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeFailure, string(domain.ClassificationError)).Inc()
		next = conversation.AnalysisFailed(next, s.now())
	} else {
		s.logger.Info("analysis finished",
			zap.String("session_id", id),
			zap.String("classification", string(classification)),
		)
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeSuccess, string(classification)).Inc()
		next = conversation.AnalysisSucceeded(next, classification, s.now())
	}

	// La respuesta ya llego: se persiste aunque el llamador haya cancelado.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.save(saveCtx, next); err != nil {
		// Analyzing no admite reintentos: se vuelve a la sesion previa.
		s.restore(saveCtx, session, err)
		return domain.Session{}, err
	}
	return next, nil
}

// SubmitAnswer registra la respuesta a la pregunta pendiente. Tras la ultima
// respuesta envia el registro demografico antes de volver.
func (s *ConversationService) SubmitAnswer(ctx context.Context, id, text string) (domain.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	next, effect := conversation.SubmitAnswer(session, text, s.now())
	switch effect {
	case conversation.EffectScheduleReveal:
		if err := s.save(ctx, next); err != nil {
			return domain.Session{}, err
		}
		s.scheduleReveal(id)
		return next, nil
	case conversation.EffectSubmit:
		if err := s.save(ctx, next); err != nil {
			return domain.Session{}, err
		}
		return s.submit(ctx, next)
	default:
		return session, nil
	}
}

// RetrySubmission reenvia el registro demografico tras un envio fallido.
func (s *ConversationService) RetrySubmission(ctx context.Context, id string) (domain.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	next, effect := conversation.RetrySubmission(session, s.now())
	if effect != conversation.EffectSubmit {
		return session, nil
	}
	if err := s.save(ctx, next); err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("retrying submission", zap.String("session_id", id))
	return s.submit(ctx, next)
}

// Discard cancela la pregunta pendiente de mostrar y borra la sesion.
func (s *ConversationService) Discard(ctx context.Context, id string) error {
	s.cancelReveal(id)

	unlock := s.lock(id)
	err := s.sessions.Delete(ctx, id)
	unlock()

	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("session discarded", zap.String("session_id", id))
	return nil
}

// Close detiene todos los timers pendientes. Las sesiones quedan guardadas.
func (s *ConversationService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, cancel := range s.pending {
		cancel()
		delete(s.pending, id)
	}
}

// PendingReveals devuelve cuantos timers de preguntas hay programados.
func (s *ConversationService) PendingReveals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *ConversationService) submit(ctx context.Context, session domain.Session) (domain.Session, error) {
	start := time.Now()
	err := s.predictor.StoreDemographics(ctx, session.Record())
	metrics.PredictorDuration.WithLabelValues("store_demographics").Observe(time.Since(start).Seconds())
	metrics.SubmissionsTotal.WithLabelValues(metrics.Outcome(err)).Inc()

	var next domain.Session
	if err != nil {
		s.logger.Warn("submission failed", zap.String("session_id", session.ID), zap.Error(err))
		next = conversation.SubmissionFailed(session, s.now())
	} else {
		s.logger.Info("demographics stored", zap.String("session_id", session.ID))
		next = conversation.SubmissionSucceeded(session, s.now())
	}
	saveCtx := context.WithoutCancel(ctx)
	if err := s.save(saveCtx, next); err != nil {
		// Submitting no sale sola: se deja en Error con las respuestas para
		// que el usuario pueda reintentar.
		s.restore(saveCtx, conversation.SubmissionFailed(session, s.now()), err)
		return domain.Session{}, err
	}
	return next, nil
}

func (s *ConversationService) scheduleReveal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if cancel, ok := s.pending[id]; ok {
		cancel()
	}
	s.pending[id] = s.schedule(s.revealDelay, func() { s.reveal(id) })
}

func (s *ConversationService) cancelReveal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.pending[id]; ok {
		cancel()
		delete(s.pending, id)
	}
}

func (s *ConversationService) reveal(id string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.pending[id]; !ok {
		// cancelado entre el disparo del timer y este punto
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.mu.Unlock()

	unlock := s.lock(id)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Debug("reveal skipped", zap.String("session_id", id), zap.Error(err))
			return
		}
		s.logger.Warn("reveal not loaded, rescheduling", zap.String("session_id", id), zap.Error(err))
		s.scheduleReveal(id)
		return
	}
	next, ok := conversation.RevealNextQuestion(session, s.now())
	if !ok {
		return
	}
	if err := s.save(ctx, next); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return
		}
		// sin reintento la sesion quedaria en Revealing ignorando respuestas
		s.logger.Warn("reveal not persisted, rescheduling", zap.String("session_id", id), zap.Error(err))
		s.scheduleReveal(id)
		return
	}
	if s.onReveal != nil {
		s.onReveal(next.Clone())
	}
}

func (s *ConversationService) lock(id string) func() {
	return s.locks.lock(id)
}

// restore guarda fallback despues de que fallo el guardado de un estado en curso.
func (s *ConversationService) restore(ctx context.Context, fallback domain.Session, cause error) {
	if errors.Is(cause, domain.ErrSessionNotFound) {
		return
	}
	if err := s.save(ctx, fallback); err != nil {
		s.logger.Error("session fallback not persisted",
			zap.String("session_id", fallback.ID),
			zap.String("state", string(fallback.State)),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("session restored after failed save",
		zap.String("session_id", fallback.ID),
		zap.String("state", string(fallback.State)),
		zap.Error(cause),
	)
}

func (s *ConversationService) load(ctx context.Context, id string) (domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

func (s *ConversationService) save(ctx context.Context, session domain.Session) error {
	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
