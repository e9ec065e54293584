package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voicecv-core/server/internal/agent/events"
	"github.com/voicecv-core/server/internal/agent/graph/observers"
	"github.com/voicecv-core/server/internal/agent/model"
	"github.com/voicecv-core/server/internal/agent/transcribe"
	errx "github.com/voicecv-core/server/internal/core/error"
	logx "github.com/voicecv-core/server/pkg/logger"
)

const tracerName = "github.com/voicecv-core/server/internal/agent/graph"

type ServiceConfig struct {
	Runnable    compose.Runnable[model.TurnInput, model.TurnResult]
	Repo        model.SessionRepository
	Transcriber transcribe.Transcriber
	Publisher   events.Publisher
	// Refiner polishes the record once the user asks for the CV; nil disables refinement.
	Refiner *Refiner
	// Timeout bounds the model call of one turn; zero leaves only the caller's deadline.
	Timeout time.Duration
}

// Service runs dialogue turns against stored sessions.
type Service struct {
	runnable    compose.Runnable[model.TurnInput, model.TurnResult]
	repo        model.SessionRepository
	transcriber transcribe.Transcriber
	publisher   events.Publisher
	refiner     *Refiner
	timeout     time.Duration
	locks       *sessionLocks
	tracer      trace.Tracer
	now         func() time.Time
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Runnable == nil {
		return nil, fmt.Errorf("turn graph is nil")
	}
	if cfg.Repo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		runnable:    cfg.Runnable,
		repo:        cfg.Repo,
		transcriber: cfg.Transcriber,
		publisher:   publisher,
		refiner:     cfg.Refiner,
		timeout:     cfg.Timeout,
		locks:       newSessionLocks(),
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}, nil
}

func (s *Service) CreateSession(ctx context.Context) (*model.Session, error) {
	session, err := s.repo.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logx.Info().Str("session_id", session.ID).Msg("session created")
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return session, nil
}

// HandleTurn runs one dialogue turn. It never panics and never returns a Go
// error: failures come back as a response with Error set, and in that case
// nothing is persisted.
func (s *Service) HandleTurn(ctx context.Context, sessionID, userText string) (resp model.TurnResponse) {
	ctx, span := s.tracer.Start(ctx, "cv.turn", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("session_id", sessionID).Msgf("panic recovered in turn: %v", r)
			span.SetStatus(codes.Error, "panic")
			resp = model.ErrorResponse(errx.SystemErrorMessage)
		}
	}()

	if strings.TrimSpace(userText) == "" {
		return s.fail(span, sessionID, errx.ErrEmptyInput)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return s.fail(span, sessionID, err)
	}

	result, err := s.run(ctx, session, userText)
	if err != nil {
		return s.fail(span, sessionID, errx.WrapModel(err))
	}

	wasComplete := session.IsComplete
	updated := session.Clone()
	updated.AppendTurn(model.OriginUser, userText)
	updated.AppendTurn(model.OriginAgent, result.AgentText)
	updated.CV = result.CV
	updated.IsComplete = result.Complete
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, updated); err != nil {
		return s.fail(span, sessionID, err)
	}

	span.SetAttributes(
		attribute.String("turn.action", string(result.NextAction)),
		attribute.Bool("turn.complete", result.Complete),
		attribute.Bool("turn.parsed", result.Parsed),
	)
	logx.Info().
		Str("session_id", sessionID).
		Str("next_action", string(result.NextAction)).
		Bool("complete", result.Complete).
		Int("turns", len(updated.Turns)).
		Msg("turn handled")

	if result.Complete && !wasComplete {
		s.publishCompleted(ctx, updated)
	}

	var note string
	if result.Generate && s.refiner != nil {
		note = s.refine(ctx, updated)
	}

	record := updated.CV.Clone()
	return model.TurnResponse{
		AgentText:  result.AgentText,
		CV:         &record,
		NextAction: result.NextAction,
		Note:       note,
	}
}

// Refine polishes the stored record of a session and persists it with
// meta.refined set. A failed model call is not an error: the record stays
// as collected and the response carries a note.
func (s *Service) Refine(ctx context.Context, sessionID string) (resp model.TurnResponse) {
	ctx, span := s.tracer.Start(ctx, "cv.refine_request", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("session_id", sessionID).Msgf("panic recovered in refine: %v", r)
			span.SetStatus(codes.Error, "panic")
			resp = model.ErrorResponse(errx.SystemErrorMessage)
		}
	}()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return s.fail(span, sessionID, err)
	}
	if strings.TrimSpace(session.CV.PersonalInfo.Name) == "" {
		return s.fail(span, sessionID, errx.ErrIncompleteCV)
	}

	note := MsgRefineSkipped
	if s.refiner != nil {
		note = s.refine(ctx, session)
	}
	record := session.CV.Clone()
	return model.TurnResponse{
		CV:         &record,
		NextAction: model.ActionComplete,
		Note:       note,
	}
}

// refine runs the refiner on session and saves the result. The caller holds
// the session lock. It returns a note for the user, empty on success.
func (s *Service) refine(ctx context.Context, session *model.Session) string {
	ctx, span := s.tracer.Start(ctx, "cv.refine", trace.WithAttributes(attribute.String("session.id", session.ID)))
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	refined, err := s.refiner.Refine(ctx, session.CV)
	if err != nil {
		span.RecordError(err)
		logx.Warn().Err(err).Str("session_id", session.ID).Msg("cv refinement failed")
		return MsgRefineSkipped
	}

	updated := session.Clone()
	updated.CV = refined
	updated.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, updated); err != nil {
		span.RecordError(err)
		logx.Warn().Err(err).Str("session_id", session.ID).Msg("failed to save refined cv")
		return MsgRefineSkipped
	}
	*session = *updated
	span.SetAttributes(attribute.Bool("cv.refined", true))
	logx.Info().Str("session_id", session.ID).Msg("cv refined")
	return ""
}

// HandleVoiceTurn transcribes audio and runs it as a text turn.
func (s *Service) HandleVoiceTurn(ctx context.Context, sessionID string, audio []byte, mimeType string) model.TurnResponse {
	if s.transcriber == nil {
		logx.Error().Str("session_id", sessionID).Msg("voice turn without a transcriber")
		return model.ErrorResponse(errx.TranscriptionErrorMessage)
	}

	ctx, span := s.tracer.Start(ctx, "cv.transcribe", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("audio.bytes", len(audio)),
	))
	text, err := s.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		resp := s.fail(span, sessionID, errx.WrapTranscription(err))
		span.End()
		return resp
	}
	span.End()

	resp := s.HandleTurn(ctx, sessionID, text)
	resp.Transcript = text
	return resp
}

func (s *Service) run(ctx context.Context, session *model.Session, userText string) (model.TurnResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.runnable.Invoke(ctx, model.TurnInput{
		Session:  session.Clone(),
		UserText: userText,
	}, compose.WithCallbacks(observers.NewAllCallbacks()...))
}

func (s *Service) publishCompleted(ctx context.Context, session *model.Session) {
	event := events.NewCompletedEvent(session, s.now())
	if err := s.publisher.PublishCompleted(ctx, event); err != nil {
		logx.Error().Err(err).Str("session_id", session.ID).Msg("failed to publish completion event")
		return
	}
	logx.Info().Str("session_id", session.ID).Msg("completion event published")
}

func (s *Service) fail(span trace.Span, sessionID string, err error) model.TurnResponse {
	span.RecordError(err)
	span.SetStatus(codes.Error, errx.MessageOf(err))
	logx.Error().Err(err).Str("session_id", sessionID).Int("status", errx.StatusOf(err)).Msg("turn failed")
	return model.ErrorResponse(errx.MessageOf(err))
}
