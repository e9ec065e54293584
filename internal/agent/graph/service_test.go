package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/voicecv-core/server/internal/agent/cv"
	"github.com/voicecv-core/server/internal/agent/events"
	"github.com/voicecv-core/server/internal/agent/graph/conversations"
	"github.com/voicecv-core/server/internal/agent/graph/nodes"
	"github.com/voicecv-core/server/internal/agent/intents"
	"github.com/voicecv-core/server/internal/agent/model"
	"github.com/voicecv-core/server/internal/agent/policy"
	"github.com/voicecv-core/server/internal/agent/repo"
	"github.com/voicecv-core/server/internal/agent/validators"
	errx "github.com/voicecv-core/server/internal/core/error"
)

// scriptedModel replays canned replies; the last one repeats.
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	inputs  [][]*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	idx := len(m.inputs) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: m.replies[idx],
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		},
	}, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CompletedEvent
}

func (p *recordingPublisher) PublishCompleted(ctx context.Context, event events.CompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f.text, f.err
}

type fixture struct {
	service   *Service
	repo      *repo.MemorySessionRepository
	model     *scriptedModel
	publisher *recordingPublisher
}

func newFixture(t *testing.T, cm *scriptedModel, transcriber *fakeTranscriber) *fixture {
	t.Helper()
	ctx := context.Background()

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      &nodes.ChatModels{CV: cm, CVModelName: "gemini-2.5-flash"},
		MessagesManager: conversations.NewMessagesManager(model.ConversationConfig{}, nil),
		Reconciler:      nodes.NewReconciler(cv.NewNormalizer(validators.New("IN")), intents.Default()),
	})
	require.NoError(t, err)

	f := &fixture{repo: repo.NewMemorySessionRepository(), model: cm, publisher: &recordingPublisher{}}
	cfg := ServiceConfig{Runnable: runnable, Repo: f.repo, Publisher: f.publisher}
	if transcriber != nil {
		cfg.Transcriber = transcriber
	}
	f.service, err = NewService(cfg)
	require.NoError(t, err)
	return f
}

func completeCV() model.CVRecord {
	record := model.EmptyCV()
	record.PersonalInfo = model.PersonalInfo{Name: "Asha Rao", Email: "asha@x.io", Phone: "+91 98765 43210", Address: "Pune"}
	record.Education = []model.Education{{Degree: "Diploma", Institute: "GP Pune", StartYear: "2015", EndYear: "2018"}}
	record.Experience = []model.Experience{{Company: "Tata", Role: "Fitter", StartDate: "2018", EndDate: "2022", Description: "Maintained lathes"}}
	record.Skills = model.FlatSkills("Welding")
	record.Projects = []model.Project{{ProjectName: "Pump", Description: "Solar pump"}}
	record.Certifications = []model.Certification{{Name: "ITI"}}
	record.Meta.ProjectsConfirmed = true
	return record
}

func TestHandleTurnExtractsAndPersists(t *testing.T) {
	cm := &scriptedModel{replies: []string{
		"```json\n" + `{"agent_text":"Thanks Ravi! What is your email address?","cv_json":{"personal_info":{"name":"ravi kumar","phone":"9876543210"}},"next_action":"ask","language":"en"}` + "\n```",
	}}
	f := newFixture(t, cm, nil)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	resp := f.service.HandleTurn(ctx, session.ID, "My name is Ravi Kumar, phone 9876543210")
	require.False(t, resp.Failed(), resp.Error)

	assert.Equal(t, "Thanks Ravi! What is your email address?", resp.AgentText)
	assert.Equal(t, model.ActionAsk, resp.NextAction)
	require.NotNil(t, resp.CV)
	assert.Equal(t, "Ravi Kumar", resp.CV.PersonalInfo.Name)
	assert.Equal(t, "+91 98765 43210", resp.CV.PersonalInfo.Phone)

	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, stored.Turns, 2)
	assert.Equal(t, model.OriginUser, stored.Turns[0].From)
	assert.Equal(t, model.OriginAgent, stored.Turns[1].From)
	assert.Equal(t, "Ravi Kumar", stored.CV.PersonalInfo.Name)
	assert.EqualValues(t, 2, stored.Version)
	assert.False(t, stored.IsComplete)
}

func TestHandleTurnSendsHistoryAndInstruction(t *testing.T) {
	cm := &scriptedModel{replies: []string{`{"agent_text":"What is your email address?","cv_json":{},"next_action":"ask"}`}}
	f := newFixture(t, cm, nil)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	require.False(t, f.service.HandleTurn(ctx, session.ID, "hello").Failed())
	require.False(t, f.service.HandleTurn(ctx, session.ID, "I am Asha").Failed())

	require.Equal(t, 2, cm.calls())
	second := cm.inputs[1]
	require.Len(t, second, 4)
	assert.Equal(t, schema.System, second[0].Role)
	assert.Equal(t, schema.User, second[1].Role)
	assert.Equal(t, "hello", second[1].Content)
	assert.Equal(t, schema.Assistant, second[2].Role)
	assert.Equal(t, schema.User, second[3].Role)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(second[3].Content), "Latest user input: I am Asha"))
}

func TestHandleTurnAddsSecondEducationEntry(t *testing.T) {
	cm := &scriptedModel{replies: []string{
		`{"agent_text":"Which year did you start the Diploma?","cv_json":{"education":[` +
			`{"degree":"SSLC","institute":"GHS"},{"degree":"Diploma","institute":"GP"}]},"next_action":"ask"}`,
	}}
	f := newFixture(t, cm, nil)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	session.CV.Education = []model.Education{{Degree: "SSLC", Institute: "GHS", StartYear: "2010", EndYear: "2012"}}
	require.NoError(t, f.repo.Save(ctx, session))

	resp := f.service.HandleTurn(ctx, session.ID, "I also did a Diploma at GP")
	require.False(t, resp.Failed(), resp.Error)

	instruction := cm.inputs[0][len(cm.inputs[0])-1].Content
	assert.Contains(t, instruction, `"degree":"SSLC","institute":"GHS"`)

	require.Len(t, resp.CV.Education, 2)
	assert.Equal(t, model.Education{Degree: "SSLC", Institute: "GHS", StartYear: "2010", EndYear: "2012"}, resp.CV.Education[0])
	assert.Equal(t, "Diploma", resp.CV.Education[1].Degree)
	assert.Equal(t, "GP", resp.CV.Education[1].Institute)
}

func TestHandleTurnUnstructuredReply(t *testing.T) {
	cm := &scriptedModel{replies: []string{"Sure, tell me more!"}}
	f := newFixture(t, cm, nil)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	resp := f.service.HandleTurn(ctx, session.ID, "What is a CV?")
	require.False(t, resp.Failed())
	assert.Equal(t, "Sure, tell me more!", resp.AgentText)
	assert.Equal(t, model.ActionAnswer, resp.NextAction)
	assert.Equal(t, model.EmptyCV(), *resp.CV)

	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Turns, 2)
}

func TestHandleTurnModelFailurePersistsNothing(t *testing.T) {
	cm := &scriptedModel{err: errors.New("connection reset")}
	f := newFixture(t, cm, nil)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	resp := f.service.HandleTurn(ctx, session.ID, "My name is Ravi")
	assert.True(t, resp.Failed())
	assert.Equal(t, errx.ModelErrorMessage, resp.Error)
	assert.Nil(t, resp.CV)

	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Turns)
	assert.EqualValues(t, 1, stored.Version)
}

func TestHandleTurnRejectsEmptyInput(t *testing.T) {
	cm := &scriptedModel{replies: []string{"unused"}}
	f := newFixture(t, cm, nil)

	resp := f.service.HandleTurn(context.Background(), "any", "   ")
	assert.Equal(t, errx.ErrEmptyInput.Error(), resp.Error)
	assert.Zero(t, cm.calls())
}

func TestHandleTurnUnknownSession(t *testing.T) {
	cm := &scriptedModel{replies: []string{"unused"}}
	f := newFixture(t, cm, nil)

	resp := f.service.HandleTurn(context.Background(), "missing", "hi")
	assert.Equal(t, errx.ErrSessionNotFound.Error(), resp.Error)
	assert.Zero(t, cm.calls())
}

func TestHandleTurnPublishesFirstCompletionOnly(t *testing.T) {
	cm := &scriptedModel{replies: []string{`{"agent_text":"Okay.","cv_json":{},"next_action":"ask"}`}}
	f := newFixture(t, cm, nil)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	session.CV = completeCV()
	session.CV.Certifications = []model.Certification{}
	session.AppendTurn(model.OriginAgent, policy.AskCertifications)
	require.NoError(t, f.repo.Save(ctx, session))

	resp := f.service.HandleTurn(ctx, session.ID, "No")
	require.False(t, resp.Failed())
	assert.Equal(t, nodes.MsgReadyToGenerate, resp.AgentText)
	assert.Equal(t, model.ActionComplete, resp.NextAction)
	assert.True(t, resp.CV.Meta.SkipCertifications)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, session.ID, f.publisher.events[0].SessionID)
	assert.Equal(t, events.EventCompleted, f.publisher.events[0].Type)

	resp = f.service.HandleTurn(ctx, session.ID, "yes")
	require.False(t, resp.Failed())
	assert.Equal(t, nodes.MsgGenerating, resp.AgentText)
	assert.Len(t, f.publisher.events, 1)

	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsComplete)
}

func TestHandleVoiceTurn(t *testing.T) {
	cm := &scriptedModel{replies: []string{`{"agent_text":"What is your email address?","cv_json":{"personal_info":{"name":"Ravi Kumar"}},"next_action":"ask"}`}}
	f := newFixture(t, cm, &fakeTranscriber{text: "Mera naam Ravi Kumar hai"})
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	resp := f.service.HandleVoiceTurn(ctx, session.ID, []byte{1, 2, 3}, "audio/ogg")
	require.False(t, resp.Failed(), resp.Error)
	assert.Equal(t, "Mera naam Ravi Kumar hai", resp.Transcript)
	assert.Equal(t, "Ravi Kumar", resp.CV.PersonalInfo.Name)

	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mera naam Ravi Kumar hai", stored.Turns[0].Text)
}

func TestHandleVoiceTurnTranscriptionFailure(t *testing.T) {
	cm := &scriptedModel{replies: []string{"unused"}}
	f := newFixture(t, cm, &fakeTranscriber{err: errors.New("unsupported audio")})
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	resp := f.service.HandleVoiceTurn(ctx, session.ID, []byte{1}, "audio/ogg")
	assert.Equal(t, errx.TranscriptionErrorMessage, resp.Error)
	assert.Zero(t, cm.calls())
}

func TestHandleVoiceTurnWithoutTranscriber(t *testing.T) {
	f := newFixture(t, &scriptedModel{replies: []string{"unused"}}, nil)

	resp := f.service.HandleVoiceTurn(context.Background(), "s1", []byte{1}, "audio/ogg")
	assert.Equal(t, errx.TranscriptionErrorMessage, resp.Error)
}

func TestHandleTurnConcurrentTurnsAreSerialized(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cm := &scriptedModel{replies: []string{`{"agent_text":"Noted.","cv_json":{},"next_action":"ask"}`}}
	f := newFixture(t, cm, nil)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	responses := make([]model.TurnResponse, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = f.service.HandleTurn(ctx, session.ID, "hello")
		}(i)
	}
	wg.Wait()

	for _, resp := range responses {
		assert.False(t, resp.Failed(), resp.Error)
	}
	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Turns, 2*n)
	assert.EqualValues(t, 1+n, stored.Version)
	assert.Zero(t, f.service.locks.size())
}

func TestBuildGraphValidatesConfig(t *testing.T) {
	ctx := context.Background()
	_, err := BuildGraph(ctx, nil)
	assert.Error(t, err)

	_, err = BuildGraph(ctx, &GraphConfig{ChatModels: &nodes.ChatModels{}})
	assert.Error(t, err)

	_, err = NewService(ServiceConfig{})
	assert.Error(t, err)
}

func withRefiner(t *testing.T, f *fixture) {
	t.Helper()
	refiner, err := NewRefiner(f.model, "gemini-2.5-flash", cv.NewNormalizer(validators.New("IN")))
	require.NoError(t, err)
	f.service.refiner = refiner
}

func seedSession(t *testing.T, f *fixture, record model.CVRecord, lastAgent string) *model.Session {
	t.Helper()
	ctx := context.Background()
	session, err := f.service.CreateSession(ctx)
	require.NoError(t, err)
	session.CV = record
	if lastAgent != "" {
		session.AppendTurn(model.OriginAgent, lastAgent)
	}
	require.NoError(t, f.repo.Save(ctx, session))
	return session
}

const refinedReply = `{"cv_json":{"summary":"Fitter with four years of lathe maintenance.",` +
	`"experience":[{"description":"Maintained and repaired lathes on the shop floor."}]}}`

func TestRefinePersistsRefinedRecord(t *testing.T) {
	cm := &scriptedModel{replies: []string{refinedReply}}
	f := newFixture(t, cm, nil)
	withRefiner(t, f)
	ctx := context.Background()
	session := seedSession(t, f, completeCV(), "")

	resp := f.service.Refine(ctx, session.ID)
	require.False(t, resp.Failed(), resp.Error)
	assert.Empty(t, resp.Note)
	require.NotNil(t, resp.CV)
	assert.True(t, resp.CV.Meta.Refined)
	assert.True(t, resp.CV.Meta.ProjectsConfirmed)
	assert.Equal(t, "Fitter with four years of lathe maintenance.", resp.CV.Summary)
	require.Len(t, resp.CV.Experience, 1)
	assert.Equal(t, "Tata", resp.CV.Experience[0].Company)
	assert.Equal(t, "Maintained and repaired lathes on the shop floor.", resp.CV.Experience[0].Description)

	require.Equal(t, 1, cm.calls())
	require.Len(t, cm.inputs[0], 2)
	assert.Equal(t, schema.System, cm.inputs[0][0].Role)
	assert.Contains(t, cm.inputs[0][0].Content, "professional CV editor")
	assert.Contains(t, cm.inputs[0][1].Content, `"company":"Tata"`)

	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.CV.Meta.Refined)
	assert.Equal(t, resp.CV.Summary, stored.CV.Summary)
	assert.EqualValues(t, session.Version+1, stored.Version)
}

func TestRefineFailureKeepsRecord(t *testing.T) {
	cases := []struct {
		name string
		cm   *scriptedModel
	}{
		{"model error", &scriptedModel{err: errors.New("quota exceeded")}},
		{"unstructured reply", &scriptedModel{replies: []string{"Sorry, I cannot help with that."}}},
		{"empty cv", &scriptedModel{replies: []string{`{"cv_json":{}}`}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.cm, nil)
			withRefiner(t, f)
			ctx := context.Background()
			session := seedSession(t, f, completeCV(), "")

			resp := f.service.Refine(ctx, session.ID)
			require.False(t, resp.Failed(), resp.Error)
			assert.Equal(t, MsgRefineSkipped, resp.Note)
			require.NotNil(t, resp.CV)
			assert.False(t, resp.CV.Meta.Refined)
			assert.Equal(t, "Maintained lathes", resp.CV.Experience[0].Description)

			stored, err := f.service.GetSession(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, session.Version, stored.Version)
			assert.False(t, stored.CV.Meta.Refined)
		})
	}
}

func TestRefineRequiresName(t *testing.T) {
	cm := &scriptedModel{replies: []string{refinedReply}}
	f := newFixture(t, cm, nil)
	withRefiner(t, f)
	session := seedSession(t, f, model.EmptyCV(), "")

	resp := f.service.Refine(context.Background(), session.ID)
	assert.True(t, resp.Failed())
	assert.Equal(t, errx.ErrIncompleteCV.Error(), resp.Error)
	assert.Zero(t, cm.calls())

	resp = f.service.Refine(context.Background(), "missing")
	assert.Equal(t, errx.ErrSessionNotFound.Error(), resp.Error)
}

func TestRefineWithoutRefinerNotes(t *testing.T) {
	cm := &scriptedModel{replies: []string{refinedReply}}
	f := newFixture(t, cm, nil)
	session := seedSession(t, f, completeCV(), "")

	resp := f.service.Refine(context.Background(), session.ID)
	require.False(t, resp.Failed(), resp.Error)
	assert.Equal(t, MsgRefineSkipped, resp.Note)
	assert.Zero(t, cm.calls())
}

func TestHandleTurnGenerateRefines(t *testing.T) {
	cm := &scriptedModel{replies: []string{
		`{"agent_text":"Okay.","cv_json":{},"next_action":"ask"}`,
		refinedReply,
	}}
	f := newFixture(t, cm, nil)
	withRefiner(t, f)
	ctx := context.Background()
	session := seedSession(t, f, completeCV(), nodes.MsgReadyToGenerate)

	resp := f.service.HandleTurn(ctx, session.ID, "yes")
	require.False(t, resp.Failed(), resp.Error)
	assert.Equal(t, nodes.MsgGenerating, resp.AgentText)
	assert.Empty(t, resp.Note)
	assert.True(t, resp.CV.Meta.Refined)
	assert.Equal(t, 2, cm.calls())

	stored, err := f.service.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.CV.Meta.Refined)
	assert.Equal(t, "Fitter with four years of lathe maintenance.", stored.CV.Summary)
	assert.Len(t, stored.Turns, 3)
}

func TestHandleTurnDeferDoesNotRefine(t *testing.T) {
	cm := &scriptedModel{replies: []string{`{"agent_text":"Okay.","cv_json":{},"next_action":"ask"}`}}
	f := newFixture(t, cm, nil)
	withRefiner(t, f)
	session := seedSession(t, f, completeCV(), nodes.MsgReadyToGenerate)

	resp := f.service.HandleTurn(context.Background(), session.ID, "not now")
	require.False(t, resp.Failed(), resp.Error)
	assert.Equal(t, nodes.MsgDeferred, resp.AgentText)
	assert.False(t, resp.CV.Meta.Refined)
	assert.Equal(t, 1, cm.calls())
}
