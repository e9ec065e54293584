package nodes

import (
	"strings"

	"github.com/voicecv-core/server/internal/agent/cv"
	"github.com/voicecv-core/server/internal/agent/intents"
	"github.com/voicecv-core/server/internal/agent/model"
	"github.com/voicecv-core/server/internal/agent/policy"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// Texts used once the record is complete.
const (
	MsgReadyToGenerate = "I have all the details I need for your CV. Shall I generate it now?"
	MsgGenerating      = "Great! I'm generating your CV now. You can download it in a moment."
	MsgDeferred        = "No problem. Whenever you are ready, just tell me and I will generate your CV."
)

// Reconciler turns a model reply into the turn outcome. The completion
// policy always has the last word over what the model claimed.
type Reconciler struct {
	normalizer *cv.Normalizer
	detector   *intents.Detector
}

func NewReconciler(normalizer *cv.Normalizer, detector *intents.Detector) *Reconciler {
	if normalizer == nil {
		normalizer = cv.NewNormalizer(nil)
	}
	if detector == nil {
		detector = intents.Default()
	}
	return &Reconciler{normalizer: normalizer, detector: detector}
}

// Reconcile computes the updated record, action and agent text for one
// turn. session is the state before the turn and is not modified.
func (r *Reconciler) Reconcile(session *model.Session, userText string, reply model.ModelReply) model.TurnResult {
	if session == nil {
		session = &model.Session{CV: model.EmptyCV()}
	}
	if !reply.Parsed() && strings.TrimSpace(reply.RawText) != "" {
		return model.TurnResult{
			AgentText:  reply.RawText,
			CV:         session.CV.Clone(),
			NextAction: model.ActionAnswer,
			Complete:   policy.Complete(session.CV),
		}
	}
	turn := reply.Turn
	if turn == nil {
		turn = &model.ParsedTurn{NextAction: model.ActionAsk}
	}

	prevAgent := session.LastAgentText()
	record := r.normalizer.Normalize(session.CV, turn.CV)
	signals := r.detector.Detect(userText, prevAgent)

	r.applyExperience(&record, session.CV, signals, prevAgent)
	r.applyCertifications(&record, signals)
	r.trackProjects(&record, userText, prevAgent)

	question, pending := policy.Next(record)
	text, action := r.decide(session, record, turn, userText, question, pending)

	logx.Debug().
		Str("session_id", session.ID).
		Str("model_action", string(turn.NextAction)).
		Str("action", string(action)).
		Str("pending_field", string(question.Field)).
		Str("language", turn.Language).
		Msg("turn reconciled")

	return model.TurnResult{
		AgentText:  text,
		CV:         record,
		NextAction: action,
		Complete:   !pending,
		Parsed:     true,
		Generate:   text == MsgGenerating,
	}
}

// applyExperience honours a decline only while nothing was recorded yet or
// as the answer to the has-experience question; stored entries are kept
// for "no more" or "no experience with X" replies.
func (r *Reconciler) applyExperience(record *model.CVRecord, before model.CVRecord, signals intents.Signals, prevAgent string) {
	declining := signals.Has(intents.DeclineExperience) &&
		(len(before.Experience) == 0 || strings.TrimSpace(prevAgent) == policy.AskHasExperience)
	if declining {
		record.Meta.SkipExperience = true
		record.Experience = []model.Experience{}
		return
	}
	// the user came back with experience after declining it
	if record.Meta.SkipExperience && len(record.Experience) > 0 {
		record.Meta.SkipExperience = false
	}
}

func (r *Reconciler) applyCertifications(record *model.CVRecord, signals intents.Signals) {
	if signals.Has(intents.DeclineCertifications) {
		record.Meta.SkipCertifications = true
	}
	if record.Meta.SkipCertifications {
		record.Certifications = []model.Certification{}
	}
}

func (r *Reconciler) trackProjects(record *model.CVRecord, userText, prevAgent string) {
	if r.detector.About(prevAgent, intents.TopicProjectDetail) {
		record.Meta.ProjectDetailTurns++
		if detailedEnough(userText) || record.Meta.ProjectDetailTurns >= projectDetailMaxTurns {
			record.Meta.ProjectsConfirmed = true
		}
	}
	for _, p := range record.Projects {
		if wordCount(p.Description) >= projectDetailMinWords {
			record.Meta.ProjectsConfirmed = true
			break
		}
	}
}

func (r *Reconciler) decide(
	session *model.Session,
	record model.CVRecord,
	turn *model.ParsedTurn,
	userText string,
	question policy.Question,
	pending bool,
) (string, model.Action) {
	if !pending {
		// generate/defer only answer the ready prompt of an earlier turn
		if !policy.Complete(session.CV) {
			return MsgReadyToGenerate, model.ActionComplete
		}
		switch r.detector.Intent(userText) {
		case intents.Negative:
			return MsgDeferred, model.ActionComplete
		case intents.Affirmative:
			return MsgGenerating, model.ActionComplete
		}
		return MsgReadyToGenerate, model.ActionComplete
	}

	text, action := strings.TrimSpace(turn.AgentText), turn.NextAction
	if text == "" {
		text, action = question.Text, model.ActionAsk
	}
	if record.Meta.ProjectsConfirmed && mentions(text, "project") && question.Field != policy.FieldProjects {
		text, action = question.Text, model.ActionAsk
	}
	if record.Meta.SkipCertifications && mentions(text, "certif") {
		text, action = question.Text, model.ActionAsk
	}
	if action == model.ActionComplete {
		text, action = question.Text, model.ActionAsk
	}
	return text, action
}
