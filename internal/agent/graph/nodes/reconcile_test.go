package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicecv-core/server/internal/agent/model"
	"github.com/voicecv-core/server/internal/agent/policy"
)

func completeCV() model.CVRecord {
	cv := model.EmptyCV()
	cv.PersonalInfo = model.PersonalInfo{Name: "Asha Rao", Email: "asha@x.io", Phone: "+91 98765 43210", Address: "Pune"}
	cv.Education = []model.Education{{Degree: "Diploma", Institute: "GP Pune", StartYear: "2015", EndYear: "2018"}}
	cv.Experience = []model.Experience{{Company: "Tata", Role: "Fitter", StartDate: "2018", EndDate: "2022", Description: "Maintained lathes"}}
	cv.Skills = model.FlatSkills("Welding")
	cv.Projects = []model.Project{{ProjectName: "Pump", Description: "Solar pump"}}
	cv.Certifications = []model.Certification{{Name: "ITI"}}
	cv.Meta.ProjectsConfirmed = true
	return cv
}

func sessionWith(cv model.CVRecord, lastAgent string) *model.Session {
	s := &model.Session{ID: "s1", CV: cv}
	if lastAgent != "" {
		s.Turns = []model.Turn{{From: model.OriginAgent, Text: lastAgent}}
	}
	return s
}

func parsed(text string, action model.Action, cv map[string]any) model.ModelReply {
	return model.ModelReply{Turn: &model.ParsedTurn{AgentText: text, NextAction: action, CV: cv}}
}

func TestReconcileUnstructuredReplyPassesThrough(t *testing.T) {
	cv := model.EmptyCV()
	cv.PersonalInfo.Name = "Ravi"
	session := sessionWith(cv, policy.AskEmail)

	got := NewReconciler(nil, nil).Reconcile(session, "hello", model.ModelReply{RawText: "Sure, tell me more!"})

	assert.Equal(t, "Sure, tell me more!", got.AgentText)
	assert.Equal(t, model.ActionAnswer, got.NextAction)
	assert.Equal(t, cv, got.CV)
	assert.False(t, got.Parsed)
	assert.False(t, got.Complete)
}

func TestReconcileKeepsModelQuestionWhileIncomplete(t *testing.T) {
	session := sessionWith(model.EmptyCV(), policy.AskName)
	reply := parsed("Thanks Ravi! What is your email address?", model.ActionAsk, map[string]any{
		"personal_info": map[string]any{"name": "Ravi Kumar"},
	})

	got := NewReconciler(nil, nil).Reconcile(session, "My name is Ravi Kumar", reply)

	assert.Equal(t, "Ravi Kumar", got.CV.PersonalInfo.Name)
	assert.Equal(t, model.ActionAsk, got.NextAction)
	assert.Equal(t, "Thanks Ravi! What is your email address?", got.AgentText)
	assert.True(t, got.Parsed)
	assert.False(t, got.Complete)
}

func TestReconcileEmptyAgentTextFallsBackToPolicyQuestion(t *testing.T) {
	session := sessionWith(model.EmptyCV(), policy.AskName)
	reply := parsed("", model.ActionAnswer, map[string]any{
		"personal_info": map[string]any{"name": "Ravi Kumar"},
	})

	got := NewReconciler(nil, nil).Reconcile(session, "Ravi Kumar", reply)

	assert.Equal(t, policy.AskEmail, got.AgentText)
	assert.Equal(t, model.ActionAsk, got.NextAction)
}

func TestReconcileEmptyReplyAsksNextQuestion(t *testing.T) {
	session := sessionWith(model.EmptyCV(), "")

	got := NewReconciler(nil, nil).Reconcile(session, "hi", model.ModelReply{})

	assert.Equal(t, policy.AskName, got.AgentText)
	assert.Equal(t, model.ActionAsk, got.NextAction)
	assert.True(t, got.Parsed)
}

func TestReconcileForcesAskOnPrematureComplete(t *testing.T) {
	cv := completeCV()
	cv.PersonalInfo.Phone = ""
	session := sessionWith(cv, policy.AskAddress)

	got := NewReconciler(nil, nil).Reconcile(session, "Pune", parsed("All done!", model.ActionComplete, nil))

	assert.Equal(t, model.ActionAsk, got.NextAction)
	assert.Equal(t, policy.AskPhone, got.AgentText)
	assert.False(t, got.Complete)
}

func TestReconcileDeclineExperience(t *testing.T) {
	cv := completeCV()
	cv.Experience = []model.Experience{}
	session := sessionWith(cv, policy.AskHasExperience)

	got := NewReconciler(nil, nil).Reconcile(session, "No", parsed("Okay. What skills do you have?", model.ActionAsk, nil))

	assert.True(t, got.CV.Meta.SkipExperience)
	assert.Empty(t, got.CV.Experience)
	assert.True(t, got.Complete)
}

func TestReconcileDeclineExperienceDropsModelEntries(t *testing.T) {
	cv := model.EmptyCV()
	session := sessionWith(cv, "")
	reply := parsed("Noted.", model.ActionAsk, map[string]any{
		"experience": []any{map[string]any{"description": "none"}},
	})

	got := NewReconciler(nil, nil).Reconcile(session, "I am a fresher, I have no experience", reply)

	assert.True(t, got.CV.Meta.SkipExperience)
	assert.Empty(t, got.CV.Experience)
}

func TestReconcileNoMoreExperienceKeepsEntries(t *testing.T) {
	session := sessionWith(completeCV(), "Do you have any other work experience you would like to add?")

	got := NewReconciler(nil, nil).Reconcile(session, "no", parsed("Okay.", model.ActionAsk, nil))

	assert.False(t, got.CV.Meta.SkipExperience)
	require.Len(t, got.CV.Experience, 1)
	assert.Equal(t, "Tata", got.CV.Experience[0].Company)
}

func TestReconcileNoExperienceWithToolKeepsEntries(t *testing.T) {
	cv := completeCV()
	cv.Skills = model.Skills{}
	session := sessionWith(cv, policy.AskSkills)
	reply := parsed("Great.", model.ActionAsk, map[string]any{"skills": []any{"Welding"}})

	got := NewReconciler(nil, nil).Reconcile(session, "I know welding but I have no experience with CNC machines", reply)

	assert.False(t, got.CV.Meta.SkipExperience)
	require.Len(t, got.CV.Experience, 1)
	assert.Equal(t, "Fitter", got.CV.Experience[0].Role)
}

func TestReconcileExperienceAfterSkipReopens(t *testing.T) {
	cv := model.EmptyCV()
	cv.Meta.SkipExperience = true
	session := sessionWith(cv, "")
	reply := parsed("Got it.", model.ActionAsk, map[string]any{
		"experience": []any{map[string]any{"role": "Cook", "company": "Taj"}},
	})

	got := NewReconciler(nil, nil).Reconcile(session, "Actually I worked as a cook at Taj", reply)

	assert.False(t, got.CV.Meta.SkipExperience)
	require.Len(t, got.CV.Experience, 1)
	assert.Equal(t, "Cook", got.CV.Experience[0].Role)
}

func TestReconcileDeclineCertifications(t *testing.T) {
	cv := completeCV()
	cv.Certifications = []model.Certification{}
	session := sessionWith(cv, policy.AskCertifications)

	got := NewReconciler(nil, nil).Reconcile(session, "No", parsed("Do you have any certificates?", model.ActionAsk, nil))

	assert.True(t, got.CV.Meta.SkipCertifications)
	assert.Empty(t, got.CV.Certifications)
	assert.True(t, got.Complete)
	assert.Equal(t, MsgReadyToGenerate, got.AgentText)
	assert.Equal(t, model.ActionComplete, got.NextAction)
}

func TestReconcileSkippedCertificationsStayEmpty(t *testing.T) {
	cv := completeCV()
	cv.Certifications = []model.Certification{}
	cv.Meta.SkipCertifications = true
	cv.Meta.ProjectsConfirmed = false
	session := sessionWith(cv, "")
	reply := parsed("Any certifications to add?", model.ActionAsk, map[string]any{
		"certifications": []any{map[string]any{"name": "First Aid"}},
	})

	got := NewReconciler(nil, nil).Reconcile(session, "ok", reply)

	assert.Empty(t, got.CV.Certifications)
	assert.Equal(t, policy.AskProjectDetail, got.AgentText)
	assert.Equal(t, model.ActionAsk, got.NextAction)
}

func TestReconcileProjectDetailConfirms(t *testing.T) {
	cv := completeCV()
	cv.Meta.ProjectsConfirmed = false
	session := sessionWith(cv, policy.AskProjectDetail)

	userText := "I built a billing app using Python and MySQL"
	got := NewReconciler(nil, nil).Reconcile(session, userText, parsed("Nice work!", model.ActionAsk, nil))

	assert.True(t, got.CV.Meta.ProjectsConfirmed)
	assert.Equal(t, 1, got.CV.Meta.ProjectDetailTurns)
	assert.True(t, got.Complete)
	assert.Equal(t, MsgReadyToGenerate, got.AgentText)
}

func TestReconcileProjectDetailConfirmsAfterTwoTurns(t *testing.T) {
	cv := completeCV()
	cv.Meta.ProjectsConfirmed = false
	cv.Meta.ProjectDetailTurns = 1
	session := sessionWith(cv, policy.AskProjectDetail)

	got := NewReconciler(nil, nil).Reconcile(session, "A pump", parsed("", model.ActionAsk, nil))

	assert.True(t, got.CV.Meta.ProjectsConfirmed)
	assert.Equal(t, 2, got.CV.Meta.ProjectDetailTurns)
}

func TestReconcileShortProjectReplyKeepsAsking(t *testing.T) {
	cv := completeCV()
	cv.Meta.ProjectsConfirmed = false
	session := sessionWith(cv, policy.AskProjectDetail)

	got := NewReconciler(nil, nil).Reconcile(session, "A pump", parsed("", model.ActionAsk, nil))

	assert.False(t, got.CV.Meta.ProjectsConfirmed)
	assert.Equal(t, policy.AskProjectDetail, got.AgentText)
}

func TestReconcileProjectGuardRedirectsConfirmedProjects(t *testing.T) {
	cv := completeCV()
	cv.Certifications = []model.Certification{}
	session := sessionWith(cv, policy.AskSkills)

	got := NewReconciler(nil, nil).Reconcile(session, "Welding", parsed("Tell me about another project.", model.ActionAsk, nil))

	assert.Equal(t, policy.AskCertifications, got.AgentText)
	assert.Equal(t, model.ActionAsk, got.NextAction)
}

func TestReconcileCompleteIntents(t *testing.T) {
	cases := []struct {
		name     string
		userText string
		want     string
	}{
		{"affirmative", "yes", MsgGenerating},
		{"generate request", "please generate my CV", MsgGenerating},
		{"negative", "not now", MsgDeferred},
		{"hindi negative", "baad mein", MsgDeferred},
		{"neutral", "hmm", MsgReadyToGenerate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := sessionWith(completeCV(), MsgReadyToGenerate)
			got := NewReconciler(nil, nil).Reconcile(session, tc.userText, parsed("Anything else?", model.ActionAsk, nil))

			assert.Equal(t, tc.want, got.AgentText)
			assert.Equal(t, model.ActionComplete, got.NextAction)
			assert.True(t, got.Complete)
			assert.Equal(t, tc.want == MsgGenerating, got.Generate)
		})
	}
}

func TestReconcileDoesNotMutateSession(t *testing.T) {
	cv := completeCV()
	cv.Certifications = []model.Certification{}
	session := sessionWith(cv, policy.AskCertifications)

	NewReconciler(nil, nil).Reconcile(session, "no", parsed("", model.ActionAsk, nil))

	assert.False(t, session.CV.Meta.SkipCertifications)
}
