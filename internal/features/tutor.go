package features

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/research"
)

const (
	tutorAskQuestion flow.State = "ask_question"
	tutorFollowUp    flow.State = "follow_up"
)

func tutorMachine(d Deps) *flow.Machine {
	answer := flow.Transition{To: []flow.State{tutorFollowUp}, Handle: d.tutorAnswer}
	return &flow.Machine{
		Feature: FeatureTutor,
		Entry:   MenuTutor,
		Init:    func(data *flow.Data) { data.Tutor = &flow.TutorData{} },
		Start: flow.Transition{
			To: []flow.State{tutorAskQuestion},
			Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
				return tutorAskQuestion, r.Edit(tutorIntro, menuOnly())
			},
		},
		States: []flow.State{tutorAskQuestion, tutorFollowUp},
		Table: map[flow.State]map[flow.EventKind]flow.Transition{
			tutorAskQuestion: {
				flow.EventText: answer,
			},
			tutorFollowUp: {
				flow.EventText: answer,
				flow.EventFollowUp: {To: []flow.State{tutorAskQuestion}, Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
					return tutorAskQuestion, r.Edit(followUpPrompt, menuOnly())
				}},
			},
		},
	}
}

func (d Deps) tutorAnswer(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	question := strings.TrimSpace(ev.Text)
	if !flow.HasWords(question) {
		return s.State, r.Send(followUpPrompt, menuOnly())
	}
	t := s.Data.Tutor
	prompt := question
	if len(t.History) == 0 {
		prompt = fmt.Sprintf(tutorPrompt, question)
	}
	reply := d.Research.Complete(ctx, research.Request{
		Prompt:  prompt,
		Persona: research.PersonaTutor,
		History: t.History,
	})
	if reply.Degraded {
		return s.State, r.Send(reply.Text, menuOnly())
	}
	label := labelFollowUp
	if len(t.History) > 0 {
		label = labelAnotherFollowUp
	}
	t.History = flow.AppendTurn(t.History, question, reply.Text)
	return tutorFollowUp, r.Send(reply.Text, withMenu(flow.Button{Text: label, Unique: FollowUp}))
}
