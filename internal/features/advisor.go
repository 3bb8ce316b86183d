package features

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/research"
)

const advisorAskCourse flow.State = "ask_course"

func advisorMachine(d Deps) *flow.Machine {
	return &flow.Machine{
		Feature: FeatureAdvisor,
		Entry:   MenuCourseAdvisor,
		Init:    func(data *flow.Data) { data.Advisor = &flow.AdvisorData{} },
		Start: flow.Transition{
			To: []flow.State{advisorAskCourse},
			Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
				return advisorAskCourse, r.Edit(advisorIntro, menuOnly())
			},
		},
		States: []flow.State{advisorAskCourse},
		Table: map[flow.State]map[flow.EventKind]flow.Transition{
			advisorAskCourse: {
				flow.EventText: {To: []flow.State{flow.Terminal}, Handle: d.adviseCourse},
			},
		},
	}
}

func (d Deps) adviseCourse(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	course := strings.TrimSpace(ev.Text)
	if !flow.HasWords(course) {
		return s.State, r.Send(advisorReask, menuOnly())
	}
	a := s.Data.Advisor
	a.Course = course

	reply := d.Research.Complete(ctx, research.Request{
		Prompt:  fmt.Sprintf(advisorPrompt, a.Course),
		Query:   a.Course,
		Persona: research.PersonaWebSearch,
		Search:  true,
	})
	if reply.Degraded {
		return s.State, r.Send(reply.Text, menuOnly())
	}
	return flow.Terminal, r.Send(fmt.Sprintf(advisorAnswer, format.Escape(a.Course), reply.Text), menuOnly())
}
