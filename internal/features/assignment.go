package features

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/internal/files"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/research"
	"github.com/m3rciful/scholarbot/internal/store"
)

const (
	assignmentAskTopic    flow.State = "ask_topic"
	assignmentFollowUp    flow.State = "follow_up"
	assignmentAskFollowUp flow.State = "ask_follow_up"

	analysisPreview = 1000
)

func assignmentMachine(d Deps) *flow.Machine {
	followUp := flow.Transition{To: []flow.State{assignmentFollowUp}, Handle: d.assignmentFollowUp}
	return &flow.Machine{
		Feature: FeatureAssignment,
		Entry:   MenuAssignment,
		Guard:   d.Subscribed,
		Init:    func(data *flow.Data) { data.Assignment = &flow.AssignmentData{} },
		Start: flow.Transition{
			To: []flow.State{assignmentAskTopic},
			Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
				return assignmentAskTopic, r.Edit(assignmentIntro, menuOnly())
			},
		},
		States: []flow.State{assignmentAskTopic, assignmentFollowUp, assignmentAskFollowUp},
		Table: map[flow.State]map[flow.EventKind]flow.Transition{
			assignmentAskTopic: {
				flow.EventText:     {To: []flow.State{assignmentFollowUp, flow.Terminal}, Handle: d.analyseAssignment},
				flow.EventDocument: {To: []flow.State{assignmentAskTopic}, Handle: d.uploadBrief},
			},
			assignmentFollowUp: {
				flow.EventFollowUp: {To: []flow.State{assignmentAskFollowUp}, Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
					return assignmentAskFollowUp, r.Edit(followUpPrompt, menuOnly())
				}},
				flow.EventText: followUp,
			},
			assignmentAskFollowUp: {
				flow.EventText: followUp,
			},
		},
	}
}

func (d Deps) analyseAssignment(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	topic := strings.TrimSpace(ev.Text)
	if !flow.HasWords(topic) {
		return s.State, r.Send(assignmentReask, menuOnly())
	}
	user, err := d.Store.GetUserByTelegramID(ctx, s.Key.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return flow.Terminal, r.Send(startFirst, nil)
	}
	if err != nil {
		return s.State, err
	}

	a := s.Data.Assignment
	prompt := fmt.Sprintf(analysisPrompt, topic)
	if a.FileText != "" {
		prompt += fmt.Sprintf(analysisDocPart, a.FileText)
	}
	reply := d.Research.Complete(ctx, research.Request{Prompt: prompt, Persona: research.PersonaAcademic})
	if reply.Degraded {
		return s.State, r.Send(reply.Text, menuOnly())
	}

	saved, err := d.Store.CreateAssignment(ctx, models.Assignment{
		UserID:        user.ID,
		Topic:         topic,
		FileURL:       a.FileURL,
		ExtractedText: a.FileText,
		AIResponse:    reply.Text,
	})
	if err != nil {
		return s.State, err
	}
	a.AssignmentID = saved.ID
	a.Topic = topic
	// the document already reached the model once; follow-ups carry the topic only
	a.FileText = ""
	a.History = flow.AppendTurn(nil, topic, reply.Text)

	text := fmt.Sprintf(analysisAnswer, format.Escape(topic), flow.Preview(reply.Text, analysisPreview))
	return assignmentFollowUp, r.Send(text, withMenu(flow.Button{Text: labelFollowUp, Unique: FollowUp}))
}

func (d Deps) uploadBrief(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	if d.Documents == nil || ev.Document == nil {
		return s.State, r.Send(uploadsOff, menuOnly())
	}
	doc := *ev.Document
	if doc.Size > files.MaxUploadBytes {
		return s.State, r.Send(uploadTooLarge, menuOnly())
	}
	body, err := r.Fetch(doc)
	if err != nil {
		return s.State, fmt.Errorf("fetch document: %w", err)
	}
	defer body.Close()

	out, err := d.Documents.Process(ctx, doc.FileName, body)
	switch {
	case errors.Is(err, files.ErrUnsupported):
		return s.State, r.Send(uploadNotPDF, menuOnly())
	case errors.Is(err, files.ErrTooLarge):
		return s.State, r.Send(uploadTooLarge, menuOnly())
	case errors.Is(err, files.ErrNoText):
		return s.State, r.Send(uploadNoText, menuOnly())
	case err != nil:
		return s.State, err
	}

	a := s.Data.Assignment
	a.FileURL = out.URL
	a.FileText = out.Text
	name := doc.FileName
	if name == "" {
		name = "your document"
	}
	return s.State, r.Send(fmt.Sprintf(uploadDone, len([]rune(out.Text)), format.Escape(name)), menuOnly())
}

func (d Deps) assignmentFollowUp(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	question := strings.TrimSpace(ev.Text)
	if !flow.HasWords(question) {
		return s.State, r.Send(followUpPrompt, menuOnly())
	}
	a := s.Data.Assignment
	reply := d.Research.Complete(ctx, research.Request{
		Prompt:  question,
		Persona: research.PersonaAcademic,
		History: a.History,
	})
	if reply.Degraded {
		return s.State, r.Send(reply.Text, menuOnly())
	}
	a.History = flow.AppendTurn(a.History, question, reply.Text)
	return assignmentFollowUp, r.Send(reply.Text, withMenu(flow.Button{Text: labelAnotherFollowUp, Unique: FollowUp}))
}
