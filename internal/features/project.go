package features

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/research"
	"github.com/m3rciful/scholarbot/internal/store"
)

const (
	projectAskTitle       flow.State = "ask_title"
	projectAskTopicState  flow.State = "ask_topic"
	projectAskPagesState  flow.State = "ask_pages"
	projectAskCustomPages flow.State = "ask_custom_pages"
	projectConfirm        flow.State = "confirm"
	projectChapter        flow.State = "chapter"

	maxPages       = 200
	chapterPreview = 500
)

var pagePresets = []int{5, 10, 15}

func projectMachine(d Deps) *flow.Machine {
	pages := flow.Transition{To: []flow.State{projectConfirm}, Handle: d.projectPages}
	return &flow.Machine{
		Feature: FeatureProject,
		Entry:   MenuProject,
		Guard:   d.Subscribed,
		Init:    func(data *flow.Data) { data.Project = &flow.ProjectData{} },
		Start: flow.Transition{
			To: []flow.State{projectAskTitle},
			Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
				return projectAskTitle, r.Edit(projectIntro, menuOnly())
			},
		},
		States: []flow.State{projectAskTitle, projectAskTopicState, projectAskPagesState, projectAskCustomPages, projectConfirm, projectChapter},
		Table: map[flow.State]map[flow.EventKind]flow.Transition{
			projectAskTitle: {
				flow.EventText: {To: []flow.State{projectAskTopicState}, Handle: projectTitle},
			},
			projectAskTopicState: {
				flow.EventText: {To: []flow.State{projectAskPagesState}, Handle: projectTopic},
			},
			projectAskPagesState: {
				flow.EventPages: pages,
				flow.EventText:  pages,
				flow.EventCustomPages: {To: []flow.State{projectAskCustomPages}, Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
					return projectAskCustomPages, r.Edit(projectCustomPages, menuOnly())
				}},
			},
			projectAskCustomPages: {
				flow.EventText: pages,
			},
			projectConfirm: {
				flow.EventConfirm: {To: []flow.State{projectChapter, flow.Terminal}, Handle: d.createProject},
				flow.EventDecline: {To: []flow.State{flow.Terminal}, Handle: func(_ context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
					return flow.Terminal, r.Edit(projectCancelled, menuOnly())
				}},
			},
			projectChapter: {
				flow.EventText: {To: []flow.State{flow.Terminal}, Handle: d.writeChapter},
			},
		},
	}
}

func projectTitle(_ context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	title := strings.TrimSpace(ev.Text)
	if !flow.HasWords(title) {
		return s.State, r.Send(projectIntro, menuOnly())
	}
	s.Data.Project.Title = title
	return projectAskTopicState, r.Send(projectAskTopic, menuOnly())
}

func projectTopic(_ context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	topic := strings.TrimSpace(ev.Text)
	if !flow.HasWords(topic) {
		return s.State, r.Send(projectAskTopic, menuOnly())
	}
	s.Data.Project.Topic = topic
	return projectAskPagesState, r.Send(projectAskPages, pagesKeyboard())
}

func pagesKeyboard() flow.Keyboard {
	kb := flow.Keyboard{}
	for _, n := range pagePresets {
		kb = append(kb, []flow.Button{{
			Text:   fmt.Sprintf("%d Pages (%s words)", n, humanize.Comma(int64(n*models.WordsPerPage))),
			Unique: Pages,
			Data:   strconv.Itoa(n),
		}})
	}
	kb = append(kb, []flow.Button{{Text: labelCustomLength, Unique: PagesCustom}}, []flow.Button{flow.MenuButton})
	return kb
}

// ParsePages accepts a whole page count in 1..200.
func ParsePages(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > maxPages {
		return 0, false
	}
	return n, true
}

func (d Deps) projectPages(_ context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	raw := ev.Text
	if ev.Kind == flow.EventPages {
		raw = ev.Payload
	}
	n, ok := ParsePages(raw)
	if !ok {
		return s.State, r.Send(projectBadPages, menuOnly())
	}
	p := s.Data.Project
	p.Pages = n
	text := fmt.Sprintf(projectSummary, format.Escape(p.Title), format.Escape(p.Topic), n, humanize.Comma(int64(n*models.WordsPerPage)))
	kb := flow.Keyboard{
		{{Text: labelConfirm, Unique: ProjectConfirm}, {Text: labelCancel, Unique: ProjectCancel}},
		{flow.MenuButton},
	}
	if ev.Kind == flow.EventPages {
		return projectConfirm, r.Edit(text, kb)
	}
	return projectConfirm, r.Send(text, kb)
}

func (d Deps) createProject(ctx context.Context, s *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
	user, err := d.Store.GetUserByTelegramID(ctx, s.Key.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return flow.Terminal, r.Edit(startFirst, nil)
	}
	if err != nil {
		return s.State, err
	}
	p := s.Data.Project
	created, err := d.Store.CreateProject(ctx, models.Project{
		UserID:    user.ID,
		Title:     p.Title,
		Topic:     p.Topic,
		PageCount: p.Pages,
		Status:    models.ProjectDraft,
	})
	if err != nil {
		return s.State, err
	}
	p.ProjectID = created.ID
	return projectChapter, r.Edit(projectCreated, menuOnly())
}

func (d Deps) writeChapter(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	p := s.Data.Project
	if p.ProjectID == 0 {
		return flow.Terminal, r.Send(projectExpired, menuOnly())
	}
	title := strings.TrimSpace(ev.Text)
	if !flow.HasWords(title) {
		return s.State, r.Send(projectCreated, menuOnly())
	}

	reply := d.Research.Complete(ctx, research.Request{
		Prompt:  fmt.Sprintf(chapterPrompt, p.Title, title, p.Topic, p.Pages),
		Persona: research.PersonaWriter,
	})
	if reply.Degraded {
		return s.State, r.Send(reply.Text, menuOnly())
	}
	if _, err := d.Store.AddChapter(ctx, models.ProjectChapter{
		ProjectID: p.ProjectID,
		Title:     title,
		Content:   reply.Text,
	}); err != nil {
		return s.State, err
	}
	return s.State, r.Send(fmt.Sprintf(chapterDone, format.Escape(title), flow.Preview(reply.Text, chapterPreview)), menuOnly())
}
