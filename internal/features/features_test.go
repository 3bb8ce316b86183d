package features

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/scholarbot/core/telegram/state"
	"github.com/m3rciful/scholarbot/internal/files"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/payment"
	"github.com/m3rciful/scholarbot/internal/research"
	"github.com/m3rciful/scholarbot/internal/store"
)

type fakeResearch struct {
	mu       sync.Mutex
	requests []research.Request
	answer   string
	degraded bool
}

func (f *fakeResearch) Complete(_ context.Context, req research.Request) research.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.degraded {
		return research.Reply{Text: research.Unavailable, Degraded: true}
	}
	return research.Reply{Text: f.answer}
}

func (f *fakeResearch) last() research.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeStore struct {
	users       map[int64]models.User
	plans       []models.PricingPlan
	assignments []models.Assignment
	projects    []models.Project
	chapters    []models.ProjectChapter
}

func (f *fakeStore) GetUserByTelegramID(_ context.Context, id int64) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, a models.Assignment) (models.Assignment, error) {
	a.ID = int64(len(f.assignments) + 1)
	f.assignments = append(f.assignments, a)
	return a, nil
}

func (f *fakeStore) CreateProject(_ context.Context, p models.Project) (models.Project, error) {
	p.ID = int64(len(f.projects) + 1)
	p.WordCount = p.PageCount * models.WordsPerPage
	f.projects = append(f.projects, p)
	return p, nil
}

func (f *fakeStore) AddChapter(_ context.Context, c models.ProjectChapter) (models.ProjectChapter, error) {
	c.ID = int64(len(f.chapters) + 1)
	f.chapters = append(f.chapters, c)
	return c, nil
}

func (f *fakeStore) ActivePlans(context.Context) ([]models.PricingPlan, error) {
	var out []models.PricingPlan
	for _, p := range f.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPlan(_ context.Context, id int64) (models.PricingPlan, error) {
	for _, p := range f.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return models.PricingPlan{}, store.ErrNotFound
}

type fakeDocuments struct {
	out files.Processed
	err error
}

func (f *fakeDocuments) Process(_ context.Context, _ string, body io.Reader) (files.Processed, error) {
	_, _ = io.Copy(io.Discard, body)
	return f.out, f.err
}

type fakeCheckout struct {
	telegramID int64
	plan       models.PricingPlan
	email      string
	err        error
}

func (f *fakeCheckout) Checkout(_ context.Context, telegramID int64, plan models.PricingPlan, email string) (string, error) {
	f.telegramID, f.plan, f.email = telegramID, plan, email
	if f.err != nil {
		return "", f.err
	}
	return "https://checkout.paystack.com/abc", nil
}

func (f *fakeCheckout) ValidEmail(s string) bool { return strings.Contains(s, "@") && strings.Contains(s, ".") }

type sent struct {
	Text string
	KB   flow.Keyboard
}

type recorder struct {
	out []sent
}

func (r *recorder) Send(text string, kb flow.Keyboard) error {
	r.out = append(r.out, sent{text, kb})
	return nil
}

func (r *recorder) Edit(text string, kb flow.Keyboard) error { return r.Send(text, kb) }

func (r *recorder) Fetch(flow.Document) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("%PDF-1.4")), nil
}

func (r *recorder) last() sent { return r.out[len(r.out)-1] }

type harness struct {
	ctl      *flow.Controller
	research *fakeResearch
	store    *fakeStore
	checkout *fakeCheckout
	r        *recorder
	id       flow.Identity
}

func newHarness(t *testing.T, mutate ...func(*Deps)) *harness {
	t.Helper()
	h := &harness{
		research: &fakeResearch{answer: "A thorough answer."},
		store: &fakeStore{
			users: map[int64]models.User{42: {ID: 7, TelegramID: 42, FirstName: "Ada"}},
			plans: []models.PricingPlan{
				{ID: 1, Name: "Weekly Access", Price: 50000, Interval: "weekly", IsActive: true},
				{ID: 2, Name: "Old Plan", Price: 10000, Interval: "monthly", IsActive: false},
			},
		},
		checkout: &fakeCheckout{},
		r:        &recorder{},
		id:       flow.Identity{ChatID: 42, UserID: 42},
	}
	d := Deps{
		Research: h.research,
		Store:    h.store,
		Checkout: h.checkout,
		Payments: payment.NewSwitch(true),
	}
	for _, m := range mutate {
		m(&d)
	}
	ctl, err := flow.NewController(state.NewMemoryStore[flow.Data](nil, 0), Machines(d)...)
	require.NoError(t, err)
	h.ctl = ctl
	return h
}

func (h *harness) enter(t *testing.T, feature string) {
	t.Helper()
	require.NoError(t, h.ctl.Enter(context.Background(), feature, h.id, h.r))
}

func (h *harness) send(t *testing.T, ev flow.Event) {
	t.Helper()
	handled, err := h.ctl.Dispatch(context.Background(), h.id, ev, h.r)
	require.NoError(t, err)
	require.True(t, handled, "event %s was not handled", ev.Kind)
}

func (h *harness) text(t *testing.T, s string) { h.send(t, flow.Event{Kind: flow.EventText, Text: s}) }

func (h *harness) state(t *testing.T) (flow.State, bool) {
	t.Helper()
	s, ok, err := h.ctl.Active(context.Background(), h.id)
	require.NoError(t, err)
	return s.State, ok
}

func TestMachinesValidate(t *testing.T) {
	for _, m := range Machines(Deps{}) {
		assert.NoError(t, m.Validate(), m.Feature)
	}
	for token := range FlowButtons {
		assert.NotEmpty(t, token)
	}
}

func TestAdvisorAnswersWithSearch(t *testing.T) {
	h := newHarness(t)
	h.enter(t, FeatureAdvisor)
	assert.Contains(t, h.r.last().Text, "Course Advisor")

	h.text(t, "   ")
	assert.Equal(t, advisorReask, h.r.last().Text)
	st, ok := h.state(t)
	require.True(t, ok)
	assert.Equal(t, advisorAskCourse, st)
	assert.Empty(t, h.research.requests, "blank input never reaches the model")

	h.text(t, "Law")
	req := h.research.last()
	assert.Equal(t, research.PersonaWebSearch, req.Persona)
	assert.True(t, req.Search)
	assert.Contains(t, req.Prompt, "studying Law")
	assert.Equal(t, "Law", req.Query, "search uses the course name, not the instruction")
	assert.Contains(t, h.r.last().Text, "Admission Guide: Law")
	assert.Contains(t, h.r.last().Text, "A thorough answer.")

	_, ok = h.state(t)
	assert.False(t, ok, "advisor ends after one answer")
}

func TestAdvisorDegradedKeepsAsking(t *testing.T) {
	h := newHarness(t)
	h.research.degraded = true
	h.enter(t, FeatureAdvisor)

	h.text(t, "Medicine")
	assert.Equal(t, research.Unavailable, h.r.last().Text)
	st, ok := h.state(t)
	require.True(t, ok)
	assert.Equal(t, advisorAskCourse, st)
}

func TestAssignmentSavesAndFollowsUp(t *testing.T) {
	h := newHarness(t)
	h.enter(t, FeatureAssignment)

	h.text(t, "Photosynthesis in C4 plants")
	require.Len(t, h.store.assignments, 1)
	saved := h.store.assignments[0]
	assert.Equal(t, int64(7), saved.UserID)
	assert.Equal(t, "Photosynthesis in C4 plants", saved.Topic)
	assert.Equal(t, "A thorough answer.", saved.AIResponse)
	assert.Equal(t, research.PersonaAcademic, h.research.last().Persona)

	out := h.r.last()
	assert.Contains(t, out.Text, "Analysis for 'Photosynthesis in C4 plants'")
	require.Len(t, out.KB, 2)
	assert.Equal(t, FollowUp, out.KB[0][0].Unique)

	h.send(t, flow.Event{Kind: flow.EventFollowUp})
	st, _ := h.state(t)
	assert.Equal(t, assignmentAskFollowUp, st)

	h.text(t, "Why does it matter?")
	req := h.research.last()
	assert.Equal(t, "Why does it matter?", req.Prompt)
	require.Len(t, req.History, 2)
	assert.Equal(t, research.RoleUser, req.History[0].Role)
	assert.Equal(t, labelAnotherFollowUp, h.r.last().KB[0][0].Text)

	st, _ = h.state(t)
	assert.Equal(t, assignmentFollowUp, st)

	// a typed question right after an answer is a follow-up too
	h.text(t, "And in C3 plants?")
	assert.Len(t, h.research.last().History, 4)
}

func TestAssignmentUnknownUserMustStart(t *testing.T) {
	h := newHarness(t)
	h.id = flow.Identity{ChatID: 99, UserID: 99}
	h.enter(t, FeatureAssignment)

	h.text(t, "Thermodynamics")
	assert.Equal(t, startFirst, h.r.last().Text)
	assert.Empty(t, h.store.assignments)
	_, ok := h.state(t)
	assert.False(t, ok)
}

func TestAssignmentUploadFeedsAnalysis(t *testing.T) {
	docs := &fakeDocuments{out: files.Processed{URL: "https://files.example/a.pdf", Text: "Discuss entropy.", MIME: "application/pdf"}}
	h := newHarness(t, func(d *Deps) { d.Documents = docs })
	h.enter(t, FeatureAssignment)

	h.send(t, flow.Event{Kind: flow.EventDocument, Document: &flow.Document{FileID: "f1", FileName: "brief.pdf", Size: 1024}})
	assert.Contains(t, h.r.last().Text, "brief.pdf")
	st, _ := h.state(t)
	assert.Equal(t, assignmentAskTopic, st)

	h.text(t, "Entropy")
	assert.Contains(t, h.research.last().Prompt, "Discuss entropy.")
	require.Len(t, h.store.assignments, 1)
	assert.Equal(t, "https://files.example/a.pdf", h.store.assignments[0].FileURL)
	assert.Equal(t, "Discuss entropy.", h.store.assignments[0].ExtractedText)
}

func TestAssignmentUploadRejections(t *testing.T) {
	cases := []struct {
		name string
		deps func(*Deps)
		doc  flow.Document
		want string
	}{
		{"uploads off", func(*Deps) {}, flow.Document{FileName: "a.pdf"}, uploadsOff},
		{"not a pdf", func(d *Deps) { d.Documents = &fakeDocuments{err: files.ErrUnsupported} }, flow.Document{FileName: "a.docx"}, uploadNotPDF},
		{"too large", func(d *Deps) { d.Documents = &fakeDocuments{} }, flow.Document{FileName: "a.pdf", Size: files.MaxUploadBytes + 1}, uploadTooLarge},
		{"no text", func(d *Deps) { d.Documents = &fakeDocuments{err: files.ErrNoText} }, flow.Document{FileName: "scan.pdf"}, uploadNoText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.deps)
			h.enter(t, FeatureAssignment)
			doc := tc.doc
			h.send(t, flow.Event{Kind: flow.EventDocument, Document: &doc})
			assert.Equal(t, tc.want, h.r.last().Text)
			st, ok := h.state(t)
			require.True(t, ok)
			assert.Equal(t, assignmentAskTopic, st)
		})
	}
}

func TestProjectCreatesAndWritesChapters(t *testing.T) {
	h := newHarness(t)
	h.enter(t, FeatureProject)

	h.text(t, "Solar Adoption in Lagos")
	h.text(t, "Barriers to residential solar uptake")
	kb := h.r.last().KB
	require.Len(t, kb, 5)
	assert.Equal(t, "10 Pages (7,500 words)", kb[1][0].Text)
	assert.Equal(t, "10", kb[1][0].Data)

	h.send(t, flow.Event{Kind: flow.EventPages, Payload: "10"})
	assert.Contains(t, h.r.last().Text, "Length: 10 pages (7,500 words)")
	st, _ := h.state(t)
	assert.Equal(t, projectConfirm, st)

	h.send(t, flow.Event{Kind: flow.EventConfirm})
	require.Len(t, h.store.projects, 1)
	p := h.store.projects[0]
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, 10, p.PageCount)
	assert.Equal(t, models.ProjectDraft, p.Status)

	h.text(t, "Introduction")
	h.text(t, "Literature Review")
	require.Len(t, h.store.chapters, 2)
	assert.Equal(t, "Literature Review", h.store.chapters[1].Title)
	assert.Equal(t, p.ID, h.store.chapters[1].ProjectID)
	assert.Equal(t, research.PersonaWriter, h.research.last().Persona)
	assert.Contains(t, h.research.last().Prompt, "10-page project")
	st, _ = h.state(t)
	assert.Equal(t, projectChapter, st)
}

func TestProjectCustomPagesValidation(t *testing.T) {
	h := newHarness(t)
	h.enter(t, FeatureProject)
	h.text(t, "Title")
	h.text(t, "Topic")
	h.send(t, flow.Event{Kind: flow.EventCustomPages})
	st, _ := h.state(t)
	assert.Equal(t, projectAskCustomPages, st)

	for _, bad := range []string{"0", "abc", "201", "-3", "2.5"} {
		h.text(t, bad)
		assert.Equal(t, projectBadPages, h.r.last().Text, bad)
	}
	st, _ = h.state(t)
	assert.Equal(t, projectAskCustomPages, st)

	h.text(t, "42")
	assert.Contains(t, h.r.last().Text, "42 pages (31,500 words)")
}

func TestProjectDeclineEnds(t *testing.T) {
	h := newHarness(t)
	h.enter(t, FeatureProject)
	h.text(t, "Title")
	h.text(t, "Topic")
	h.text(t, "5")
	h.send(t, flow.Event{Kind: flow.EventDecline})
	assert.Equal(t, projectCancelled, h.r.last().Text)
	assert.Empty(t, h.store.projects)
	_, ok := h.state(t)
	assert.False(t, ok)
}

func TestParsePages(t *testing.T) {
	for in, want := range map[string]int{"1": 1, " 15 ": 15, "200": 200} {
		n, ok := ParsePages(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, n)
	}
	for _, in := range []string{"", "0", "201", "ten"} {
		_, ok := ParsePages(in)
		assert.False(t, ok, in)
	}
}

func TestTutorKeepsHistory(t *testing.T) {
	h := newHarness(t)
	h.enter(t, FeatureTutor)

	h.text(t, "What is osmosis?")
	first := h.research.last()
	assert.Equal(t, research.PersonaTutor, first.Persona)
	assert.Contains(t, first.Prompt, "What is osmosis?")
	assert.Empty(t, first.History)
	assert.Equal(t, labelFollowUp, h.r.last().KB[0][0].Text)

	h.send(t, flow.Event{Kind: flow.EventFollowUp})
	h.text(t, "Give an example")
	second := h.research.last()
	assert.Equal(t, "Give an example", second.Prompt)
	assert.Len(t, second.History, 2)
	assert.Equal(t, labelAnotherFollowUp, h.r.last().KB[0][0].Text)
}

func TestPaymentCheckout(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.PaymentTimeout = 300 * time.Second })
	h.enter(t, FeaturePayment)

	kb := h.r.last().KB
	require.Len(t, kb, 2, "inactive plans are hidden")
	assert.Equal(t, "Weekly Access - ₦500.00 (weekly)", kb[0][0].Text)
	assert.Equal(t, SelectPlan, kb[0][0].Unique)

	h.send(t, flow.Event{Kind: flow.EventSelectPlan, Payload: "1"})
	assert.Contains(t, h.r.last().Text, "Weekly Access")
	s, ok, err := h.ctl.Active(context.Background(), h.id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, paymentAskEmail, s.State)
	assert.Equal(t, 300*time.Second, s.ExpiresAt.Sub(s.UpdatedAt))

	h.text(t, "not-an-email")
	assert.Equal(t, badEmail, h.r.last().Text)
	assert.Empty(t, h.checkout.email)

	h.text(t, "ada@example.com")
	assert.Equal(t, "ada@example.com", h.checkout.email)
	assert.Equal(t, int64(42), h.checkout.telegramID)
	assert.Equal(t, int64(50000), h.checkout.plan.Price)

	out := h.r.last()
	assert.Contains(t, out.Text, "₦500.00")
	assert.Equal(t, "https://checkout.paystack.com/abc", out.KB[0][0].URL)
	_, ok = h.state(t)
	assert.False(t, ok)
}

func TestPaymentDisabledAndStalePlan(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Payments = payment.NewSwitch(false) })
	h.enter(t, FeaturePayment)
	assert.Equal(t, paymentsDisabled, h.r.last().Text)
	_, ok := h.state(t)
	assert.False(t, ok)

	h = newHarness(t)
	h.enter(t, FeaturePayment)
	h.send(t, flow.Event{Kind: flow.EventSelectPlan, Payload: "2"})
	assert.Equal(t, sessionExpired, h.r.last().Text)
	_, ok = h.state(t)
	assert.False(t, ok)
}

func TestPaymentCheckoutFailureKeepsEmailStep(t *testing.T) {
	h := newHarness(t)
	h.checkout.err = errors.New("paystack: 502")
	h.enter(t, FeaturePayment)
	h.send(t, flow.Event{Kind: flow.EventSelectPlan, Payload: "1"})

	h.text(t, "ada@example.com")
	assert.Equal(t, flow.ErrorText, h.r.last().Text)
	st, ok := h.state(t)
	require.True(t, ok)
	assert.Equal(t, paymentAskEmail, st)
}

func TestSubscribedGuardBlocksPremium(t *testing.T) {
	blocked := func(_ context.Context, _ flow.Identity, r flow.Responder) (bool, error) {
		return false, r.Send("upsell", nil)
	}
	h := newHarness(t, func(d *Deps) { d.Subscribed = blocked })

	for _, feature := range []string{FeatureAssignment, FeatureProject} {
		h.enter(t, feature)
		assert.Equal(t, "upsell", h.r.last().Text)
		_, ok := h.state(t)
		assert.False(t, ok, feature)
	}

	h.enter(t, FeatureTutor)
	st, ok := h.state(t)
	require.True(t, ok, "tutor is free")
	assert.Equal(t, tutorAskQuestion, st)
}
