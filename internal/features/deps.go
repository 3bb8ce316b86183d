// Package features declares the conversation machines of the bot: course
// advisor, assignment helper, project writer, tutor and plan purchase.
package features

import (
	"context"
	"io"
	"time"

	"github.com/m3rciful/scholarbot/internal/files"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/payment"
	"github.com/m3rciful/scholarbot/internal/research"
)

// Store is the persistence the features write to.
type Store interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (models.User, error)
	CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error)
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	AddChapter(ctx context.Context, c models.ProjectChapter) (models.ProjectChapter, error)
	ActivePlans(ctx context.Context) ([]models.PricingPlan, error)
	GetPlan(ctx context.Context, id int64) (models.PricingPlan, error)
}

// Documents turns an uploaded document into text.
type Documents interface {
	Process(ctx context.Context, name string, body io.Reader) (files.Processed, error)
}

// Checkout mints payment links.
type Checkout interface {
	Checkout(ctx context.Context, telegramID int64, plan models.PricingPlan, email string) (string, error)
	ValidEmail(s string) bool
}

// Deps are shared by every machine.
type Deps struct {
	Research research.Completer
	Store    Store
	// Documents may be nil; uploads are then declined.
	Documents Documents
	Checkout  Checkout
	Payments  *payment.Switch
	// Subscribed guards premium features; nil lets everyone in.
	Subscribed flow.Guard

	PaymentTimeout time.Duration
}

// Machines builds every feature machine.
func Machines(d Deps) []*flow.Machine {
	if d.PaymentTimeout <= 0 {
		d.PaymentTimeout = 300 * time.Second
	}
	return []*flow.Machine{
		advisorMachine(d),
		assignmentMachine(d),
		projectMachine(d),
		tutorMachine(d),
		paymentMachine(d),
	}
}

func menuOnly() flow.Keyboard {
	return flow.Row(flow.MenuButton)
}

func withMenu(b flow.Button) flow.Keyboard {
	return flow.Keyboard{{b}, {flow.MenuButton}}
}
