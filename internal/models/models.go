// Package models holds the persisted records shared by the store and the bot features.
package models

import "time"

// Subscription statuses as written by the payment webhook.
const (
	StatusInactive    = "inactive"
	StatusActive      = "active"
	StatusCancelled   = "cancelled"
	StatusNonRenewing = "non-renewing"
	StatusAttention   = "attention"
)

// Project statuses.
const (
	ProjectDraft      = "draft"
	ProjectGenerating = "generating"
	ProjectCompleted  = "completed"
)

// WordsPerPage converts a page budget into a word budget.
const WordsPerPage = 750

type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	FirstName  string    `db:"first_name"`
	IsAdmin    bool      `db:"is_admin"`
	CreatedAt  time.Time `db:"created_at"`
}

// DisplayName prefers the @username, then the first name.
func (u User) DisplayName() string {
	switch {
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "":
		return u.FirstName
	}
	return "Anonymous"
}

// PricingPlan prices are in kobo.
type PricingPlan struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Price            int64     `db:"price"`
	Interval         string    `db:"interval"`
	PaystackPlanCode *string   `db:"paystack_plan_code"`
	Description      string    `db:"description"`
	IsActive         bool      `db:"is_active"`
	CreatedAt        time.Time `db:"created_at"`
}

// PlanCode returns the Paystack plan code or "".
func (p PricingPlan) PlanCode() string {
	if p.PaystackPlanCode == nil {
		return ""
	}
	return *p.PaystackPlanCode
}

type Subscription struct {
	ID                       int64      `db:"id"`
	UserID                   int64      `db:"user_id"`
	PlanID                   *int64     `db:"plan_id"`
	PaystackSubscriptionCode string     `db:"paystack_subscription_code"`
	PaystackCustomerCode     string     `db:"paystack_customer_code"`
	PaystackEmail            string     `db:"paystack_email"`
	Status                   string     `db:"status"`
	NextPaymentDate          *time.Time `db:"next_payment_date"`
	CreatedAt                time.Time  `db:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at"`
}

type Project struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	Topic     string    `db:"topic"`
	PageCount int       `db:"page_count"`
	WordCount int       `db:"word_count"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type ProjectChapter struct {
	ID        int64     `db:"id"`
	ProjectID int64     `db:"project_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

type Assignment struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Topic         string    `db:"topic"`
	FileURL       string    `db:"file_url"`
	ExtractedText string    `db:"extracted_text"`
	AIResponse    string    `db:"ai_response"`
	CreatedAt     time.Time `db:"created_at"`
}

// DashboardStats feeds the admin overview.
type DashboardStats struct {
	Users             int `db:"users"`
	ActiveSubscribers int `db:"active_subscribers"`
	ActivePlans       int `db:"active_plans"`
}
