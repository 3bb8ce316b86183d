package features

import "github.com/m3rciful/scholarbot/internal/flow"

// Callback tokens. They are the Unique part of inline button data.
const (
	MenuCourseAdvisor = "MENU_COURSE_ADVISOR"
	MenuSubscribe     = "MENU_SUBSCRIBE"
	MenuProject       = "MENU_PROJECT"
	MenuAssignment    = "MENU_ASSIGNMENT"
	MenuTutor         = "MENU_TUTOR"
	MenuHelp          = "MENU_HELP"
	MenuAdmin         = "MENU_ADMIN"
	BackToMenu        = "BACK_TO_MENU"

	FollowUp       = "FOLLOW_UP"
	Pages          = "PAGES"
	PagesCustom    = "PAGES_CUSTOM"
	ProjectConfirm = "PROJECT_CONFIRM"
	ProjectCancel  = "PROJECT_CANCEL"
	SelectPlan     = "SELECT_PLAN"
)

// Feature names, also used as session tags.
const (
	FeatureAdvisor    = "advisor"
	FeatureAssignment = "assignment"
	FeatureProject    = "project"
	FeatureTutor      = "tutor"
	FeaturePayment    = "payment"
)

// FlowButtons maps in-conversation button tokens to event kinds.
var FlowButtons = map[string]flow.EventKind{
	FollowUp:       flow.EventFollowUp,
	Pages:          flow.EventPages,
	PagesCustom:    flow.EventCustomPages,
	ProjectConfirm: flow.EventConfirm,
	ProjectCancel:  flow.EventDecline,
	SelectPlan:     flow.EventSelectPlan,
}
