package flow

import (
	"github.com/m3rciful/scholarbot/core/telegram/state"
	"github.com/m3rciful/scholarbot/internal/research"
)

type AdvisorData struct {
	Course string `json:"course,omitempty"`
}

type AssignmentData struct {
	AssignmentID int64              `json:"assignment_id,omitempty"`
	Topic        string             `json:"topic,omitempty"`
	FileURL      string             `json:"file_url,omitempty"`
	FileText     string             `json:"file_text,omitempty"`
	History      []research.Message `json:"history,omitempty"`
}

type ProjectData struct {
	ProjectID int64  `json:"project_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Pages     int    `json:"pages,omitempty"`
}

type TutorData struct {
	History []research.Message `json:"history,omitempty"`
}

// PaymentData snapshots the chosen plan between plan choice and email capture.
type PaymentData struct {
	PlanID   int64  `json:"plan_id,omitempty"`
	PlanName string `json:"plan_name,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
}

// Data holds the payload of the active feature. Only that feature's pointer is set.
type Data struct {
	Advisor    *AdvisorData    `json:"advisor,omitempty"`
	Assignment *AssignmentData `json:"assignment,omitempty"`
	Project    *ProjectData    `json:"project,omitempty"`
	Tutor      *TutorData      `json:"tutor,omitempty"`
	Payment    *PaymentData    `json:"payment,omitempty"`
}

// Session is the conversation record handlers mutate.
type Session = state.Session[Data]

// State aliases the session state tag.
type State = state.State

// Terminal ends a conversation; the session is deleted.
const Terminal State = "end"
