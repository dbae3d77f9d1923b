// Package models holds the server-side domain types persisted by the
// repositories.
package models

import "time"

// Status is the submission state of an application. The only transition is
// incomplete -> submitted.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusSubmitted  Status = "submitted"
)

// ReviewStatus is the administrator-assigned outcome, independent of Status.
type ReviewStatus string

const (
	ReviewNone       ReviewStatus = "none"
	ReviewAccepted   ReviewStatus = "accepted"
	ReviewRejected   ReviewStatus = "rejected"
	ReviewWaitlisted ReviewStatus = "waitlisted"
	ReviewOnHold     ReviewStatus = "on_hold"
)

// ReviewStatuses lists every accepted review status value.
var ReviewStatuses = []ReviewStatus{ReviewNone, ReviewAccepted, ReviewRejected, ReviewWaitlisted, ReviewOnHold}

// Valid reports whether s belongs to the closed set of review statuses.
func (s ReviewStatus) Valid() bool {
	for _, v := range ReviewStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Application is one submission attempt owned by a single user.
type Application struct {
	ID              int64
	UserID          int64
	Status          Status
	ReviewStatus    ReviewStatus
	Fields          ApplicationFields
	GradeReportPath *string
	UploadPath      *string
	CreatedAt       time.Time
	SubmittedAt     *time.Time
}

// Submitted reports whether the application has left the draft state.
func (a *Application) Submitted() bool {
	return a.Status == StatusSubmitted
}

// AttachmentRefs carries attachment references for a submit. A nil field
// keeps the stored reference.
type AttachmentRefs struct {
	GradeReport *string
	Upload      *string
}

// Activity is a child record of an application.
type Activity struct {
	Type     string `json:"type"`
	Position string `json:"position"`
	Org      string `json:"org"`
	Desc     string `json:"desc"`
}

// Letter is a templated status letter keyed by review status.
type Letter struct {
	Status  ReviewStatus
	Content string
}
