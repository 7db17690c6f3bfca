package models

import "time"

type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionConfirmed  SessionStatus = "confirmed"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
	SessionDisputed   SessionStatus = "disputed"
)

type Session struct {
	ID                 int64         `json:"id"`
	UserSkillID        int64         `json:"user_skill_id"`
	TeacherID          int64         `json:"teacher_id"`
	StudentID          int64         `json:"student_id"`
	ScheduledStart     time.Time     `json:"scheduled_start"`
	ScheduledEnd       time.Time     `json:"scheduled_end"`
	ActualStart        *time.Time    `json:"actual_start"`
	ActualEnd          *time.Time    `json:"actual_end"`
	CreditsCost        float64       `json:"credits_cost"`
	Status             SessionStatus `json:"status"`
	TeacherConfirmed   bool          `json:"teacher_confirmed"`
	StudentConfirmed   bool          `json:"student_confirmed"`
	ConfirmedAt        *time.Time    `json:"confirmed_at"`
	CancelledAt        *time.Time    `json:"cancelled_at"`
	CancellationReason *string       `json:"cancellation_reason"`
	IsOnline           bool          `json:"is_online"`
	Location           *string       `json:"location"`
	MeetingLink        *string       `json:"meeting_link"`
	Version            int64         `json:"version"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type SessionDetail struct {
	Session
	Transactions []CreditTransaction `json:"transactions,omitempty"`
	// SettlementPending is set when a session completed but the credit
	// transfer to the teacher has not gone through yet.
	SettlementPending bool `json:"settlement_pending,omitempty"`
}
