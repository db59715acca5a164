package model

import (
	"fmt"
	"time"
)

// SubmissionStatus defines the state of a justification submission job.
type SubmissionStatus string

const (
	StatusSubmissionPending    SubmissionStatus = "PENDING"
	StatusSubmissionProcessing SubmissionStatus = "PROCESSING"
	StatusSubmissionCompleted  SubmissionStatus = "COMPLETED"
	StatusSubmissionFailed     SubmissionStatus = "FAILED"
)

// JustificationCode is the time clock's numeric reason code for a justification.
type JustificationCode int

const (
	CodeTimeBank      JustificationCode = 706
	CodeDayOvertime   JustificationCode = 260
	CodeNightOvertime JustificationCode = 261
)

// Seconds is a wall-clock amount of time.
type Seconds int64

func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}

// Clock renders the amount as HH:MM, dropping leftover seconds.
func (s Seconds) Clock() string {
	if s < 0 {
		return "-" + (-s).Clock()
	}
	return fmt.Sprintf("%02d:%02d", s/3600, (s%3600)/60)
}

// Journey holds the computed breakdown of one working day.
type Journey struct {
	Business    Seconds `json:"businessSeconds"`
	DayExtra    Seconds `json:"dayExtraSeconds"`
	NightExtra  Seconds `json:"nightExtraSeconds"`
	Credit      Seconds `json:"creditSeconds"`
	Debt        Seconds `json:"debtSeconds"`
	TotalWorked Seconds `json:"totalWorkedSeconds"`
	Breaks      Seconds `json:"breakSeconds"`
}

// Submission is the only mutable part of a DayRecord. A record has a single
// writer; readers may share it.
type Submission struct {
	justification string
	synced        bool
}

// NewSubmission restores a submission cell from stored or remote state.
func NewSubmission(justification string, synced bool) *Submission {
	return &Submission{justification: justification, synced: synced}
}

func (s *Submission) Justification() string {
	return s.justification
}

func (s *Submission) Synced() bool {
	return s.synced
}

// SetJustification records a local edit. The cell stays unsynced until the
// time clock accepts it.
func (s *Submission) SetJustification(text string) {
	s.justification = text
	s.synced = false
}

// MarkSynced is called once the time clock holds the current justification.
func (s *Submission) MarkSynced() {
	s.synced = true
}

// DayRecord is the reconciled view of one calendar day.
type DayRecord struct {
	Date        time.Time
	IsHoliday   bool
	HolidayName string
	Journey     Journey
	Submission  *Submission

	punches []time.Time
}

// NewDayRecord builds a record around an already computed journey.
func NewDayRecord(date time.Time, punches []time.Time, journey Journey, submission *Submission) DayRecord {
	if submission == nil {
		submission = NewSubmission("", true)
	}
	return DayRecord{
		Date:       date,
		Journey:    journey,
		Submission: submission,
		punches:    append([]time.Time(nil), punches...),
	}
}

// NewHolidayRecord builds a record for a non-working day.
func NewHolidayRecord(date time.Time, name string) DayRecord {
	return DayRecord{
		Date:        date,
		IsHoliday:   true,
		HolidayName: name,
		Submission:  NewSubmission("", true),
	}
}

// Punches returns a copy of the day's punches.
func (d DayRecord) Punches() []time.Time {
	return append([]time.Time(nil), d.punches...)
}

func (d DayRecord) IsEmpty() bool         { return len(d.punches) == 0 }
func (d DayRecord) HasMissingPunch() bool { return len(d.punches)%2 != 0 }
func (d DayRecord) HasDayExtras() bool    { return d.Journey.DayExtra > 0 }
func (d DayRecord) HasNightExtras() bool  { return d.Journey.NightExtra > 0 }
func (d DayRecord) HasCredit() bool       { return d.Journey.Credit > 0 }
func (d DayRecord) HasDebt() bool         { return d.Journey.Debt > 0 }

// NeedsJustification reports whether the day carries overtime or time-bank credit.
func (d DayRecord) NeedsJustification() bool {
	return d.HasCredit() || d.HasDayExtras() || d.HasNightExtras()
}

// Justification is a shortcut for the submission cell's text.
func (d DayRecord) Justification() string {
	if d.Submission == nil {
		return ""
	}
	return d.Submission.Justification()
}

// Synced is a shortcut for the submission cell's synced flag.
func (d DayRecord) Synced() bool {
	if d.Submission == nil {
		return true
	}
	return d.Submission.Synced()
}

// IsPending reports a day that needs a justification and has none yet.
func (d DayRecord) IsPending() bool {
	return d.NeedsJustification() && d.Justification() == ""
}
