package domain

import "time"

// checkinGrace is subtracted from the check-in timestamp so a user who hacked
// a portal up to 30 minutes before pressing the button is not penalized.
const checkinGrace = 1800

// Streak thresholds in elapsed hours since the last check-in.
const (
	// WarnHours is where escalation starts.
	WarnHours = 24
	// UrgentHours is where escalation switches to high severity and fires every hour.
	UrgentHours = 30
	// ExpireHours is where the streak is unrecoverably lost.
	ExpireHours = 36
)

// Record holds the reminder state for one chat. The JSON shape matches the
// on-disk records collection.
type Record struct {
	CheckinAt  int64 `json:"ts"`              // unix seconds of last confirmed check-in
	DeltaHours int   `json:"dh"`              // elapsed-hours bucket at last evaluation, -1 = never evaluated
	Alert      *int  `json:"alert,omitempty"` // message id of the outstanding alert, nil when none
}

// NewRecord returns the state of a freshly started subscription.
func NewRecord(now time.Time) Record {
	return Record{CheckinAt: now.Unix(), DeltaHours: -1}
}

// CheckedIn returns the state after a confirmed check-in. The timestamp is
// backdated by the grace buffer.
func CheckedIn(now time.Time) Record {
	return Record{CheckinAt: now.Unix() - checkinGrace, DeltaHours: 0}
}

// ElapsedHours returns whole hours since the last check-in.
func (r Record) ElapsedHours(now time.Time) int {
	return int((now.Unix() - r.CheckinAt) / 3600)
}

// Severity of an escalation alert.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityHigh
)

// Action is what the scheduler should do with a record this tick.
type Action int

const (
	// ActionNone: nothing to send. The decision may still ask to persist
	// an updated DeltaHours.
	ActionNone Action = iota
	// ActionClear: the user is back inside the safe window, drop any
	// outstanding alert.
	ActionClear
	// ActionEscalate: send (or replace) an alert message.
	ActionEscalate
	// ActionExpire: the streak is lost, remove the record. Notify is false
	// for subscriptions that were never acknowledged.
	ActionExpire
)

// Decision is the outcome of evaluating one record at one instant.
type Decision struct {
	Action   Action
	Elapsed  int      // elapsed hours at evaluation time
	Severity Severity // meaningful only for ActionEscalate
	Notify   bool     // for ActionExpire: send the loss message
	Persist  bool     // record mutated (DeltaHours advanced), write it back
}

// Evaluate decides the next transition for a record. It is pure: the caller
// applies the returned Decision through the store and the dispatcher.
//
// Rules, in priority order:
//  1. never-evaluated records are silently dropped after a full day,
//     otherwise left pending;
//  2. same elapsed-hour bucket as last tick means nothing to do;
//  3. under 24h the user is safe, any alert is stale;
//  4. at 36h the streak is gone;
//  5. in between, alert every 2 hours until 30h, then every hour.
func Evaluate(r Record, now time.Time) Decision {
	elapsed := r.ElapsedHours(now)

	if r.DeltaHours == -1 {
		if elapsed >= WarnHours {
			return Decision{Action: ActionExpire, Elapsed: elapsed}
		}
		return Decision{Action: ActionNone, Elapsed: elapsed}
	}

	if elapsed == r.DeltaHours {
		return Decision{Action: ActionNone, Elapsed: elapsed}
	}

	if elapsed < WarnHours {
		return Decision{Action: ActionClear, Elapsed: elapsed, Persist: true}
	}

	if elapsed >= ExpireHours {
		return Decision{Action: ActionExpire, Elapsed: elapsed, Notify: true}
	}

	if elapsed >= UrgentHours {
		return Decision{Action: ActionEscalate, Elapsed: elapsed, Severity: SeverityHigh, Persist: true}
	}
	if elapsed%2 == 0 {
		return Decision{Action: ActionEscalate, Elapsed: elapsed, Severity: SeverityNormal, Persist: true}
	}
	// Odd hour in the throttled band: remember the bucket, stay quiet.
	return Decision{Action: ActionNone, Elapsed: elapsed, Persist: true}
}
