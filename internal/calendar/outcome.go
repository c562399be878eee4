package calendar

import "fmt"

// Kind classifies the result of a reserve or cancel call.
type Kind int

const (
	KindOK Kind = iota
	// KindSkipped means there was no signed-in user; nothing happened.
	KindSkipped
	// KindBusy means another mutation was still in flight.
	KindBusy
	KindInvalidTimeFormat
	KindInvalidRange
	KindPastDate
	KindNotOwner
	KindOverlapConflict
	KindStoreError
)

var kindNames = map[Kind]string{
	KindOK:                "ok",
	KindSkipped:           "skipped",
	KindBusy:              "busy",
	KindInvalidTimeFormat: "invalid_time_format",
	KindInvalidRange:      "invalid_range",
	KindPastDate:          "past_date",
	KindNotOwner:          "not_owner",
	KindOverlapConflict:   "overlap_conflict",
	KindStoreError:        "store_error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Phase is the last state a mutation reached: Idle -> Submitting -> Committed | RolledBack.
type Phase int

const (
	// PhaseIdle means the call was rejected before anything was submitted.
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled_back"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Action int

const (
	ActionReserve Action = iota
	ActionCancel
)

type Outcome struct {
	Action Action
	Kind   Kind
	Phase  Phase
	// Err is the store error behind KindOverlapConflict and KindStoreError.
	Err error
}

func (o Outcome) Failed() bool {
	return o.Kind != KindOK && o.Kind != KindSkipped
}

// Message is the user-facing text for the outcome; empty for skipped calls.
func (o Outcome) Message() string {
	switch o.Kind {
	case KindOK:
		if o.Action == ActionCancel {
			return "Cancelled."
		}
		return "Booked."
	case KindBusy:
		return "Error: another request is still in progress."
	case KindInvalidTimeFormat:
		return "Error: invalid time format, use HH:MM."
	case KindInvalidRange:
		return "Error: start must be before end, within 00:00-24:00."
	case KindPastDate:
		return "Error: past days cannot be booked."
	case KindNotOwner:
		return "Error: you can only cancel your own bookings."
	case KindOverlapConflict:
		return "Error: the time range overlaps another booking."
	case KindStoreError:
		if o.Action == ActionCancel {
			return "Error: cancellation failed: " + errText(o.Err)
		}
		return "Error: booking failed: " + errText(o.Err)
	}
	return ""
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
