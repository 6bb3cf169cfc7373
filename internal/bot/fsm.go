package bot

import (
	"sync"
	"time"
)

// State represents the current step of the booking dialog.
type State string

const (
	StateIdle      State = "idle"
	StateProcedure State = "procedure"
	StateDate      State = "date"
	StateTime      State = "time"
	StateName      State = "name"
	StatePhone     State = "phone"
	StateConfirm   State = "confirm"
)

// allowedTransitions defines the booking dialog as an explicit FSM.
// Every state may also reset to idle (cancel), handled separately.
var allowedTransitions = map[State][]State{
	StateIdle:      {StateProcedure},
	StateProcedure: {StateDate},
	StateDate:      {StateTime},
	StateTime:      {StateName},
	StateName:      {StatePhone},
	StatePhone:     {StateConfirm},
	StateConfirm:   {StateIdle},
}

// CanTransition reports whether the dialog may move from one state to
// another. Reset to idle is always allowed.
func CanTransition(from, to State) bool {
	if to == StateIdle {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingDraft is the typed payload collected across the dialog steps.
type BookingDraft struct {
	ProcedureID   int64
	ProcedureName string
	Duration      float64 // hours
	Date          string  // YYYY-MM-DD
	Slot          string  // HH:MM
	ClientName    string
	ClientPhone   string
}

// Session is one user's booking dialog.
type Session struct {
	State     State
	Draft     BookingDraft
	UpdatedAt time.Time
}

// SessionStore keeps per-user dialog sessions in memory. Abandoned
// dialogs leave no persisted state; expiry just drops the draft.
type SessionStore struct {
	sessions map[int64]*Session
	timeout  time.Duration
	mu       sync.Mutex
}

// NewSessionStore creates a session store with the given idle timeout.
func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[int64]*Session),
		timeout:  timeout,
	}
}

// Get returns the user's session, creating an idle one when missing or
// expired.
func (ss *SessionStore) Get(userID int64) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[userID]
	if !ok || time.Since(s.UpdatedAt) > ss.timeout {
		s = &Session{State: StateIdle, UpdatedAt: time.Now()}
		ss.sessions[userID] = s
	}
	return s
}

// Transition moves the session to a new state when allowed.
func (ss *SessionStore) Transition(userID int64, to State) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[userID]
	if !ok {
		s = &Session{State: StateIdle}
		ss.sessions[userID] = s
	}
	if !CanTransition(s.State, to) {
		return false
	}
	s.State = to
	s.UpdatedAt = time.Now()
	if to == StateIdle {
		s.Draft = BookingDraft{}
	}
	return true
}

// Reset drops the session back to idle with an empty draft.
func (ss *SessionStore) Reset(userID int64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[userID] = &Session{State: StateIdle, UpdatedAt: time.Now()}
}

// Cleanup removes expired sessions and returns how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for userID, s := range ss.sessions {
		if time.Since(s.UpdatedAt) > ss.timeout {
			delete(ss.sessions, userID)
			removed++
		}
	}
	return removed
}
