package domain

// Action is a lifecycle action requested against a work order.
type Action string

const (
	ActionCreate              Action = "create"
	ActionStart               Action = "start"
	ActionComplete            Action = "complete"
	ActionReopen              Action = "reopen"
	ActionCompleteIntegration Action = "complete-integration"
	ActionAssign              Action = "assign"
	ActionAddNote             Action = "add-note"
	ActionDelete              Action = "delete"
)

// MinReopenReasonLength is the minimum length of a reopen/integration reason.
const MinReopenReasonLength = 10

// transitionTable lists the state-changing transitions: for each source state,
// the legal actions and their resulting state. Actions absent from a state's
// row are illegal from that state. Assign, add-note and delete are handled
// separately because they are legal from any state.
var transitionTable = map[State]map[Action]State{
	StateOpen: {
		ActionStart:    StateInProgress,
		ActionComplete: StateCompleted,
	},
	StateInProgress: {
		ActionComplete: StateCompleted,
	},
	StateCompleted: {
		ActionReopen: StateReopened,
	},
	StateReopened: {
		ActionCompleteIntegration: StateCompleted,
	},
}

// universalActions are legal from every state and leave the state unchanged
// (delete destroys the record outside the transition graph).
var universalActions = map[Action]bool{
	ActionAssign:  true,
	ActionAddNote: true,
	ActionDelete:  true,
}

// NextState returns the state a work order moves to when action is applied
// from the given state, and whether the action is legal at all. Universal
// actions report the current state unchanged.
func NextState(from State, action Action) (State, bool) {
	if universalActions[action] {
		return from, true
	}
	next, ok := transitionTable[from][action]
	return next, ok
}

// CanTransition reports whether action is legal from the given state.
func CanTransition(from State, action Action) bool {
	_, ok := NextState(from, action)
	return ok
}
