package provider

// State is a step of the provide state machine.
type State int

const (
	StateCheckPreconditions State = iota
	StateCheckCache
	StateSkip
	StateRebuild
	StateValidate
	StateRegister
	StateFailedCleanup
)

var stateNames = [...]string{
	StateCheckPreconditions: "CHECK_PRECONDITIONS",
	StateCheckCache:         "CHECK_CACHE",
	StateSkip:               "SKIP",
	StateRebuild:            "REBUILD",
	StateValidate:           "VALIDATE",
	StateRegister:           "REGISTER",
	StateFailedCleanup:      "FAILED_CLEANUP",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Outcome summarizes a successful run.
type Outcome string

const (
	// OutcomeSkipped means the cache was valid and nothing was rebuilt.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeRebuilt means both artifacts were regenerated.
	OutcomeRebuilt Outcome = "rebuilt"

	// outcomeFailed labels failed runs in metrics.
	outcomeFailed Outcome = "failed"
)

// Observer is notified on entry to every state.
type Observer func(State)
