package model

// State is a position in the audit state machine:
//
//	Start -> FetchRobotsTxt -> ParsePaths -> ProbePaths -> [Verify ...] -> Report
//
// with the terminal states Success and FailedRobotsFetch.
type State int

const (
	// StateStart is the initial state of every audit.
	StateStart State = iota

	// StateFetchRobotsTxt is entered when the policy file is requested.
	StateFetchRobotsTxt

	// StateParsePaths is entered once the policy text is available.
	StateParsePaths

	// StateProbePaths is entered when the frozen PathSet is being probed.
	StateProbePaths

	// StateVerify is entered while external engines are queried.
	StateVerify

	// StateReport is entered when all stages have run.
	StateReport

	// StateSuccess is the terminal state of a completed audit.
	StateSuccess

	// StateFailedRobotsFetch is the terminal state of an audit whose policy
	// file could not be retrieved.
	StateFailedRobotsFetch
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateFetchRobotsTxt:
		return "FetchRobotsTxt"
	case StateParsePaths:
		return "ParsePaths"
	case StateProbePaths:
		return "ProbePaths"
	case StateVerify:
		return "Verify"
	case StateReport:
		return "Report"
	case StateSuccess:
		return "Success"
	case StateFailedRobotsFetch:
		return "FailedRobotsFetch"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailedRobotsFetch
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
