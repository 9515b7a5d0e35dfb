package writerinfo

// State is the liveliness state of a remote writer.
type State uint8

const (
	// StateNotSet is the state before any activity has been seen.
	StateNotSet State = iota

	// StateAlive indicates the writer asserted liveliness within its lease.
	StateAlive

	// StateDead indicates the writer's lease expired.
	StateDead
)

// invalidStateName is reported for values outside the defined states.
const invalidStateName = "Invalid state"

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotSet:
		return "NOT_SET"
	case StateAlive:
		return "ALIVE"
	case StateDead:
		return "DEAD"
	default:
		return invalidStateName
	}
}

// IsValid returns true for the defined states.
func (s State) IsValid() bool {
	return s <= StateDead
}
