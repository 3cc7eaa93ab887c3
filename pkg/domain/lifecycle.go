package domain

// LifecycleState is the explicit state of an Instance.
// Transitions are Uninitialized -> Initialized -> Cleaned; Cleaned is terminal.
type LifecycleState int

const (
	StateUninitialized LifecycleState = iota
	StateInitialized
	StateCleaned
)

func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateCleaned:
		return "cleaned"
	default:
		return "unknown"
	}
}
