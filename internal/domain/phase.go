package domain

// Phase is one stage of a load cycle as seen by progress observers.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFetching   Phase = "fetching"
	PhaseProcessing Phase = "processing"
	PhaseScoring    Phase = "scoring"
	PhaseComplete   Phase = "complete"
)

// Rank orders phases within one cycle. Idle ranks lowest.
func (p Phase) Rank() int {
	switch p {
	case PhaseFetching:
		return 1
	case PhaseProcessing:
		return 2
	case PhaseScoring:
		return 3
	case PhaseComplete:
		return 4
	default:
		return 0
	}
}
