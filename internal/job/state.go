package job

import "fmt"

// State is a lifecycle position of a job.
type State string

const (
	StateInit               State = "init"
	StateSpeechSynthesized  State = "speech_synthesized"
	StateBackgroundResolved State = "background_resolved"
	StateSubtitlesComposed  State = "subtitles_composed"
	StateMixed              State = "mixed"
	StateComposed           State = "composed"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

var forwardStates = []State{
	StateInit,
	StateSpeechSynthesized,
	StateBackgroundResolved,
	StateSubtitlesComposed,
	StateMixed,
	StateComposed,
	StateDone,
}

// States lists every state in lifecycle order, failed last.
func States() []State {
	return append(append([]State(nil), forwardStates...), StateFailed)
}

// ParseState validates a state name.
func ParseState(value string) (State, error) {
	for _, state := range States() {
		if string(state) == value {
			return state, nil
		}
	}
	return "", fmt.Errorf("unknown job state %q", value)
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Next returns the state that follows s on the success path.
func (s State) Next() (State, bool) {
	for i, state := range forwardStates[:len(forwardStates)-1] {
		if state == s {
			return forwardStates[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether the lifecycle permits from -> to.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}
