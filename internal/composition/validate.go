package composition

import (
	"errors"
	"fmt"
	"strings"

	"reelsmith/internal/services"
)

// Graph validation failures. Each is wrapped as services.ErrInvalidArgument.
var (
	ErrMissingInput   = errors.New("missing input")
	ErrCycle          = errors.New("cycle in filter graph")
	ErrMultipleSinks  = errors.New("multiple sinks")
	ErrDuplicateLabel = errors.New("duplicate label")
)

func invalidPlan(plan Plan, cause error, format string, args ...any) error {
	return services.Wrap(services.ErrInvalidArgument, "composition", "validate "+planName(plan), fmt.Sprintf(format, args...), cause)
}

func planName(plan Plan) string {
	if name := strings.TrimSpace(plan.Name); name != "" {
		return name
	}
	return "plan"
}

// Validate checks that every input is declared or produced, every produced
// label is consumed exactly once apart from the sink, and that the graph is
// acyclic with a single sink.
func (p Plan) Validate() error {
	_, err := p.order()
	return err
}

// order validates the plan and returns operation indexes in topological
// order, preserving declaration order among independent operations.
func (p Plan) order() ([]int, error) {
	if len(p.Operations) == 0 {
		return nil, invalidPlan(p, ErrMissingInput, "plan has no operations")
	}
	if p.Hints.AudioOnly && p.Hints.VideoOnly {
		return nil, services.Wrap(services.ErrInvalidArgument, "composition", "validate "+planName(p), "audio-only and video-only are exclusive", nil)
	}
	for i, src := range p.Sources {
		if strings.TrimSpace(src.Path) == "" {
			return nil, invalidPlan(p, ErrMissingInput, "source %d has no path", i)
		}
	}

	producer := make(map[string]int, len(p.Operations))
	for i, op := range p.Operations {
		label := strings.TrimSpace(op.Output)
		if label == "" {
			return nil, invalidPlan(p, ErrMissingInput, "operation %d (%s) has no output label", i, op.Filter.Name)
		}
		if _, _, raw := rawStream(label); raw {
			return nil, invalidPlan(p, ErrDuplicateLabel, "operation %d output %q shadows a raw stream", i, label)
		}
		if prev, exists := producer[label]; exists {
			return nil, invalidPlan(p, ErrDuplicateLabel, "label %q produced by operations %d and %d", label, prev, i)
		}
		if strings.TrimSpace(op.Filter.Name) == "" {
			return nil, invalidPlan(p, ErrMissingInput, "operation %d has no filter", i)
		}
		producer[label] = i
	}

	consumed := make(map[string]int, len(producer))
	indegree := make([]int, len(p.Operations))
	dependents := make([][]int, len(p.Operations))
	for i, op := range p.Operations {
		for _, input := range op.Inputs {
			if index, _, raw := rawStream(input); raw {
				if index >= len(p.Sources) {
					return nil, invalidPlan(p, ErrMissingInput, "operation %d reads %q but only %d sources are declared", i, input, len(p.Sources))
				}
				continue
			}
			from, ok := producer[input]
			if !ok {
				return nil, invalidPlan(p, ErrMissingInput, "operation %d reads undeclared label %q", i, input)
			}
			consumed[input]++
			if consumed[input] > 1 {
				return nil, invalidPlan(p, ErrDuplicateLabel, "label %q consumed more than once", input)
			}
			indegree[i]++
			dependents[from] = append(dependents[from], i)
		}
	}

	// Kahn's algorithm; the ready list stays sorted by declaration index.
	ready := make([]int, 0, len(p.Operations))
	for i := range p.Operations {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	ordered := make([]int, 0, len(p.Operations))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = insertSorted(ready, dep)
			}
		}
	}
	if len(ordered) != len(p.Operations) {
		stuck := make([]string, 0)
		for i, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, p.Operations[i].Output)
			}
		}
		return nil, invalidPlan(p, ErrCycle, "labels %s never become ready", strings.Join(stuck, ","))
	}

	var sinks []string
	for _, idx := range ordered {
		label := p.Operations[idx].Output
		if consumed[label] == 0 {
			sinks = append(sinks, label)
		}
	}
	if len(sinks) != 1 {
		return nil, invalidPlan(p, ErrMultipleSinks, "graph ends in %d labels (%s)", len(sinks), strings.Join(sinks, ","))
	}
	if p.Sink != "" && p.Sink != sinks[0] {
		return nil, invalidPlan(p, ErrMultipleSinks, "declared sink %q but graph ends at %q", p.Sink, sinks[0])
	}

	for _, label := range p.Passthrough {
		index, _, raw := rawStream(label)
		if !raw || index >= len(p.Sources) {
			return nil, invalidPlan(p, ErrMissingInput, "passthrough %q is not a declared raw stream", label)
		}
	}
	return ordered, nil
}

func insertSorted(list []int, v int) []int {
	pos := len(list)
	for i, existing := range list {
		if v < existing {
			pos = i
			break
		}
	}
	list = append(list, 0)
	copy(list[pos+1:], list[pos:])
	list[pos] = v
	return list
}

// SinkLabel returns the declared sink, or the computed one when the plan
// leaves it blank. It returns "" for invalid plans.
func (p Plan) SinkLabel() string {
	if p.Sink != "" {
		return p.Sink
	}
	ordered, err := p.order()
	if err != nil {
		return ""
	}
	used := make(map[string]bool)
	for _, op := range p.Operations {
		for _, in := range op.Inputs {
			used[in] = true
		}
	}
	for _, idx := range ordered {
		if label := p.Operations[idx].Output; !used[label] {
			return label
		}
	}
	return ""
}
