// Package steps defines the agent's step enum, step dependencies and the
// per-step result record.
package steps

import (
	"fmt"
	"sort"
	"time"
)

// Step identifies one stage of an agent run
type Step int

const (
	DetectIntent Step = iota
	ExtractSignals
	AcquireJob
	MutateContent
	Score
	ResolveTheme
	Render
	CommitVersion
	Assemble
)

// Step categories
const (
	CategoryAnalysis     = "analysis"
	CategoryContent      = "content"
	CategoryPresentation = "presentation"
	CategoryPersistence  = "persistence"
)

// Step statuses
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusDegraded  = "degraded"
)

// StepDefinition defines metadata for a step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []Step
	Optional     []Step
}

// StepRegistry holds all step definitions
var StepRegistry = map[Step]StepDefinition{
	DetectIntent: {
		Name:     "detect_intent",
		Category: CategoryAnalysis,
	},
	ExtractSignals: {
		Name:         "extract_signals",
		Category:     CategoryAnalysis,
		Dependencies: []Step{DetectIntent},
	},
	AcquireJob: {
		Name:         "acquire_job",
		Category:     CategoryAnalysis,
		Dependencies: []Step{ExtractSignals},
	},
	MutateContent: {
		Name:         "mutate_content",
		Category:     CategoryContent,
		Dependencies: []Step{DetectIntent, ExtractSignals},
		Optional:     []Step{AcquireJob},
	},
	Score: {
		Name:         "score",
		Category:     CategoryAnalysis,
		Dependencies: []Step{MutateContent},
		Optional:     []Step{AcquireJob},
	},
	ResolveTheme: {
		Name:         "resolve_theme",
		Category:     CategoryPresentation,
		Dependencies: []Step{ExtractSignals},
	},
	Render: {
		Name:         "render",
		Category:     CategoryPresentation,
		Dependencies: []Step{MutateContent, ResolveTheme},
	},
	CommitVersion: {
		Name:         "commit_version",
		Category:     CategoryPersistence,
		Dependencies: []Step{MutateContent, ResolveTheme},
		Optional:     []Step{Score},
	},
	Assemble: {
		Name:         "assemble",
		Category:     CategoryPersistence,
		Dependencies: []Step{CommitVersion},
		Optional:     []Step{Score, Render},
	},
}

// String returns the step name
func (s Step) String() string {
	if def, ok := StepRegistry[s]; ok {
		return def.Name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Category returns the step category, or "" for unknown steps
func (s Step) Category() string {
	return StepRegistry[s].Category
}

// Lookup finds a step by name
func Lookup(name string) (Step, bool) {
	for step, def := range StepRegistry {
		if def.Name == name {
			return step, true
		}
	}
	return 0, false
}

// Result records how one step ended
type Result struct {
	Step     Step
	Status   string
	Duration time.Duration
	Error    error
	Prompts  []string
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.MissingDependencies)
}

// ValidateDependencies checks if all required dependencies for a step have
// finished. Degraded and skipped steps count as finished.
func ValidateDependencies(step Step, finished map[Step]bool) error {
	def, ok := StepRegistry[step]
	if !ok {
		return fmt.Errorf("unknown step: %d", int(step))
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !finished[dep] {
			missing = append(missing, dep.String())
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: def.Name, MissingDependencies: missing}
	}
	return nil
}

// AvailableSteps returns unfinished steps whose dependencies are met, in enum order
func AvailableSteps(finished map[Step]bool) []Step {
	var available []Step
	for _, step := range all() {
		if finished[step] {
			continue
		}
		if ValidateDependencies(step, finished) == nil {
			available = append(available, step)
		}
	}
	return available
}

// Order returns every step in an order that satisfies required and optional
// dependencies. Ties are broken by enum order so the result is stable.
func Order() ([]Step, error) {
	finished := make(map[Step]bool, len(StepRegistry))
	order := make([]Step, 0, len(StepRegistry))
	for len(order) < len(StepRegistry) {
		next, ok := nextReady(finished)
		if !ok {
			return nil, fmt.Errorf("step dependencies contain a cycle after %v", order)
		}
		finished[next] = true
		order = append(order, next)
	}
	return order, nil
}

func nextReady(finished map[Step]bool) (Step, bool) {
	for _, step := range all() {
		if finished[step] {
			continue
		}
		def := StepRegistry[step]
		ready := true
		for _, dep := range append(append([]Step(nil), def.Dependencies...), def.Optional...) {
			if !finished[dep] {
				ready = false
				break
			}
		}
		if ready {
			return step, true
		}
	}
	return 0, false
}

func all() []Step {
	out := make([]Step, 0, len(StepRegistry))
	for step := range StepRegistry {
		out = append(out, step)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
