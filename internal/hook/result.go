package hook

// Status classifies the outcome reported by a Result.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// Result is the uniform outcome record emitted by hook implementations
// and command bodies. Aggregated Results are the sole channel for
// reporting partial failure: a command that processed 30 repos and
// failed on 2 returns 30 Results, not an error.
type Result struct {
	// Name identifies what produced the result, e.g. a plugin name
	// or a per-unit identifier like "team-a/assignment-1".
	Name string

	Status Status
	Msg    string

	// Data carries optional structured payload for machine consumers.
	Data map[string]any
}

// Success creates a SUCCESS result.
func Success(name, msg string) *Result {
	return &Result{Name: name, Status: StatusSuccess, Msg: msg}
}

// Warning creates a WARNING result.
func Warning(name, msg string) *Result {
	return &Result{Name: name, Status: StatusWarning, Msg: msg}
}

// Error creates an ERROR result.
func Error(name, msg string) *Result {
	return &Result{Name: name, Status: StatusError, Msg: msg}
}
