package model

// Diff carries the before/after role sets of a mutating call.
type Diff struct {
	Before []Role `json:"before"`
	After  []Role `json:"after"`
}

// Result is the uniform envelope returned by every mutating operation.
// Existing is the state snapshot taken before the call and EndState the
// snapshot after it, so callers can assert both the delta and the absolute
// sets without re-querying.
type Result struct {
	Changed  bool   `json:"changed"`
	Msg      string `json:"msg"`
	Existing []Role `json:"existing"`
	EndState []Role `json:"end_state"`
	Diff     *Diff  `json:"diff,omitempty"`
}

// ApplyResult is the envelope returned by the reconcile (apply)
// endpoints. Existing and EndState carry the object representation before
// and after the call, nil when the object is absent.
type ApplyResult struct {
	Changed  bool   `json:"changed"`
	Msg      string `json:"msg"`
	Existing any    `json:"existing"`
	EndState any    `json:"end_state"`
}

// Unchanged builds a no-op result around a snapshot.
func Unchanged(msg string, snapshot []Role) *Result {
	return &Result{
		Changed:  false,
		Msg:      msg,
		Existing: snapshot,
		EndState: snapshot,
	}
}
