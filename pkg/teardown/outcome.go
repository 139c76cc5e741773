package teardown

// OutcomeState classifies a full reconciliation run.
type OutcomeState string

const (
	// StateClean means verification found nothing belonging to the environment.
	StateClean OutcomeState = "clean"
	// StatePartial means some resources survived the run. They are reported,
	// not treated as a crash.
	StatePartial OutcomeState = "partial"
	// StateFailed means every destroy strategy failed and the environment is
	// substantially intact.
	StateFailed OutcomeState = "failed"
)

// Residual is a resource that survived the run and the reason it did.
type Residual struct {
	Kind   string `table:"Kind" json:"kind" yaml:"kind"`
	ID     string `table:"ID" json:"id" yaml:"id"`
	Reason string `table:"Reason" json:"reason" yaml:"reason"`
}

// Outcome is the externally observable result of a reconciliation run: what
// was removed, what remains and why, and the overall state. An operator acts
// on Remaining; nothing in here is needed to run the reconciler again.
type Outcome struct {
	State     OutcomeState `json:"state" yaml:"state"`
	Deleted   []string     `json:"deleted" yaml:"deleted"`
	Remaining []Residual   `json:"remaining" yaml:"remaining"`
}

func (o *Outcome) markDeleted(kind, id string) {
	o.Deleted = append(o.Deleted, kind+"/"+id)
}

func (o *Outcome) markRemaining(kind, id, reason string) {
	o.Remaining = append(o.Remaining, Residual{Kind: kind, ID: id, Reason: reason})
}
