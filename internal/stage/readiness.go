package stage

// Readiness reports whether a stage's postcondition already holds.
type Readiness struct {
	Ready  bool
	Reason string
}

// Satisfied constructs a ready Readiness with context detail.
func Satisfied(reason string) Readiness {
	return Readiness{Ready: true, Reason: reason}
}

// Pending constructs an unsatisfied Readiness with context detail.
func Pending(reason string) Readiness {
	return Readiness{Ready: false, Reason: reason}
}

// From adapts the (bool, reason) pairs returned by readiness predicates.
func From(ready bool, reason string) Readiness {
	return Readiness{Ready: ready, Reason: reason}
}
