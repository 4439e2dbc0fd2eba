package stage

import "testing"

func TestReadinessConstructors(t *testing.T) {
	if r := Satisfied("done"); !r.Ready || r.Reason != "done" {
		t.Fatalf("unexpected satisfied readiness %+v", r)
	}
	if r := Pending("missing gospel"); r.Ready || r.Reason != "missing gospel" {
		t.Fatalf("unexpected pending readiness %+v", r)
	}
	if r := From(false, "x"); r != Pending("x") {
		t.Fatalf("From should mirror Pending, got %+v", r)
	}
}
