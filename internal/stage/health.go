package stage

// Health reports whether a pipeline stage's collaborators are reachable.
// The daemon surfaces these records on the status API, so Detail should be
// a short operator-facing explanation, not an error dump.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks a stage ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks a stage unavailable with an operator-facing reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
