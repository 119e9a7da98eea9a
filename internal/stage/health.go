package stage

// Health reports whether a pipeline stage can run with the current
// configuration and external tools.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks a stage ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks a stage unready with a reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// String renders the probe result for log lines and CLI output.
func (h Health) String() string {
	if h.Ready {
		return h.Name + ": ok"
	}
	return h.Name + ": " + h.Detail
}
