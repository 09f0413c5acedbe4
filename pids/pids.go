package pids

// DecodeFunc turns the data bytes of a diagnostic response into a physical
// value. It reports false when the payload is too short or otherwise
// malformed; it never panics.
type DecodeFunc func(data []byte) (float64, bool)

// Definition describes a single pollable parameter: the request as sent on
// the wire, the number of data bytes expected back after the service/PID
// echo, and the arithmetic that turns those bytes into a physical value.
type Definition struct {
	Name      string
	Request   string
	DataBytes int
	Decode    DecodeFunc
}

// Registry is an ordered, lookup-only collection of definitions. It is
// built once and owned by whoever samples it; there is no process-wide
// registration.
type Registry struct {
	order []string
	defs  map[string]*Definition
}

func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{
		defs: make(map[string]*Definition, len(defs)),
	}
	for _, def := range defs {
		if _, ok := r.defs[def.Name]; ok {
			continue
		}
		r.order = append(r.order, def.Name)
		r.defs[def.Name] = def
	}
	return r
}

// Names returns the definition names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Decode runs the named definition's decode over data. Unknown names and
// malformed payloads both resolve to absence.
func (r *Registry) Decode(name string, data []byte) (float64, bool) {
	def, ok := r.defs[name]
	if !ok || def.Decode == nil {
		return 0, false
	}
	return def.Decode(data)
}
