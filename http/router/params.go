package router

import "github.com/xy-planning-network/trailhead/http/req"

// A Param is one placeholder value extracted from a path.
type Param struct {
	Name  string
	Value string
}

// Params are the placeholder values of a match,
// ordered as the placeholders appear in the Route's path.
type Params []Param

// Get returns the value captured for name.
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}

	return "", false
}

func (ps Params) Map() map[string]string {
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		m[p.Name] = p.Value
	}

	return m
}

func (ps Params) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}

	return names
}

// Values exposes ps as req.Values so handlers read them through the typed getters:
//
//	id, err := p.Values().Int("id", 0)
func (ps Params) Values() req.Values {
	m := make(map[string]req.Value, len(ps))
	for _, p := range ps {
		m[p.Name] = req.StringValue(p.Value)
	}

	return req.NewValues(m)
}
