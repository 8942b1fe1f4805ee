package ir

// Vars is the flat variable namespace of one engine instance. Directives,
// shortcodes and the batch interpolator read and write it; it is never
// shared between engines.
type Vars map[string]Value

// Get returns the named variable, Null when unset.
func (v Vars) Get(name string) Value {
	if val, ok := v[name]; ok && val != nil {
		return val
	}
	return Null{}
}

// Has reports whether the variable exists and is not Null.
func (v Vars) Has(name string) bool {
	return IsSet(v[name])
}

// Set stores a variable. A nil value is stored as Null.
func (v Vars) Set(name string, val Value) {
	if val == nil {
		val = Null{}
	}
	v[name] = val
}

// SetString is shorthand for Set(name, String(s)).
func (v Vars) SetString(name, s string) {
	v[name] = String(s)
}

// SetInt is shorthand for Set(name, Int(n)).
func (v Vars) SetInt(name string, n int64) {
	v[name] = Int(n)
}

// Merge copies every entry of other into v, overriding existing names.
func (v Vars) Merge(other map[string]Value) {
	for k, val := range other {
		v.Set(k, val)
	}
}
