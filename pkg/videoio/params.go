package videoio

// Params is a flat list of open-time property/value pairs, as the native
// library takes them. Use With to build one; an odd length is rejected by
// the native side.
type Params []int32

// NewParams builds Params from alternating property/value integers.
func NewParams(pairs ...int32) Params {
	return Params(append([]int32(nil), pairs...))
}

// With returns p extended by one property/value pair.
func (p Params) With(prop Property, value int32) Params {
	return append(p[:len(p):len(p)], int32(prop), value)
}

// WithWriter returns p extended by one writer property/value pair.
func (p Params) WithWriter(prop WriterProperty, value int32) Params {
	return append(p[:len(p):len(p)], int32(prop), value)
}

// Lookup returns the value of the first pair for key.
func (p Params) Lookup(key int32) (int32, bool) {
	for i := 0; i+1 < len(p); i += 2 {
		if p[i] == key {
			return p[i+1], true
		}
	}
	return 0, false
}

func (p Params) ints() []int32 {
	if len(p) == 0 {
		return nil
	}
	return []int32(p)
}
