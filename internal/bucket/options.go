package bucket

const (
	DefaultNPhi    = 2000
	DefaultNDelta  = 400
	DefaultMaxIter = 200
	DefaultTol     = 1e-12
)

// Options controls grid resolution and the refine budget of the searches.
type Options struct {
	NPhi    int
	NDelta  int
	MaxIter int
	Tol     float64
}

func DefaultOptions() Options {
	return Options{
		NPhi:    DefaultNPhi,
		NDelta:  DefaultNDelta,
		MaxIter: DefaultMaxIter,
		Tol:     DefaultTol,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NPhi < 16 {
		o.NPhi = d.NPhi
	}
	if o.NDelta < 2 {
		o.NDelta = d.NDelta
	}
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if !(o.Tol > 0) {
		o.Tol = d.Tol
	}
	return o
}
