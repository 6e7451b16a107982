package metrics

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
)

// Capture is the fraction of particles inside a separatrix of the RF
// setting in force, as of the last observed turn. Separatrices are
// extracted once per setting.
type Capture struct {
	name     string
	model    *bucket.Model
	seps     []bucket.Separatrix
	fraction float64
	samples  int
}

func NewCapture() *Capture {
	return &Capture{name: "capture", fraction: 1}
}

func (c *Capture) Name() string {
	return c.name
}

func (c *Capture) Observe(f beam.Frame) {
	if f.Model == nil || len(f.Phi) == 0 {
		return
	}
	if f.Model != c.model {
		seps, err := f.Model.Separatrices()
		if err != nil {
			logrus.Debugf("capture: no separatrix at turn %d: %v", f.Turn, err)
			seps = nil
		}
		c.model = f.Model
		c.seps = seps
	}

	inside := 0
	for i := range f.Phi {
		for _, s := range c.seps {
			if s.Contains(f.Phi[i], f.DeltaE[i]) {
				inside++
				break
			}
		}
	}
	c.fraction = float64(inside) / float64(len(f.Phi))
	c.samples++
}

func (c *Capture) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return c.fraction
}

func (c *Capture) Reset() {
	c.model = nil
	c.seps = nil
	c.fraction = 1
	c.samples = 0
}
