package presentation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the most recent readings of one temperature slot.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// window keeps the last size values.
type window struct {
	size   int
	values []float64
}

func newWindow(size int) *window {
	if size <= 0 {
		size = 1
	}
	return &window{size: size, values: make([]float64, 0, size)}
}

func (w *window) add(v float64) {
	if len(w.values) == w.size {
		copy(w.values, w.values[1:])
		w.values = w.values[:w.size-1]
	}
	w.values = append(w.values, v)
}

func (w *window) stats() Stats {
	n := len(w.values)
	if n == 0 {
		return Stats{}
	}
	s := Stats{
		Count: n,
		Mean:  stat.Mean(w.values, nil),
		Min:   floats.Min(w.values),
		Max:   floats.Max(w.values),
	}
	if n > 1 {
		s.StdDev = stat.StdDev(w.values, nil)
	}
	return s
}
