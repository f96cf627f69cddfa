package ocr

import "runtime"

// SizePolicy derives a pool size from the host's CPU count.
type SizePolicy struct {
	Min        int
	Max        int
	Multiplier int
}

// DefaultSizePolicy scales to twice the core count, between 4 and 16 workers.
var DefaultSizePolicy = SizePolicy{Min: 4, Max: 16, Multiplier: 2}

// Size returns the pool size for the given core count.
func (p SizePolicy) Size(cores int) int {
	if cores < 1 {
		cores = 1
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	size := cores * multiplier
	if p.Max > 0 && size > p.Max {
		size = p.Max
	}
	if size < p.Min {
		size = p.Min
	}
	if size < 1 {
		size = 1
	}
	return size
}

// PoolSize applies DefaultSizePolicy.
func PoolSize(cores int) int {
	return DefaultSizePolicy.Size(cores)
}

// DefaultPoolSize applies DefaultSizePolicy to this machine.
func DefaultPoolSize() int {
	return PoolSize(runtime.NumCPU())
}
