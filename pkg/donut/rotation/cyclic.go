package rotation

// Cyclic is an index into a ring of N items. All arithmetic wraps in both
// directions; the zero value is an index into an empty ring.
type Cyclic struct {
	i, n int
}

// NewCyclic returns index i wrapped into a ring of n items. For n <= 0 the
// result is the empty ring.
func NewCyclic(i, n int) Cyclic {
	if n <= 0 {
		return Cyclic{}
	}
	return Cyclic{i: wrap(i, n), n: n}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Int returns the index in [0, N).
func (c Cyclic) Int() int { return c.i }

// N returns the ring size.
func (c Cyclic) N() int { return c.n }

// Advance returns the index k steps forward; negative k steps backward.
func (c Cyclic) Advance(k int) Cyclic {
	if c.n == 0 {
		return c
	}
	return Cyclic{i: wrap(c.i+k%c.n, c.n), n: c.n}
}

// Next returns the following index.
func (c Cyclic) Next() Cyclic { return c.Advance(1) }

// Prev returns the preceding index.
func (c Cyclic) Prev() Cyclic { return c.Advance(-1) }

// Distance returns the shortest signed number of steps from c to o, in
// (-N/2, N/2]. Both indices must belong to rings of the same size.
func (c Cyclic) Distance(o Cyclic) int {
	if c.n == 0 {
		return 0
	}
	d := wrap(o.i-c.i, c.n)
	if d > c.n/2 {
		d -= c.n
	}
	return d
}
