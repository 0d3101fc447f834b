package partition

// broadcastPartitioner implements the Broadcast strategy: every record is
// routed to all N downstream instances. The index vector is memoized and
// only rebuilt when N changes between calls, since N is fixed for the
// lifetime of a run (spec: "N may change only between job runs").
type broadcastPartitioner struct {
	n    int
	idxs []int
}

func (p *broadcastPartitioner) Partition(record Record, n int) (indexes []int, err error) {
	if n <= 0 {
		return nil, ErrInvalidResult
	}
	if p.n != n || p.idxs == nil {
		p.idxs = make([]int, n)
		for i := range p.idxs {
			p.idxs[i] = i
		}
		p.n = n
	}
	return p.idxs, nil
}
