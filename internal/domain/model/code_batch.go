package model

// MaxBatchCount is the largest batch one run may request. It keeps the
// retry budget (count*10) and the in-memory batch bounded.
const MaxBatchCount = 1_000_000

// CodeBatch is the sorted, duplicate-free result of one generation run.
type CodeBatch struct {
	Codes     []string
	Requested int
	Attempts  int
}

// Len returns the number of codes actually produced.
func (b *CodeBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Codes)
}

// Shortfall is how many codes the retry budget failed to deliver.
func (b *CodeBatch) Shortfall() int {
	if b == nil {
		return 0
	}
	if d := b.Requested - len(b.Codes); d > 0 {
		return d
	}
	return 0
}

// Short reports whether fewer codes than requested were produced.
func (b *CodeBatch) Short() bool {
	return b.Shortfall() > 0
}
