package metrics

// Recorder forwards use-case outcomes to the package collectors.
type Recorder struct{}

func (Recorder) ObserveGeneration(produced, shortfall, attempts int) {
	ObserveGeneration(produced, shortfall, attempts)
}

func (Recorder) AddInserted(inserted, skipped int) { AddInserted(inserted, skipped) }

func (Recorder) IncRedeem(result string) { IncRedeem(result) }
