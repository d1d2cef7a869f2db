package taskname

const (
	// Metrics tasks
	MetricsIngest = "clipmetrics:ingest"

	// Payout tasks
	PayoutRunBatch = "payout:run_batch"
)
