package slotpool

// Stats is a point-in-time, read-only snapshot of a Controller's pool.
type Stats struct {
	WorkerCount int
	ReadyCount  int
	QueueLength int
}
