package pinger

// Partition splits addresses into at most maxWorkers ordered, non-overlapping
// batches of even size. With N addresses it uses
// workerCount = min(maxWorkers, ceil(N/maxBatchSize)) batches of
// ceil(N/workerCount) addresses each; only the last one may be shorter.
func Partition(addresses []string, maxWorkers, maxBatchSize int) [][]string {
	n := len(addresses)
	if n == 0 {
		return nil
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxBatchSize < 1 {
		maxBatchSize = 1
	}

	workers := min(maxWorkers, ceilDiv(n, maxBatchSize))
	size := ceilDiv(n, workers)

	batches := make([][]string, 0, workers)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		batches = append(batches, addresses[lo:hi:hi])
	}
	return batches
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
