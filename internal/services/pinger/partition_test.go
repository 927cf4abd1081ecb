package pinger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("10.%d.%d.%d", i/65536%256, i/256%256, i%256)
	}
	return out
}

func sizes(batches [][]string) []int {
	out := make([]int, len(batches))
	for i, b := range batches {
		out[i] = len(b)
	}
	return out
}

func TestPartitionSizes(t *testing.T) {
	cases := []struct {
		n, workers, maxBatch int
		want                 []int
	}{
		{130, 4, 50, []int{44, 44, 42}},
		{10, 4, 50, []int{10}},
		{200, 4, 50, []int{50, 50, 50, 50}},
		{201, 4, 50, []int{51, 51, 51, 48}},
		{7, 3, 2, []int{3, 3, 1}},
		{1, 8, 50, []int{1}},
		{5, 1, 1, []int{5}},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%d_%d_%d", c.n, c.workers, c.maxBatch), func(t *testing.T) {
			assert.Equal(t, c.want, sizes(Partition(addrs(c.n), c.workers, c.maxBatch)))
		})
	}
}

func TestPartitionEmpty(t *testing.T) {
	assert.Empty(t, Partition(nil, 4, 50))
	assert.Empty(t, Partition([]string{}, 4, 50))
}

func TestPartitionIsOrderedExactCover(t *testing.T) {
	for n := 1; n <= 300; n += 7 {
		for _, w := range []int{1, 2, 3, 4, 8} {
			for _, b := range []int{1, 5, 50} {
				in := addrs(n)
				batches := Partition(in, w, b)

				require.LessOrEqual(t, len(batches), w)
				var flat []string
				for i, part := range batches {
					require.NotEmpty(t, part)
					if i < len(batches)-1 {
						require.Equal(t, len(batches[0]), len(part), "only the last batch may be shorter")
					}
					flat = append(flat, part...)
				}
				require.Equal(t, in, flat, "n=%d w=%d b=%d", n, w, b)
			}
		}
	}
}

func TestPartitionBatchesDoNotAlias(t *testing.T) {
	in := addrs(4)
	batches := Partition(in, 2, 2)
	require.Len(t, batches, 2)

	batches[0] = append(batches[0], "192.0.2.1")
	assert.Equal(t, "10.0.0.2", in[2])
}
