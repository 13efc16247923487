package progress

// DefaultMessages is the pool of status lines rotated while a load runs.
var DefaultMessages = []string{
	"Fetching your emails...",
	"Sorting through your inbox...",
	"Looking for newsletters...",
	"Counting senders...",
	"Checking what you usually keep...",
	"Spotting promotions...",
	"Almost there...",
	"Crunching the numbers...",
}

// nextMessage picks a message from pool that differs from prev. It gives up
// after a few draws, so a repeat is possible only with a one-item pool.
func nextMessage(pool []string, prev string, intn func(int) int) string {
	if len(pool) == 0 {
		return ""
	}
	const maxDraws = 8
	msg := pool[intn(len(pool))]
	for i := 1; i < maxDraws && msg == prev && len(pool) > 1; i++ {
		msg = pool[intn(len(pool))]
	}
	if msg == prev && len(pool) > 1 {
		for _, m := range pool {
			if m != prev {
				return m
			}
		}
	}
	return msg
}
