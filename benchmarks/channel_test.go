package benchmarks

import (
	"strconv"
	"testing"

	"github.com/randalmurphal/prioflow/pkg/prioflow"
)

func benchName(prefix string, n int) string {
	return prefix + "_" + strconv.Itoa(n)
}

// BenchmarkNew measures channel construction overhead.
func BenchmarkNew(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := prioflow.New(64); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPutGet measures one uncontended put/get round trip.
func BenchmarkPutGet(b *testing.B) {
	ch, err := prioflow.New(64)
	if err != nil {
		b.Fatal(err)
	}
	m := prioflow.Message{Value: 1, Priority: 5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := ch.Put(m); err != nil {
			b.Fatal(err)
		}
		if _, err := ch.Get(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPutGetInterruptible measures the interruptible round trip with a
// live token, the path workers actually take.
func BenchmarkPutGetInterruptible(b *testing.B) {
	ch, err := prioflow.New(64)
	if err != nil {
		b.Fatal(err)
	}
	tok := prioflow.NewToken()
	m := prioflow.Message{Value: 1, Priority: 5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := ch.PutInterruptible(m, tok); err != nil {
			b.Fatal(err)
		}
		if _, err := ch.GetInterruptible(tok); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGetPriorityScan measures the linear max-priority scan at several
// occupancies.
func BenchmarkGetPriorityScan(b *testing.B) {
	for _, depth := range []int{1, 16, 64, 256} {
		b.Run(benchName("depth", depth), func(b *testing.B) {
			ch, err := prioflow.New(depth)
			if err != nil {
				b.Fatal(err)
			}
			for j := 0; j < depth; j++ {
				if err := ch.Put(prioflow.Message{Value: j, Priority: j % 10}); err != nil {
					b.Fatal(err)
				}
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m, err := ch.Get()
				if err != nil {
					b.Fatal(err)
				}
				if err := ch.Put(m); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkContended measures throughput with concurrent producers and
// consumers hammering a small channel.
func BenchmarkContended(b *testing.B) {
	ch, err := prioflow.New(8)
	if err != nil {
		b.Fatal(err)
	}
	tok := prioflow.NewToken()

	b.RunParallel(func(pb *testing.PB) {
		m := prioflow.Message{Value: 1, Priority: 5}
		for pb.Next() {
			if err := ch.PutInterruptible(m, tok); err != nil {
				b.Fatal(err)
			}
			if _, err := ch.GetInterruptible(tok); err != nil {
				b.Fatal(err)
			}
		}
	})
}
