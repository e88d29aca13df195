package indexmanager

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"
)

const benchKeys = 2000

// concurrently runs fn over key indexes [0, benchKeys) with at most
// maxWorkers goroutines in flight.
func concurrently(maxWorkers int, fn func(i int)) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxWorkers)
	for i := 0; i < benchKeys; i++ {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}()
	}
	wg.Wait()
}

func BenchmarkConcurrentPut(b *testing.B) {
	ctx := context.Background()
	for n := 0; n < b.N; n++ {
		m, err := NewBPTreeIndexManager(32, nil, zap.NewNop())
		if err != nil {
			b.Fatal(err)
		}
		concurrently(20, func(i int) {
			key := "key-" + strconv.Itoa(i)
			if err := m.Put(ctx, key, []byte("value-"+strconv.Itoa(i))); err != nil {
				b.Error(err)
			}
		})
	}
}

func BenchmarkConcurrentGet(b *testing.B) {
	ctx := context.Background()
	m, err := NewBPTreeIndexManager(32, nil, zap.NewNop())
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < benchKeys; i++ {
		if err := m.Put(ctx, "key-"+strconv.Itoa(i), []byte("value-"+strconv.Itoa(i))); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		concurrently(10, func(i int) {
			v, found := m.Get(ctx, "key-"+strconv.Itoa(i))
			if !found || string(v) != "value-"+strconv.Itoa(i) {
				b.Errorf("key-%d: got %q, found %v", i, v, found)
			}
		})
	}
}
