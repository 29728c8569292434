package queue

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMPMC_ProducersConsumer(t *testing.T) {
	q := NewMPMC[int](1024)
	producers := 8
	itemsPerProducer := 5000
	totalItems := int64(producers * itemsPerProducer)

	var wg sync.WaitGroup
	var sentSum, receivedSum int64

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				val := pid*itemsPerProducer + i + 1
				for !q.Enqueue(val) {
					runtime.Gosched()
				}
				atomic.AddInt64(&sentSum, int64(val))
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		var received int64
		for received < totalItems {
			if val, ok := q.Dequeue(); ok {
				atomic.AddInt64(&receivedSum, int64(val))
				received++
			} else {
				runtime.Gosched()
			}
		}
		close(done)
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out draining queue")
	}

	if sentSum != receivedSum {
		t.Fatalf("checksum mismatch: sent %d received %d", sentSum, receivedSum)
	}
}

func TestMPMC_FullReturnsFalse(t *testing.T) {
	q := NewMPMC[int](2)
	if !q.Enqueue(1) {
		t.Fatal("expected first enqueue to succeed")
	}
	if !q.Enqueue(2) {
		t.Fatal("expected second enqueue to succeed")
	}
	if q.Enqueue(3) {
		t.Fatal("expected enqueue on full queue to fail")
	}
	v, ok := q.Dequeue()
	if !ok || v != 1 {
		t.Fatalf("expected to dequeue 1, got %d ok=%v", v, ok)
	}
	if !q.Enqueue(3) {
		t.Fatal("expected enqueue to succeed after freeing a slot")
	}
}

func TestMPMC_EmptyDequeue(t *testing.T) {
	q := NewMPMC[int](4)
	if _, ok := q.Dequeue(); ok {
		t.Fatal("expected dequeue on empty queue to fail")
	}
}
