package record

import (
	"sync"
	"testing"
)

func TestLogAppend(t *testing.T) {
	l := NewLog[int](3)

	for i := 0; i < 3; i++ {
		if !l.Append(i) {
			t.Fatalf("Append(%d) failed", i)
		}
	}
	if l.Append(3) {
		t.Error("Append() past capacity succeeded")
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
	for i, v := range l.Records() {
		if v != i {
			t.Errorf("Records()[%d] = %d", i, v)
		}
	}

	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Len() after Reset = %d", l.Len())
	}
	if !l.Append(7) || l.Records()[0] != 7 {
		t.Error("Append() after Reset failed")
	}
}

func TestLogConcurrentAppend(t *testing.T) {
	const goroutines, perG = 8, 500
	l := NewLog[Arg](goroutines * perG)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				l.Append(Arg{FileID: uint64(g), ArgIndex: uint32(i), Label: 1})
			}
		}(g)
	}
	wg.Wait()

	if l.Len() != goroutines*perG {
		t.Fatalf("Len() = %d, want %d", l.Len(), goroutines*perG)
	}
	for i, a := range l.Records() {
		if a.Label != 1 {
			t.Fatalf("record %d was never written", i)
		}
	}
}
