package llm

import (
	"errors"
	"sync"
	"testing"
	"time"

	"whetstone/internal/providers"
)

func TestHandleRetriesFailedConstruction(t *testing.T) {
	builds := 0
	adapter := &fakeAdapter{name: "openai", responses: []fakeResponse{{text: "x"}}}
	h := newHandle(func() (providers.Adapter, error) {
		builds++
		if builds == 1 {
			return nil, errors.New("no credential configured for openai")
		}
		return adapter, nil
	})

	if _, err := h.get(); err == nil {
		t.Fatal("first construction should fail")
	}
	got, err := h.get()
	if err != nil {
		t.Fatalf("second construction failed: %v", err)
	}
	if got != adapter {
		t.Fatal("unexpected adapter returned")
	}
	if builds != 2 {
		t.Fatalf("build ran %d times, want 2", builds)
	}
}

func TestHandleMemoizesSuccessfulConstruction(t *testing.T) {
	builds := 0
	h := newHandle(func() (providers.Adapter, error) {
		builds++
		return &fakeAdapter{name: "openai", responses: []fakeResponse{{text: "x"}}}, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := h.get(); err != nil {
			t.Fatalf("get %d failed: %v", i, err)
		}
	}
	if builds != 1 {
		t.Fatalf("build ran %d times, want 1", builds)
	}
}

func TestHandleSharesInFlightConstruction(t *testing.T) {
	builds := 0
	h := newHandle(func() (providers.Adapter, error) {
		builds++
		time.Sleep(20 * time.Millisecond)
		return &fakeAdapter{name: "openai", responses: []fakeResponse{{text: "x"}}}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.get(); err != nil {
				t.Errorf("concurrent get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if builds != 1 {
		t.Fatalf("build ran %d times, want one shared construction", builds)
	}
}

func TestHandleInvalidateForcesRebuild(t *testing.T) {
	builds := 0
	h := newHandle(func() (providers.Adapter, error) {
		builds++
		return &fakeAdapter{name: "openai", responses: []fakeResponse{{text: "x"}}}, nil
	})

	if _, err := h.get(); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	h.invalidate()
	if _, err := h.get(); err != nil {
		t.Fatalf("get after invalidate failed: %v", err)
	}
	if builds != 2 {
		t.Fatalf("build ran %d times, want 2", builds)
	}
}
