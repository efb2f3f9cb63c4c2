package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlight_SharesResultAndError(t *testing.T) {
	var (
		g       SingleFlight
		calls   atomic.Int32
		shared  atomic.Int32
		release = make(chan struct{})
		entered = make(chan struct{})
		wg      sync.WaitGroup
	)
	errProfile := errors.New("profile unavailable")

	leader := func() {
		defer wg.Done()
		_, err, _ := g.Do("profile:3422819", func() (any, error) {
			calls.Add(1)
			close(entered)
			<-release
			return nil, errProfile
		})
		if !errors.Is(err, errProfile) {
			t.Errorf("leader got %v, want %v", err, errProfile)
		}
	}

	wg.Add(1)
	go leader()
	<-entered

	const followers = 8
	wg.Add(followers)
	for i := 0; i < followers; i++ {
		go func() {
			defer wg.Done()
			v, err, wasShared := g.Do("profile:3422819", func() (any, error) {
				calls.Add(1)
				return "late", nil
			})
			if wasShared {
				shared.Add(1)
			}
			if err == nil && v != "late" {
				t.Errorf("unexpected value %v", v)
			}
			if err != nil && !errors.Is(err, errProfile) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}

	close(release)
	wg.Wait()

	if calls.Load() < 1 || calls.Load() > followers+1 {
		t.Fatalf("unexpected call count %d", calls.Load())
	}
	if calls.Load()+shared.Load() < followers+1 {
		t.Fatalf("every caller must either run or share: calls=%d shared=%d", calls.Load(), shared.Load())
	}
}

func TestSingleFlight_ForgetStartsNewCall(t *testing.T) {
	var g SingleFlight
	block := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _, _ = g.Do("ledger", func() (any, error) {
			close(started)
			<-block
			return 1, nil
		})
	}()
	<-started

	g.Forget("ledger")
	v, err, wasShared := g.Do("ledger", func() (any, error) { return 2, nil })
	close(block)

	if err != nil || wasShared || v != 2 {
		t.Fatalf("expected a fresh call after Forget, got v=%v err=%v shared=%t", v, err, wasShared)
	}
}
