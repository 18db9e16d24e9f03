package buildnumber_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dantte-lp/gitbuildnumber/internal/buildnumber"
)

func testEntry() buildnumber.Entry {
	r := buildnumber.NewRecord(testRevision, "main", "", 9)
	return buildnumber.Entry{Record: r, Buildnumber: r.DefaultBuildnumber()}
}

func TestCacheEmpty(t *testing.T) {
	t.Parallel()

	var c buildnumber.Cache
	if _, ok := c.TryGet(); ok {
		t.Error("TryGet() on zero Cache reported a populated entry")
	}
}

func TestCachePopulateOnce(t *testing.T) {
	t.Parallel()

	var c buildnumber.Cache
	calls := 0
	fill := func() (buildnumber.Entry, error) {
		calls++
		return testEntry(), nil
	}

	e, fresh, err := c.PopulateOnce(fill)
	if err != nil {
		t.Fatalf("PopulateOnce() error: %v", err)
	}
	if !fresh {
		t.Error("first PopulateOnce() fresh = false, want true")
	}

	e2, fresh, err := c.PopulateOnce(fill)
	if err != nil {
		t.Fatalf("second PopulateOnce() error: %v", err)
	}
	if fresh {
		t.Error("second PopulateOnce() fresh = true, want false")
	}
	if e2 != e {
		t.Errorf("second PopulateOnce() = %+v, want %+v", e2, e)
	}
	if calls != 1 {
		t.Errorf("fill called %d times, want 1", calls)
	}

	got, ok := c.TryGet()
	if !ok || got != e {
		t.Errorf("TryGet() = %+v, %v; want %+v, true", got, ok, e)
	}
}

func TestCacheFailedFillStaysEmpty(t *testing.T) {
	t.Parallel()

	var c buildnumber.Cache

	_, _, err := c.PopulateOnce(func() (buildnumber.Entry, error) {
		return buildnumber.Entry{}, errBoom
	})
	if err != errBoom {
		t.Fatalf("PopulateOnce() error = %v, want %v", err, errBoom)
	}
	if _, ok := c.TryGet(); ok {
		t.Fatal("cache populated after failed fill")
	}

	_, fresh, err := c.PopulateOnce(func() (buildnumber.Entry, error) {
		return testEntry(), nil
	})
	if err != nil || !fresh {
		t.Errorf("retry PopulateOnce() = fresh %v, err %v; want true, nil", fresh, err)
	}
}

func TestCachePanickingFillReleasesLock(t *testing.T) {
	t.Parallel()

	var c buildnumber.Cache

	func() {
		defer func() { _ = recover() }()
		_, _, _ = c.PopulateOnce(func() (buildnumber.Entry, error) {
			panic("fill exploded")
		})
	}()

	// Would deadlock if the panic left the mutex held.
	if _, ok := c.TryGet(); ok {
		t.Error("cache populated after panicking fill")
	}
}

func TestCacheConcurrentPopulate(t *testing.T) {
	t.Parallel()

	var (
		c      buildnumber.Cache
		calls  atomic.Int32
		fresh  atomic.Int32
		wg     sync.WaitGroup
		start  = make(chan struct{})
		want   = testEntry()
		result = make([]buildnumber.Entry, 16)
	)

	for i := range result {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			e, f, err := c.PopulateOnce(func() (buildnumber.Entry, error) {
				calls.Add(1)
				return want, nil
			})
			if err != nil {
				t.Errorf("PopulateOnce() error: %v", err)
			}
			if f {
				fresh.Add(1)
			}
			result[i] = e
		}()
	}

	close(start)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fill called %d times, want 1", n)
	}
	if n := fresh.Load(); n != 1 {
		t.Errorf("%d callers reported fresh, want 1", n)
	}
	for i, e := range result {
		if e != want {
			t.Errorf("caller %d got %+v, want %+v", i, e, want)
		}
	}
}
