// SPDX-License-Identifier: MPL-2.0

package pkgset

import (
	"slices"
	"sync"
	"testing"
)

func TestFilterNewThenCommit(t *testing.T) {
	t.Parallel()

	l := NewLedger()

	first := l.FilterNew([]string{"pkgA", "pkgB"}, Pip)
	if !slices.Equal(first, []string{"pkgA", "pkgB"}) {
		t.Fatalf("first FilterNew = %v, want [pkgA pkgB]", first)
	}

	l.Commit(first, Pip)

	second := l.FilterNew([]string{"pkgA", "pkgB"}, Pip)
	if len(second) != 0 {
		t.Errorf("second FilterNew = %v, want empty", second)
	}
}

func TestFilterNewPartialOverlap(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.Commit([]string{"express"}, NPM)

	novel := l.FilterNew([]string{"express", "lodash"}, NPM)
	if !slices.Equal(novel, []string{"lodash"}) {
		t.Errorf("FilterNew = %v, want [lodash]", novel)
	}
}

func TestManagersAreIndependent(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.Commit([]string{"requests"}, Pip)

	if novel := l.FilterNew([]string{"requests"}, NPM); len(novel) != 1 {
		t.Errorf("npm set should not see pip installs, got %v", novel)
	}
}

func TestInstalledSorted(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.Commit([]string{"zlib", "attrs", "flask"}, Pip)

	got := l.Installed(Pip)
	if !slices.Equal(got, []string{"attrs", "flask", "zlib"}) {
		t.Errorf("Installed = %v, want sorted [attrs flask zlib]", got)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.Commit([]string{"requests"}, Pip)
	l.Reset()

	if novel := l.FilterNew([]string{"requests"}, Pip); len(novel) != 1 {
		t.Errorf("after Reset, FilterNew = %v, want [requests]", novel)
	}
}

func TestConcurrentCommits(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Commit([]string{"a", "b", "c"}, Pip)
			_ = l.FilterNew([]string{"a", "d"}, Pip)
		}()
	}
	wg.Wait()

	if got := l.Installed(Pip); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Installed = %v, want [a b c]", got)
	}
}
