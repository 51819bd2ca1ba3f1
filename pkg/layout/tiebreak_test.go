package layout

import (
	"testing"
)

func TestOrderedTieBreak(t *testing.T) {
	ids := []string{"c", "a", "b", "d"}
	xs := []float64{10, 10, 10, 5}

	nudges := OrderedTieBreak{}.Nudges(ids, xs)

	// Rank order by (x, id): d(5), a(10), b(10), c(10).
	want := []float64{3 * MaxNudge / 4, 1 * MaxNudge / 4, 2 * MaxNudge / 4, 0}
	for i := range want {
		if nudges[i] != want[i] {
			t.Errorf("nudge[%s] = %v, want %v", ids[i], nudges[i], want[i])
		}
	}

	seen := make(map[float64]bool)
	for i := range ids {
		x := xs[i] + nudges[i]
		if seen[x] {
			t.Errorf("duplicate x %v", x)
		}
		seen[x] = true
	}
}

func TestOrderedTieBreakReproducible(t *testing.T) {
	ids := []string{"#", "#/a", "#/b"}
	xs := []float64{0, 0, 0}
	a := OrderedTieBreak{}.Nudges(ids, xs)
	b := OrderedTieBreak{}.Nudges(ids, xs)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("nudges differ: %v vs %v", a, b)
		}
	}
}

func TestOrderedTieBreakEmpty(t *testing.T) {
	if got := (OrderedTieBreak{}).Nudges(nil, nil); len(got) != 0 {
		t.Errorf("Nudges(nil) = %v, want empty", got)
	}
}

func TestJitterTieBreak(t *testing.T) {
	ids := make([]string, 100)
	xs := make([]float64, 100)

	a := (&JitterTieBreak{Seed: 42}).Nudges(ids, xs)
	b := (&JitterTieBreak{Seed: 42}).Nudges(ids, xs)
	for i := range a {
		if a[i] < 0 || a[i] >= MaxNudge {
			t.Errorf("nudge %v out of [0, %v)", a[i], MaxNudge)
		}
		if a[i] != b[i] {
			t.Fatal("same seed should give the same stream")
		}
	}
}

func TestNewTieBreaker(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", TieBreakOrdered, false},
		{"ordered", TieBreakOrdered, false},
		{"JITTER", TieBreakJitter, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, err := NewTieBreaker(tt.name, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTieBreaker(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err == nil && tb.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", tb.Name(), tt.want)
			}
		})
	}
}
