package buffer

import "testing"

func TestNewWindowValidation(t *testing.T) {
	if _, err := NewWindow(0, 3); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := NewWindow(4, 0); err == nil {
		t.Fatal("expected error for zero sensors")
	}
}

func TestWindowReadyAfterLengthRows(t *testing.T) {
	w, err := NewWindow(4, 2)
	if err != nil {
		t.Fatalf("NewWindow error: %v", err)
	}
	for i := range 3 {
		if err := w.Append([]float64{float64(i), float64(-i)}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
		if w.Ready() {
			t.Fatalf("Ready() = true after %d rows", i+1)
		}
	}
	if err := w.Append([]float64{3, -3}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if !w.Ready() {
		t.Fatal("Ready() = false after W rows")
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	w, _ := NewWindow(3, 2)
	for i := range 5 {
		_ = w.Append([]float64{float64(i), float64(10 * i)})
	}
	if w.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", w.Len())
	}

	cols := w.Snapshot()
	wantA := []float64{2, 3, 4}
	wantB := []float64{20, 30, 40}
	for i := range wantA {
		if cols[0][i] != wantA[i] || cols[1][i] != wantB[i] {
			t.Fatalf("row %d: got (%v, %v), want (%v, %v)", i, cols[0][i], cols[1][i], wantA[i], wantB[i])
		}
	}
}

func TestWindowSnapshotIsIndependent(t *testing.T) {
	w, _ := NewWindow(2, 1)
	_ = w.Append([]float64{1})
	_ = w.Append([]float64{2})

	snap := w.Snapshot()
	snap[0][0] = 99

	again := w.Snapshot()
	if again[0][0] != 1 {
		t.Fatalf("Snapshot mutated window: got %v", again[0][0])
	}
	if w.Len() != 2 {
		t.Fatalf("Snapshot changed Len() to %d", w.Len())
	}
}

func TestWindowAppendWrongWidth(t *testing.T) {
	w, _ := NewWindow(2, 3)
	if err := w.Append([]float64{1, 2}); err == nil {
		t.Fatal("expected error for short row")
	}
	if w.Len() != 0 {
		t.Fatalf("rejected row was stored: Len() = %d", w.Len())
	}
}

func TestWindowReset(t *testing.T) {
	w, _ := NewWindow(2, 1)
	_ = w.Append([]float64{1})
	_ = w.Append([]float64{2})
	w.Reset()
	if w.Len() != 0 || w.Ready() {
		t.Fatalf("after Reset: Len()=%d Ready()=%v", w.Len(), w.Ready())
	}
	_ = w.Append([]float64{5})
	if got := w.Snapshot()[0]; len(got) != 1 || got[0] != 5 {
		t.Fatalf("Snapshot after Reset = %v", got)
	}
}
