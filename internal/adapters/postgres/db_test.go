package postgres

import "testing"

func TestCompact(t *testing.T) {
	in := "\n\t\tSELECT id, name\n\t\tFROM regions\n\t\tWHERE kind = $1\n"
	if got, want := compact(in), "SELECT id, name FROM regions WHERE kind = $1 "; got != want {
		t.Errorf("compact() = %q, want %q", got, want)
	}

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	if got := compact(string(long)); len(got) != 160 {
		t.Errorf("expected truncation to 160 bytes, got %d", len(got))
	}
}
