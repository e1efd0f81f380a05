package ids

import "testing"

func TestNewIsOrderedAndValid(t *testing.T) {
	prev := ""
	for i := 0; i < 1000; i++ {
		id := New()
		if !Valid(id) {
			t.Fatalf("generated id %q is not valid", id)
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %q after %q", id, prev)
		}
		prev = id
	}
}

func TestValidRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "../../etc/passwd", "01HZZZZZZZDEM0RGAN1ZAT10NU"} {
		if Valid(s) {
			t.Fatalf("Valid(%q) = true", s)
		}
	}
}
