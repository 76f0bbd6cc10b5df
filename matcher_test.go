package mysqldump

import "testing"

func TestNameMatcherLiterals(t *testing.T) {
	m, err := NewNameMatcher([]string{"users", "orders"})
	if err != nil {
		t.Fatalf("NewNameMatcher() error: %v", err)
	}
	if !m.Match("users") {
		t.Error("Match(users) = false, want true")
	}
	if m.Match("users_archive") {
		t.Error("Match(users_archive) = true, want false")
	}
}

func TestNameMatcherRegex(t *testing.T) {
	m, err := NewNameMatcher([]string{"/^tmp_/"})
	if err != nil {
		t.Fatalf("NewNameMatcher() error: %v", err)
	}
	if !m.Match("tmp_sessions") {
		t.Error("Match(tmp_sessions) = false, want true")
	}
	if m.Match("sessions_tmp_old") {
		t.Error("Match(sessions_tmp_old) = true, want false")
	}
}

func TestNameMatcherMixed(t *testing.T) {
	m, err := NewNameMatcher([]string{"users", "/_log$/"})
	if err != nil {
		t.Fatalf("NewNameMatcher() error: %v", err)
	}
	for _, name := range []string{"users", "audit_log"} {
		if !m.Match(name) {
			t.Errorf("Match(%s) = false, want true", name)
		}
	}
}

func TestNameMatcherInvalidRegex(t *testing.T) {
	if _, err := NewNameMatcher([]string{"/(unclosed/"}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestNameMatcherUnmatched(t *testing.T) {
	m, err := NewNameMatcher([]string{"users", "orders"})
	if err != nil {
		t.Fatalf("NewNameMatcher() error: %v", err)
	}
	m.Match("users")
	left := m.Unmatched()
	if len(left) != 1 || left[0] != "orders" {
		t.Errorf("Unmatched() = %v, want [orders]", left)
	}
}

func TestNameMatcherEmpty(t *testing.T) {
	m, err := NewNameMatcher(nil)
	if err != nil {
		t.Fatalf("NewNameMatcher() error: %v", err)
	}
	if !m.Empty() {
		t.Error("Empty() = false, want true")
	}
	if m.Match("anything") {
		t.Error("Match() on empty matcher = true, want false")
	}
}
