package topic

import (
	"testing"
)

func TestMemoryTrieMatch(t *testing.T) {
	trie := NewMemoryTrie()
	for _, filter := range []string{"1/2/3", "2/4", "2/+/#"} {
		if err := trie.Subscribe(filter); err != nil {
			t.Fatalf("Subscribe(%q): %v", filter, err)
		}
	}

	cases := []struct {
		topic      string
		wantFilter string
		matched    bool
	}{
		{"1/2/3", "1/2/3", true},
		{"2/3/4", "2/+/#", true},
		{"2/3/4/5", "2/+/#", true},
		{"9/9/9", "", false},
	}
	for _, c := range cases {
		filter, ok := trie.Match(c.topic)
		if ok != c.matched {
			t.Errorf("Match(%q) matched = %v, want %v", c.topic, ok, c.matched)
			continue
		}
		if ok && filter != c.wantFilter {
			t.Errorf("Match(%q) = %q, want %q", c.topic, filter, c.wantFilter)
		}
	}
}

func TestMemoryTrieMatchAgainstBareHash(t *testing.T) {
	trie := NewMemoryTrie()
	if err := trie.Subscribe("#"); err != nil {
		t.Fatalf("Subscribe(#): %v", err)
	}
	filter, ok := trie.Match("anything/at/all")
	if !ok || filter != "#" {
		t.Fatalf("Match against bare # = (%q, %v), want (\"#\", true)", filter, ok)
	}
}

func TestMemoryTrieUnsubscribe(t *testing.T) {
	trie := NewMemoryTrie()
	if err := trie.Subscribe("2/4"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := trie.Unsubscribe("2/4"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := trie.Unsubscribe("2/4"); err == nil {
		t.Fatal("Unsubscribe of an already-removed filter should error")
	}
}

func TestHasWildcard(t *testing.T) {
	cases := map[string]bool{
		"sensors/a":   false,
		"sensors/+":   true,
		"sensors/#":   true,
		"a/b/c":       false,
		"+":           true,
	}
	for name, want := range cases {
		if got := HasWildcard(name); got != want {
			t.Errorf("HasWildcard(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestValidFilter(t *testing.T) {
	cases := map[string]bool{
		"sensors/a":   true,
		"sensors/+":   true,
		"sensors/#":   true,
		"sensors/#/a": false,
		"sens+rs/a":   false,
		"":            false,
	}
	for filter, want := range cases {
		if got := ValidFilter(filter); got != want {
			t.Errorf("ValidFilter(%q) = %v, want %v", filter, got, want)
		}
	}
}
