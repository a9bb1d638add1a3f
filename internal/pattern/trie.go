package pattern

import (
	"sort"
	"strings"
)

// Trie indexes wildcards by their literal prefix so that a lookup only
// returns wildcards that could possibly match. It never decides a match.
//
// Sibling keys are never prefixes of one another, so at each level at most
// one key prefixes the value, and it is the greatest key <= the value.
type Trie struct {
	prefix    string
	keys      []string // sorted
	children  map[string]*Trie
	wildcards []*Wildcard
}

// NewTrie builds the index. Wildcards are inserted in prefix order so that
// any prefix of a later prefix already has its node.
func NewTrie(wildcards []*Wildcard) *Trie {
	root := newNode("")
	sorted := make([]*Wildcard, len(wildcards))
	copy(sorted, wildcards)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Prefix() < sorted[j].Prefix() })

	for _, w := range sorted {
		p := w.Prefix()
		node := root.deepest(p)
		if node.prefix == p {
			node.wildcards = append(node.wildcards, w)
			continue
		}
		child := newNode(p)
		child.wildcards = append(child.wildcards, w)
		node.insert(child)
	}
	return root
}

func newNode(prefix string) *Trie {
	return &Trie{prefix: prefix, children: make(map[string]*Trie)}
}

func (t *Trie) insert(child *Trie) {
	i := sort.SearchStrings(t.keys, child.prefix)
	t.keys = append(t.keys, "")
	copy(t.keys[i+1:], t.keys[i:])
	t.keys[i] = child.prefix
	t.children[child.prefix] = child
}

// floor returns the child whose key is the greatest key <= value, if that
// key is also a prefix of value.
func (t *Trie) floor(value string) *Trie {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i] > value })
	if i == 0 {
		return nil
	}
	key := t.keys[i-1]
	if !strings.HasPrefix(value, key) {
		return nil
	}
	return t.children[key]
}

func (t *Trie) deepest(value string) *Trie {
	node := t
	for {
		next := node.floor(value)
		if next == nil {
			return node
		}
		node = next
	}
}

// Lookup returns every wildcard whose prefix is a prefix of name, ordered by
// declaration index. Callers test them in order and stop at the first match.
func (t *Trie) Lookup(name string) []*Wildcard {
	var out []*Wildcard
	out = append(out, t.wildcards...)
	for node := t.floor(name); node != nil; node = node.floor(name) {
		out = append(out, node.wildcards...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// Len is the number of indexed wildcards.
func (t *Trie) Len() int {
	n := len(t.wildcards)
	for _, c := range t.children {
		n += c.Len()
	}
	return n
}
