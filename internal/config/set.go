package config

import (
	"cmp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Set is an allow-list that reads and writes as a YAML sequence.
type Set[T cmp.Ordered] map[T]struct{}

func NewSet[T cmp.Ordered](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (s *Set[T]) UnmarshalYAML(node *yaml.Node) error {
	var vals []T
	if err := node.Decode(&vals); err != nil {
		return err
	}
	*s = NewSet(vals...)
	return nil
}

func (s Set[T]) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}
