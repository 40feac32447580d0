package identity

import "fmt"

// Identifiable is anything that carries an identity, e.g. a user record
// loaded as a relation.
type Identifiable interface {
	Identity() ID
}

// Set is an unordered collection of identities.
type Set map[ID]struct{}

// SetOf normalises relation values into a Set. Each argument may be a
// single identity (ID, Identifiable, numeric string or number) or a
// collection of them; relations loaded from storage come in both shapes.
// nil arguments are skipped, but any element that is present must parse.
func SetOf(relations ...any) (Set, error) {
	s := make(Set)
	for _, rel := range relations {
		if err := s.add(rel); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s Set) add(rel any) error {
	switch v := rel.(type) {
	case nil:
		return nil
	case Identifiable:
		return s.addOne(v.Identity())
	case []ID:
		for _, id := range v {
			if err := s.addOne(id); err != nil {
				return err
			}
		}
	case []Identifiable:
		for _, item := range v {
			if item == nil {
				continue
			}
			if err := s.addOne(item.Identity()); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range v {
			if err := s.add(item); err != nil {
				return err
			}
		}
	case []string:
		for _, item := range v {
			if err := s.add(item); err != nil {
				return err
			}
		}
	default:
		id, err := Parse("relation", rel)
		if err != nil {
			return fmt.Errorf("normalise relation: %w", err)
		}
		s[id] = struct{}{}
	}
	return nil
}

func (s Set) addOne(id ID) error {
	if _, err := Parse("relation", id); err != nil {
		return fmt.Errorf("normalise relation: %w", err)
	}
	s[id] = struct{}{}
	return nil
}

// Contains reports whether id is a member of s.
func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}
