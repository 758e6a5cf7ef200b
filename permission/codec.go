package permission

import (
	"errors"
	"strings"
)

const setSeparator = "|"

// ErrInvalidSet is returned by ParseSet when an element is not a role name.
var ErrInvalidSet = errors.New("invalid role set")

// String renders the set as role names joined by "|", e.g. "Seller|Admin".
// The empty set renders as "".
func (s Set) String() string {
	roles := s.Roles()
	if len(roles) == 0 {
		return ""
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, setSeparator)
}

// ParseSet parses the String form. Commas are accepted as separators too, so
// values copied from environment variables like "Seller,Admin" work.
func ParseSet(value string) (Set, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '|' || r == ','
	})

	var s Set
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		r, err := ParseRole(f)
		if err != nil {
			return 0, errors.Join(ErrInvalidSet, err)
		}
		s = s.Add(r)
	}
	return s, nil
}

func (s Set) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Set) UnmarshalText(text []byte) error {
	parsed, err := ParseSet(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
