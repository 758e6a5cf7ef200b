package permission

// Set is a bitmask of roles. The zero value is the empty set.
type Set uint64

// Of builds a Set from the given roles. RoleNone and out-of-range values are ignored.
func Of(roles ...Role) Set {
	var s Set
	for _, r := range roles {
		s = s.Add(r)
	}
	return s
}

// Any returns the set of every known role.
func Any() Set {
	return Of(Roles()...)
}

func (s Set) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	return s&(1<<r) != 0
}

func (s Set) Add(r Role) Set {
	if !r.Valid() {
		return s
	}
	return s | (1 << r)
}

func (s Set) Remove(r Role) Set {
	if !r.Valid() {
		return s
	}
	return s &^ (1 << r)
}

// Empty reports whether no role is in the set.
func (s Set) Empty() bool {
	return s == 0
}

// Roles lists the members of s in enum order.
func (s Set) Roles() []Role {
	out := make([]Role, 0, int(roleCount))
	for r := RoleCustomer; r < roleCount; r++ {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s Set) Raw() uint64 {
	return uint64(s)
}
