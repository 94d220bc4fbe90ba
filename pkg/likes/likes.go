package likes

// Set is the ordered list of user ids that liked a post. A user id appears at most once.
type Set []string

func (s Set) Has(userId string) bool {
	for _, id := range s {
		if id == userId {
			return true
		}
	}
	return false
}

// Add reports whether userId was added.
func (s *Set) Add(userId string) bool {
	if userId == "" || s.Has(userId) {
		return false
	}
	*s = append(*s, userId)
	return true
}

// Remove reports whether userId was present.
func (s *Set) Remove(userId string) bool {
	for idx, id := range *s {
		if id == userId {
			*s = append((*s)[:idx], (*s)[idx+1:]...)
			return true
		}
	}
	return false
}

// Dedup drops repeated ids, keeping first occurrences.
func (s Set) Dedup() Set {
	seen := make(map[string]struct{}, len(s))
	out := make(Set, 0, len(s))
	for _, id := range s {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
