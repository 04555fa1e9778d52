package hier

// containsVertex reports whether vs contains v, comparing by identity.
func containsVertex(vs []Vertex, v Vertex) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// addUniqueVertex appends v to *vs if it is not already present.
func addUniqueVertex(vs *[]Vertex, v Vertex) {
	if containsVertex(*vs, v) {
		return
	}
	*vs = append(*vs, v)
}

// removeVertex deletes the first occurrence of v from *vs, if present.
func removeVertex(vs *[]Vertex, v Vertex) {
	for i, x := range *vs {
		if x == v {
			*vs = append((*vs)[:i], (*vs)[i+1:]...)
			return
		}
	}
}

// containsSeq reports whether ss contains s.
func containsSeq(ss []*Sequence, s *Sequence) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
