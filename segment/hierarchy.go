package segment

// HierarchyViolation records two segments meeting at a node whose class
// levels differ by more than one, e.g. a local street joined directly to
// a highway. Advisory only: routing still works.
type HierarchyViolation struct {
	Node          NodeID
	LowSegment    SegmentID
	HighSegment   SegmentID
	LowClass      Class
	HighClass     Class
	LevelsSkipped uint8
}

// HierarchyViolations scans every junction and returns all segment pairs
// that skip more than one hierarchy level. Results are ordered by node
// id, then by the incident-segment order at the node.
func (s *Store) HierarchyViolations() []HierarchyViolation {
	var out []HierarchyViolation
	for _, node := range s.Nodes() {
		segs := make([]Segment, 0, len(node.Segments))
		for _, sid := range node.Segments {
			if seg, err := s.Segment(sid); err == nil {
				segs = append(segs, seg)
			}
		}
		for i := 0; i < len(segs); i++ {
			for j := i + 1; j < len(segs); j++ {
				a, b := segs[i], segs[j]
				la, lb := a.Class.Level(), b.Class.Level()
				diff := la - lb
				if lb > la {
					diff = lb - la
				}
				if diff <= 1 {
					continue
				}
				low, high := a, b
				if lb < la {
					low, high = b, a
				}
				out = append(out, HierarchyViolation{
					Node:          node.ID,
					LowSegment:    low.ID,
					HighSegment:   high.ID,
					LowClass:      low.Class,
					HighClass:     high.Class,
					LevelsSkipped: diff - 1,
				})
			}
		}
	}
	return out
}
