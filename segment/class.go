package segment

// Class classifies a road segment. The class determines free-flow speed,
// lane count, per-lane capacity, directionality and hierarchy level.
type Class uint8

const (
	// ClassPath is a pedestrian/service path.
	ClassPath Class = iota
	// ClassLocal is a two-lane local street.
	ClassLocal
	// ClassOneWay is a one-way street, traversable start→end only.
	ClassOneWay
	// ClassAvenue is a four-lane urban avenue.
	ClassAvenue
	// ClassBoulevard is a six-lane boulevard.
	ClassBoulevard
	// ClassHighway is a grade-separated highway.
	ClassHighway

	classCount
)

// Speed returns the free-flow speed in world units per second.
func (c Class) Speed() float64 {
	switch c {
	case ClassPath:
		return 4
	case ClassLocal:
		return 8
	case ClassOneWay:
		return 11
	case ClassAvenue:
		return 14
	case ClassBoulevard:
		return 17
	case ClassHighway:
		return 28
	default:
		return 8
	}
}

// Lanes returns the total lane count across both directions.
func (c Class) Lanes() int {
	switch c {
	case ClassPath:
		return 1
	case ClassLocal:
		return 2
	case ClassOneWay:
		return 2
	case ClassAvenue:
		return 4
	case ClassBoulevard:
		return 6
	case ClassHighway:
		return 8
	default:
		return 2
	}
}

// LaneCapacity returns the per-lane throughput in vehicle-equivalents
// per hour.
func (c Class) LaneCapacity() float64 {
	switch c {
	case ClassPath:
		return 100
	case ClassLocal:
		return 300
	case ClassOneWay:
		return 450
	case ClassAvenue:
		return 450
	case ClassBoulevard:
		return 500
	case ClassHighway:
		return 600
	default:
		return 300
	}
}

// Capacity returns the total segment capacity: Lanes() × LaneCapacity().
func (c Class) Capacity() float64 { return float64(c.Lanes()) * c.LaneCapacity() }

// IsOneWay reports whether segments of this class are traversable in a
// single direction (start→end).
func (c Class) IsOneWay() bool { return c == ClassOneWay }

// Level returns the hierarchy level. Connections between segments whose
// levels differ by more than one are flagged by HierarchyViolations.
func (c Class) Level() uint8 {
	switch c {
	case ClassPath:
		return 0
	case ClassLocal:
		return 1
	case ClassOneWay, ClassAvenue:
		return 2
	case ClassBoulevard:
		return 3
	case ClassHighway:
		return 4
	default:
		return 1
	}
}

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassPath:
		return "path"
	case ClassLocal:
		return "local"
	case ClassOneWay:
		return "oneway"
	case ClassAvenue:
		return "avenue"
	case ClassBoulevard:
		return "boulevard"
	case ClassHighway:
		return "highway"
	default:
		return "unknown"
	}
}

// MaxSpeed returns the fastest free-flow speed across all classes. Used
// by planners as the denominator of an admissible distance heuristic.
func MaxSpeed() float64 {
	best := 0.0
	for c := Class(0); c < classCount; c++ {
		if s := c.Speed(); s > best {
			best = s
		}
	}
	return best
}
