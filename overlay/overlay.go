package overlay

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/katalvlaran/roadnet/planner"
	"github.com/katalvlaran/roadnet/segment"
)

// NodeView is the JSON projection of one junction.
type NodeView struct {
	ID       segment.NodeID `json:"id"`
	Position segment.Point  `json:"position"`
	Degree   int            `json:"degree"`
}

// EdgeView is the JSON projection of one directed edge.
type EdgeView struct {
	From       segment.NodeID    `json:"from"`
	To         segment.NodeID    `json:"to"`
	Segment    segment.SegmentID `json:"segment"`
	Class      string            `json:"class"`
	Forward    bool              `json:"forward"`
	FreeFlow   float64           `json:"free_flow"`
	Load       float64           `json:"load"`
	Multiplier float64           `json:"multiplier"`
	LOS        string            `json:"los"`
}

// Summary is the JSON projection of whole-network state.
type Summary struct {
	Version           uint64  `json:"version"`
	Nodes             int     `json:"nodes"`
	Edges             int     `json:"edges"`
	AverageMultiplier float64 `json:"average_multiplier"`
	QueueDepth        int     `json:"queue_depth"`
}

// Overlay serves the read-only visualization endpoints for one planner.
type Overlay struct {
	planner *planner.Planner
}

// New creates an overlay bound to the given planner.
func New(p *planner.Planner) *Overlay {
	return &Overlay{planner: p}
}

// Register attaches the overlay routes under /overlay.
func (o *Overlay) Register(r gin.IRouter) {
	grp := r.Group("/overlay")
	grp.GET("/nodes", o.nodes)
	grp.GET("/edges", o.edges)
	grp.GET("/summary", o.summary)
}

func (o *Overlay) nodes(c *gin.Context) {
	g := o.planner.Graph()
	out := make([]NodeView, g.NodeCount())
	for i := range out {
		from, to := g.Neighbors(int32(i))
		out[i] = NodeView{
			ID:       g.NodeIDs[i],
			Position: g.Positions[i],
			Degree:   int(to - from),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (o *Overlay) edges(c *gin.Context) {
	g := o.planner.Graph()
	model := o.planner.Model()
	out := make([]EdgeView, 0, g.EdgeCount())
	for u := int32(0); int(u) < g.NodeCount(); u++ {
		from, to := g.Neighbors(u)
		for e := from; e < to; e++ {
			mult := model.Multiplier(e)
			out = append(out, EdgeView{
				From:       g.NodeIDs[u],
				To:         g.NodeIDs[g.Targets[e]],
				Segment:    g.EdgeSegment[e],
				Class:      g.EdgeClass[e].String(),
				Forward:    g.EdgeForward[e],
				FreeFlow:   g.FreeFlow[e],
				Load:       model.Load(e),
				Multiplier: mult,
				LOS:        losGrade(mult),
			})
		}
	}
	c.JSON(http.StatusOK, out)
}

func (o *Overlay) summary(c *gin.Context) {
	g := o.planner.Graph()
	c.JSON(http.StatusOK, Summary{
		Version:           g.Version,
		Nodes:             g.NodeCount(),
		Edges:             g.EdgeCount(),
		AverageMultiplier: o.planner.Model().AverageMultiplier(),
		QueueDepth:        o.planner.QueueDepth(),
	})
}

// losGrade buckets a travel-time multiplier into the conventional
// level-of-service letters. Free flow is A; a clamped edge is F.
func losGrade(mult float64) string {
	switch {
	case mult < 1.05:
		return "A"
	case mult < 1.20:
		return "B"
	case mult < 1.50:
		return "C"
	case mult < 2.00:
		return "D"
	case mult < 3.50:
		return "E"
	default:
		return "F"
	}
}
