package fabric

import (
	"errors"
	"time"

	"github.com/fabricdb/fabric/internal/core"
	"github.com/fabricdb/fabric/internal/store"
	"github.com/fabricdb/fabric/internal/utils"
)

// The operations here are the embedding surface of a Graph: classes,
// vertices, edges and properties addressed by name and numeric id.
// Entities are identified the way they are stored, so ids handed out
// here stay valid across Flush and Open.

// CreateClass adds a class named name extending the named parent.
// Abstract classes cannot hold vertices directly but can be extended.
// The id of the new class is returned.
func (g *Graph) CreateClass(parent, name string, isAbstract bool) (uint16, error) {
	p, err := g.classes.GetByName(parent)
	if err != nil {
		return 0, utils.WrapError("resolving parent class", err)
	}
	c, err := g.classes.Create(p, name, isAbstract)
	if err != nil {
		return 0, err
	}
	return uint16(c.ID), nil
}

// DeleteClass removes the named class. Classes with subclasses or
// member vertices are refused.
func (g *Graph) DeleteClass(name string) error {
	c, err := g.classes.GetByName(name)
	if err != nil {
		return err
	}
	return g.classes.Delete(c)
}

// ClassID returns the id of the named class.
func (g *Graph) ClassID(name string) (uint16, error) {
	c, err := g.classes.GetByName(name)
	if err != nil {
		return 0, err
	}
	return uint16(c.ID), nil
}

// ClassMemberCount returns the number of vertices of the named class.
// With descendants set, members of every subclass are included.
func (g *Graph) ClassMemberCount(name string, descendants bool) (uint32, error) {
	c, err := g.classes.GetByName(name)
	if err != nil {
		return 0, err
	}
	if !descendants {
		return c.Count, nil
	}
	return g.classes.TotalCount(c)
}

// ChildClassNames returns the names of the direct subclasses of the
// named class.
func (g *Graph) ChildClassNames(name string) ([]string, error) {
	c, err := g.classes.GetByName(name)
	if err != nil {
		return nil, err
	}
	children, err := g.classes.ChildClasses(c)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(children))
	for i, child := range children {
		if names[i], err = g.classes.Name(child); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// NextClassIncrement returns the named class's auto-increment counter
// and advances it.
func (g *Graph) NextClassIncrement(name string) (uint32, error) {
	c, err := g.classes.GetByName(name)
	if err != nil {
		return 0, err
	}
	v := c.Increment()
	g.classes.Touch(c)
	return v, nil
}

// CreateVertex adds a vertex of the named class and returns its id.
func (g *Graph) CreateVertex(className string) (uint32, error) {
	c, err := g.classes.GetByName(className)
	if err != nil {
		return 0, utils.WrapError("resolving vertex class", err)
	}
	v, err := g.vertices.Create(c)
	if err != nil {
		return 0, err
	}
	return uint32(v.ID), nil
}

// DeleteVertex removes a vertex. Vertices with edges or properties
// are refused.
func (g *Graph) DeleteVertex(id uint32) error {
	v, err := g.vertices.Get(core.VertexID(id))
	if err != nil {
		return err
	}
	return g.vertices.Delete(v)
}

// VertexClassName returns the name of the class a vertex belongs to.
func (g *Graph) VertexClassName(id uint32) (string, error) {
	v, err := g.vertices.Get(core.VertexID(id))
	if err != nil {
		return "", err
	}
	c, err := g.vertices.Class(v)
	if err != nil {
		return "", err
	}
	return g.classes.Name(c)
}

// CreateEdge connects two vertices with a labeled edge and returns
// its id.
func (g *Graph) CreateEdge(from, to uint32, label string) (uint32, error) {
	src, err := g.vertices.Get(core.VertexID(from))
	if err != nil {
		return 0, utils.WrapError("resolving edge source", err)
	}
	dst, err := g.vertices.Get(core.VertexID(to))
	if err != nil {
		return 0, utils.WrapError("resolving edge target", err)
	}
	e, err := g.edges.Create(src, dst, label)
	if err != nil {
		return 0, err
	}
	return uint32(e.ID), nil
}

// DeleteEdge removes an edge. Edges with properties are refused.
func (g *Graph) DeleteEdge(id uint32) error {
	e, err := g.edges.Get(core.EdgeID(id))
	if err != nil {
		return err
	}
	return g.edges.Delete(e)
}

// Edge describes one edge of a vertex.
type Edge struct {
	ID    uint32
	Label string
	From  uint32
	To    uint32
}

// OutEdges returns a vertex's outgoing edges, most recently created
// first.
func (g *Graph) OutEdges(id uint32) ([]Edge, error) {
	v, err := g.vertices.Get(core.VertexID(id))
	if err != nil {
		return nil, err
	}
	var out []Edge
	eid := v.FirstOutID
	for eid != 0 {
		e, err := g.edges.Get(eid)
		if err != nil {
			return nil, utils.WrapError("walking outgoing edges", err)
		}
		desc, err := g.describeEdge(e)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
		eid = e.NextOutID
	}
	return out, nil
}

// InEdges returns a vertex's incoming edges, most recently created
// first.
func (g *Graph) InEdges(id uint32) ([]Edge, error) {
	v, err := g.vertices.Get(core.VertexID(id))
	if err != nil {
		return nil, err
	}
	var in []Edge
	eid := v.FirstInID
	for eid != 0 {
		e, err := g.edges.Get(eid)
		if err != nil {
			return nil, utils.WrapError("walking incoming edges", err)
		}
		desc, err := g.describeEdge(e)
		if err != nil {
			return nil, err
		}
		in = append(in, desc)
		eid = e.NextInID
	}
	return in, nil
}

func (g *Graph) describeEdge(e *core.Edge) (Edge, error) {
	l, err := g.edges.Label(e)
	if err != nil {
		return Edge{}, err
	}
	name, err := g.labels.Name(l)
	if err != nil {
		return Edge{}, err
	}
	return Edge{ID: uint32(e.ID), Label: name, From: uint32(e.FromID), To: uint32(e.ToID)}, nil
}

// SetVertexProperty stores a property on a vertex, creating it if the
// key is new. Supported value types: int, int64, float64, bool,
// string and time.Time.
func (g *Graph) SetVertexProperty(id uint32, key string, value interface{}) error {
	v, err := g.vertices.Get(core.VertexID(id))
	if err != nil {
		return err
	}
	p, err := g.findProperty(v.FirstPropertyID, key)
	created := false
	if errors.Is(err, store.ErrPropertyNotFound) {
		p, err = g.properties.CreateForVertex(v, key)
		created = true
	}
	if err != nil {
		return err
	}
	if err := g.setPropertyValue(p, value); err != nil {
		if created {
			_ = g.properties.RemoveFromVertex(v, p)
		}
		return err
	}
	return nil
}

// VertexProperty returns a vertex property's value.
func (g *Graph) VertexProperty(id uint32, key string) (interface{}, error) {
	v, err := g.vertices.Get(core.VertexID(id))
	if err != nil {
		return nil, err
	}
	p, err := g.findProperty(v.FirstPropertyID, key)
	if err != nil {
		return nil, err
	}
	return g.propertyValue(p)
}

// DeleteVertexProperty removes a vertex property.
func (g *Graph) DeleteVertexProperty(id uint32, key string) error {
	v, err := g.vertices.Get(core.VertexID(id))
	if err != nil {
		return err
	}
	p, err := g.findProperty(v.FirstPropertyID, key)
	if err != nil {
		return err
	}
	return g.properties.RemoveFromVertex(v, p)
}

// SetEdgeProperty stores a property on an edge, creating it if the
// key is new.
func (g *Graph) SetEdgeProperty(id uint32, key string, value interface{}) error {
	e, err := g.edges.Get(core.EdgeID(id))
	if err != nil {
		return err
	}
	p, err := g.findProperty(e.FirstPropertyID, key)
	created := false
	if errors.Is(err, store.ErrPropertyNotFound) {
		p, err = g.properties.CreateForEdge(e, key)
		created = true
	}
	if err != nil {
		return err
	}
	if err := g.setPropertyValue(p, value); err != nil {
		if created {
			_ = g.properties.RemoveFromEdge(e, p)
		}
		return err
	}
	return nil
}

// EdgeProperty returns an edge property's value.
func (g *Graph) EdgeProperty(id uint32, key string) (interface{}, error) {
	e, err := g.edges.Get(core.EdgeID(id))
	if err != nil {
		return nil, err
	}
	p, err := g.findProperty(e.FirstPropertyID, key)
	if err != nil {
		return nil, err
	}
	return g.propertyValue(p)
}

// DeleteEdgeProperty removes an edge property.
func (g *Graph) DeleteEdgeProperty(id uint32, key string) error {
	e, err := g.edges.Get(core.EdgeID(id))
	if err != nil {
		return err
	}
	p, err := g.findProperty(e.FirstPropertyID, key)
	if err != nil {
		return err
	}
	return g.properties.RemoveFromEdge(e, p)
}

// findProperty walks a property chain looking for the key's label.
func (g *Graph) findProperty(first core.PropertyID, key string) (*core.Property, error) {
	labelID := g.indexes.LabelIDByName(key)
	if labelID == 0 {
		return nil, store.ErrPropertyNotFound
	}
	id := first
	for id != 0 {
		p, err := g.properties.Get(id)
		if err != nil {
			return nil, utils.WrapError("walking property chain", err)
		}
		if p.LabelID == labelID {
			return p, nil
		}
		id = p.NextPropertyID
	}
	return nil, store.ErrPropertyNotFound
}

func (g *Graph) setPropertyValue(p *core.Property, value interface{}) error {
	if s, ok := value.(string); ok {
		return g.properties.SetTextValue(p, s)
	}
	switch value.(type) {
	case int, int64, float64, bool, time.Time:
	default:
		return ErrUnsupportedValueType
	}
	// The record may hold a stored text from a previous value; release
	// it before the type tag is rewritten.
	if err := g.properties.ClearTextValue(p); err != nil {
		return err
	}
	switch v := value.(type) {
	case int:
		p.SetIntegerValue(int64(v))
	case int64:
		p.SetIntegerValue(v)
	case float64:
		p.SetRealValue(v)
	case bool:
		p.SetBooleanValue(v)
	case time.Time:
		p.SetIntegerValue(v.Unix())
		p.Type = core.PropTypeDatetime
	}
	g.properties.Touch(p)
	return nil
}

func (g *Graph) propertyValue(p *core.Property) (interface{}, error) {
	switch {
	case p.Type == core.PropTypeInteger:
		return p.IntegerValue(), nil
	case p.Type == core.PropTypeReal:
		return p.RealValue(), nil
	case p.IsBoolean():
		return p.BooleanValue(), nil
	case p.IsText():
		return g.properties.TextValue(p)
	case p.Type == core.PropTypeDatetime:
		return time.Unix(p.IntegerValue(), 0).UTC(), nil
	}
	return nil, ErrUnsupportedValueType
}

// NumClasses returns the number of classes, the root included.
func (g *Graph) NumClasses() uint16 { return g.classes.NumClasses() }

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() uint32 { return g.vertices.NumVertices() }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() uint32 { return g.edges.NumEdges() }

// NumLabels returns the number of interned labels.
func (g *Graph) NumLabels() uint32 { return g.labels.NumLabels() }
