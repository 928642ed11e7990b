package component

import "github.com/vango-dev/rx/pkg/dom"

// slot is a region of sibling nodes delimited by two anchors. Replacing its
// content never touches nodes outside the anchors.
type slot struct {
	adapter dom.Adapter
	start   dom.Node
	end     dom.Node
	content []dom.Node
}

func newSlot(adapter dom.Adapter, label string) *slot {
	return &slot{
		adapter: adapter,
		start:   adapter.CreateAnchor(label),
		end:     adapter.CreateAnchor("/" + label),
	}
}

// replace swaps the current content for nodes. While the slot is detached
// the nodes are only recorded; all returns them for the initial insertion.
func (s *slot) replace(nodes []dom.Node) {
	for _, n := range s.content {
		s.adapter.Remove(n)
	}
	s.content = nodes
	parent := s.adapter.Parent(s.end)
	if parent == nil {
		return
	}
	for _, n := range nodes {
		s.adapter.InsertBefore(parent, n, s.end)
	}
}

// all returns the anchors and the current content in document order.
func (s *slot) all() []dom.Node {
	out := make([]dom.Node, 0, len(s.content)+2)
	out = append(out, s.start)
	out = append(out, s.content...)
	return append(out, s.end)
}
