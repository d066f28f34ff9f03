package couch

// Node is a named handle for one cluster member. Nodes hold identity only;
// they are created on demand through Couch.Node and cached by name, so two
// lookups for the same name yield the same instance.
type Node struct {
	name  string
	couch *Couch
}

// Name returns the node name (e.g. "couchdb@node1.example.org").
func (n *Node) Name() string {
	return n.name
}

// Couch returns the owning dispatcher.
func (n *Node) Couch() *Couch {
	return n.couch
}

func (n *Node) String() string {
	return n.name
}

// Node returns the Node with the given name, creating it on first use.
// The returned instance is stable for the lifetime of the dispatcher.
func (c *Couch) Node(name string) *Node {
	c.nodesMu.Lock()
	defer c.nodesMu.Unlock()

	if n, ok := c.nodes[name]; ok {
		return n
	}
	n := &Node{name: name, couch: c}
	c.nodes[name] = n
	return n
}
