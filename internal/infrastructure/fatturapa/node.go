package fatturapa

import "strings"

// AttrPrefix marca los nodos que el Serializer emite como atributo del padre.
const AttrPrefix = "@"

// Node nodo del árbol del documento. Un nodo lleva texto o hijos, nunca ambos.
// Los hijos con nombre "@x" son atributos del nodo.
type Node struct {
	Name     string
	Text     string
	Children []*Node
}

// IsAttr indica si el nodo representa un atributo.
func (n *Node) IsAttr() bool {
	return strings.HasPrefix(n.Name, AttrPrefix)
}

// Empty indica si el nodo no tiene contenido que emitir (texto, atributos o hijos no vacíos).
func (n *Node) Empty() bool {
	if n == nil {
		return true
	}
	if n.Text != "" {
		return false
	}
	for _, c := range n.Children {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Find recorre la ruta de nombres desde n y devuelve el primer nodo que coincide.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, name := range path {
		if cur == nil {
			return nil
		}
		var next *Node
		for _, c := range cur.Children {
			if c != nil && c.Name == name {
				next = c
				break
			}
		}
		cur = next
	}
	return cur
}

// FindAll devuelve los hijos directos de la ruta padre con el nombre indicado (elementos repetidos).
func (n *Node) FindAll(name string, parent ...string) []*Node {
	p := n.Find(parent...)
	if p == nil {
		return nil
	}
	var out []*Node
	for _, c := range p.Children {
		if c != nil && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Value texto del nodo en la ruta ("" si no existe).
func (n *Node) Value(path ...string) string {
	if f := n.Find(path...); f != nil {
		return f.Text
	}
	return ""
}

// ── Helpers de construcción ─────────────────────────────────────────────────

// el crea un elemento; los hijos nil (opcionales ausentes) se descartan.
func el(name string, children ...*Node) *Node {
	n := &Node{Name: name}
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// leaf crea un elemento de texto obligatorio.
func leaf(name, text string) *Node {
	return &Node{Name: name, Text: text}
}

// optLeaf crea un elemento de texto sólo si text no está vacío.
func optLeaf(name, text string) *Node {
	if text == "" {
		return nil
	}
	return leaf(name, text)
}

// opt devuelve n sólo si cond se cumple.
func opt(cond bool, n *Node) *Node {
	if !cond {
		return nil
	}
	return n
}

// attr crea un atributo del elemento padre.
func attr(name, value string) *Node {
	return &Node{Name: AttrPrefix + name, Text: value}
}

// leaves crea elementos repetidos con el mismo nombre.
func leaves(name string, texts []string) []*Node {
	out := make([]*Node, 0, len(texts))
	for _, t := range texts {
		out = append(out, leaf(name, t))
	}
	return out
}
