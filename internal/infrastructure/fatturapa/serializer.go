package fatturapa

import (
	"fmt"
	"regexp"

	"github.com/beevik/etree"
)

var xmlName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// Serialize convierte el árbol en XML indentado (2 espacios) con declaración UTF-8.
// Los nodos vacíos se omiten. Un árbol mal formado es un defecto del builder y se devuelve como error.
func Serialize(root *Node) (string, error) {
	if root == nil || root.IsAttr() {
		return "", fmt.Errorf("fatturapa: serialización: raíz no válida")
	}
	if root.Empty() {
		return "", fmt.Errorf("fatturapa: serialización: documento vacío")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	if err := render(&doc.Element, root); err != nil {
		return "", fmt.Errorf("fatturapa: serialización: %w", err)
	}
	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("fatturapa: serialización: %w", err)
	}
	return out, nil
}

func render(parent *etree.Element, n *Node) error {
	if n.Empty() {
		return nil
	}
	if !xmlName.MatchString(n.Name) {
		return fmt.Errorf("nombre de elemento no válido %q", n.Name)
	}
	e := parent.CreateElement(n.Name)
	hasElements := false
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if c.IsAttr() {
			name := c.Name[len(AttrPrefix):]
			if !xmlName.MatchString(name) {
				return fmt.Errorf("nombre de atributo no válido %q", name)
			}
			if c.Text != "" {
				e.CreateAttr(name, c.Text)
			}
			continue
		}
		if c.Empty() {
			continue
		}
		hasElements = true
		if err := render(e, c); err != nil {
			return err
		}
	}
	if n.Text != "" {
		if hasElements {
			return fmt.Errorf("elemento %q con texto e hijos", n.Name)
		}
		e.SetText(n.Text)
	}
	return nil
}
