// Package memdriver implements the browser control port against an
// in-memory page model. It backs tests and --dry-run executions: element
// lookups run against fixture elements and scripts are evaluated with goja
// behind a small document shim.
package memdriver

// Element is one node of a fixture page. Child order is the slice order of
// elements sharing the same ParentID.
type Element struct {
	Tag      string
	ID       string
	Name     string
	Attrs    map[string]string
	Text     string
	Value    string
	ParentID string
}

// Attr resolves an attribute the way the matcher sees it: id and name are
// promoted fields, everything else lives in Attrs.
func (e *Element) Attr(name string) (string, bool) {
	switch name {
	case "id":
		if e.ID == "" {
			return "", false
		}

		return e.ID, true
	case "name":
		if e.Name == "" {
			return "", false
		}

		return e.Name, true
	default:
		v, ok := e.Attrs[name]

		return v, ok
	}
}

// Page is a fixture document.
type Page struct {
	URL      string
	Elements []*Element
}

func (p *Page) childrenOf(parentID string) []*Element {
	var children []*Element

	for _, el := range p.Elements {
		if el.ParentID == parentID {
			children = append(children, el)
		}
	}

	return children
}

func (p *Page) byID(id string) *Element {
	if p == nil {
		return nil
	}

	for _, el := range p.Elements {
		if el.ID == id {
			return el
		}
	}

	return nil
}
