package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// Document is the serialized form of one node and, for composites, its
// subtree.
type Document struct {
	ID    int64
	Kind  string
	Props []Prop
	// Children is nil for non-composites and non-nil (possibly empty) for
	// composites.
	Children []Document
}

// Prop is a non-default property value.
type Prop struct {
	Name  string
	Value any
}

// Prop returns the named property value.
func (d Document) Prop(name string) (any, bool) {
	for _, p := range d.Props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes id, kind, the properties in schema order, then children.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.FormatInt(d.ID, 10))
	buf.WriteString(`,"kind":`)
	kind, err := json.Marshal(d.Kind)
	if err != nil {
		return nil, err
	}
	buf.Write(kind)
	for _, p := range d.Props {
		name, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Name, err)
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	if d.Children != nil {
		children, err := json.Marshal(d.Children)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"children":`)
		buf.Write(children)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a document, keeping property order. Property values
// decode to the generic JSON types.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document: expected object, got %v", tok)
	}
	*d = Document{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		switch key {
		case "id":
			err = dec.Decode(&d.ID)
		case "kind":
			err = dec.Decode(&d.Kind)
		case "children":
			d.Children = []Document{}
			err = dec.Decode(&d.Children)
		default:
			var v any
			if err = dec.Decode(&v); err == nil {
				d.Props = append(d.Props, Prop{Name: key, Value: v})
			}
		}
		if err != nil {
			return fmt.Errorf("document field %s: %w", key, err)
		}
	}
	_, err = dec.Token()
	return err
}

// Serialize builds the document for n and its subtree. Properties equal to
// their documented default are omitted. Serializing a disposed node, or
// reaching one during traversal, is an error.
func Serialize(n Node) (Document, error) {
	if n == nil {
		return Document{}, evolveerrors.New("bridge.Serialize", evolveerrors.KindInvalidArgument, nil)
	}
	if n.IsDisposed() {
		return Document{}, evolveerrors.NewWidget("bridge.Serialize", evolveerrors.KindDisposed, NodeEvent(n), nil)
	}
	doc := Document{ID: n.NodeID(), Kind: n.Kind()}
	for _, f := range n.Fields() {
		if f.IsDefault() {
			continue
		}
		doc.Props = append(doc.Props, Prop{Name: f.Name, Value: f.Value})
	}
	if n.IsComposite() {
		children := n.ChildNodes()
		doc.Children = make([]Document, 0, len(children))
		for _, c := range children {
			child, err := Serialize(c)
			if err != nil {
				return Document{}, err
			}
			doc.Children = append(doc.Children, child)
		}
	}
	return doc, nil
}

// SerializeAll serializes each root independently, in the order given.
func SerializeAll(roots []Node) ([]Document, error) {
	docs := make([]Document, 0, len(roots))
	for _, n := range roots {
		doc, err := Serialize(n)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
