package base

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/chainwatch/price-compare/internal/parsers/charset"
)

// Node is a minimal generic XML tree, used because the two dialects
// disagree on case and on which of several synonymous field names is
// present — a concrete struct per dialect would just duplicate the
// same fallback logic per chain. Decoding once into this shape lets
// both adapters share the same tolerant field lookup.
type Node struct {
	Name     string
	Text     string
	Children []*Node
}

// ParseXMLTree decodes content into a generic tree rooted at a
// synthetic root node (content's top-level element becomes the root's
// only child). XML namespaces are ignored — none of the supported
// dialects use them.
func ParseXMLTree(content []byte) (*Node, error) {
	enc := charset.DetectEncoding(content)
	if enc != charset.EncodingUTF8 {
		decoded, err := charset.Decode(content, enc)
		if err != nil {
			return nil, err
		}
		content = []byte(decoded)
	}

	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	// content is UTF-8 at this point, whatever encoding its declaration names.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	root := &Node{Name: "#root"}
	stack := []*Node{root}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
		case xml.CharData:
			cur := stack[len(stack)-1]
			cur.Text += string(t)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return root, nil
}

// FindAllByTag returns every descendant node (at any depth) whose tag
// name matches want case-insensitively.
func FindAllByTag(root *Node, want string) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if strings.EqualFold(c.Name, want) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// FindFirstAllByTag tries each tag name in order and returns the first
// one that yields at least one match, e.g. //Product falling back to
// //Item falling back to //PRODUCT.
func FindFirstAllByTag(root *Node, candidates ...string) []*Node {
	for _, c := range candidates {
		if found := FindAllByTag(root, c); len(found) > 0 {
			return found
		}
	}
	return nil
}

// Child returns the first immediate child whose tag matches one of
// candidates (tried in order, case-insensitive).
func Child(n *Node, candidates ...string) (*Node, bool) {
	for _, c := range candidates {
		for _, child := range n.Children {
			if strings.EqualFold(child.Name, c) {
				return child, true
			}
		}
	}
	return nil, false
}

// ChildText returns the trimmed text of the first matching child, or
// "" if none match.
func ChildText(n *Node, candidates ...string) string {
	if c, ok := Child(n, candidates...); ok {
		return strings.TrimSpace(c.Text)
	}
	return ""
}
