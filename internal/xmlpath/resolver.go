// =============================================================================
// DIAN XML Consolidator - Path Resolver
// =============================================================================
//
// Generic dotted-path lookup over a parsed etree document. A path such as
//
//   cac:AccountingSupplierParty.cac:Party.cac:PartyName.cbc:Name
//
// is split on "." and walked one segment at a time. Segment grammar:
//
//   prefix:Name | Name   child element, matched by local name
//   @Name                attribute of the current node
//   _                    character data of the current node
//
// A terminal "Name" segment has two ordered candidates: the text of the
// child element (scalar form), then the attribute of the same name on the
// current node (attribute form). UBL producers write <cbc:ID>FE1</cbc:ID>
// while payroll producers write <NumeroSecuenciaXML Numero="NE1"/>; one
// chain table serves both.
//
// Callers pass ordered candidate chains. The first candidate yielding a
// non-empty value wins. All domain knowledge lives in the ordering.
//
// =============================================================================

package xmlpath

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

const (
	// attrPrefix marks an attribute-only segment.
	attrPrefix = "@"

	// textSegment addresses the character data of the current node.
	textSegment = "_"
)

// =============================================================================
// SCALAR RESOLUTION
// =============================================================================

// Resolve returns the first non-empty value found by walking the candidate
// paths in order. The boolean is false when every candidate is absent.
func Resolve(root *etree.Element, chain ...string) (string, bool) {
	if root == nil {
		return "", false
	}
	for _, path := range chain {
		if value, ok := resolvePath(root, Split(path)); ok {
			return value, true
		}
	}
	return "", false
}

// ResolveText is Resolve with absent resolved to the empty string.
func ResolveText(root *etree.Element, chain ...string) string {
	value, _ := Resolve(root, chain...)
	return value
}

// ResolveNumber resolves the chain and parses the result as a decimal.
// Absent and unparseable values both resolve to zero; callers never observe
// a non-numeric amount.
func ResolveNumber(root *etree.Element, chain ...string) decimal.Decimal {
	value, ok := Resolve(root, chain...)
	if !ok {
		return decimal.Zero
	}
	return ParseNumber(value)
}

// ParseNumber parses a monetary or quantity string. Anything that is not a
// plain decimal number ("N/A", "", "1.2.3") yields zero.
func ParseNumber(value string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// resolvePath walks all but the last segment as elements and resolves the
// terminal segment as a leaf.
func resolvePath(root *etree.Element, segments []string) (string, bool) {
	if len(segments) == 0 {
		return "", false
	}

	node := root
	for _, segment := range segments[:len(segments)-1] {
		node = firstChild(node, segment)
		if node == nil {
			return "", false
		}
	}

	return leafValue(node, segments[len(segments)-1])
}

// leafValue resolves the terminal segment against node.
func leafValue(node *etree.Element, segment string) (string, bool) {
	switch {
	case segment == textSegment:
		return cleanText(node.Text())

	case strings.HasPrefix(segment, attrPrefix):
		return attrValue(node, strings.TrimPrefix(segment, attrPrefix))
	}

	// Scalar form first.
	if child := firstChild(node, segment); child != nil {
		if value, ok := cleanText(child.Text()); ok {
			return value, true
		}
	}

	// Attribute form second.
	return attrValue(node, segment)
}

// =============================================================================
// ELEMENT RESOLUTION
// =============================================================================

// ResolveElement returns the element reached by the first candidate path
// that can be walked completely, or nil.
func ResolveElement(root *etree.Element, chain ...string) *etree.Element {
	if root == nil {
		return nil
	}
	for _, path := range chain {
		if el := walk(root, Split(path)); el != nil {
			return el
		}
	}
	return nil
}

// ResolveElements returns every sibling matching the terminal segment of the
// first candidate path that yields at least one element. A collection
// serialized as one bare node and one serialized as N repeated nodes both
// come back as a slice, in document order.
func ResolveElements(root *etree.Element, chain ...string) []*etree.Element {
	if root == nil {
		return nil
	}
	for _, path := range chain {
		segments := Split(path)
		if len(segments) == 0 {
			continue
		}
		parent := walk(root, segments[:len(segments)-1])
		if parent == nil {
			continue
		}
		if found := Children(parent, segments[len(segments)-1]); len(found) > 0 {
			return found
		}
	}
	return nil
}

// Children returns all direct child elements of el whose local name matches
// name (prefix ignored), in document order.
func Children(el *etree.Element, name string) []*etree.Element {
	if el == nil {
		return nil
	}
	local := localName(name)
	var found []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			found = append(found, child)
		}
	}
	return found
}

// LocalName returns the tag of el without any namespace prefix.
func LocalName(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return el.Tag
}

// walk follows every segment as an element step.
func walk(root *etree.Element, segments []string) *etree.Element {
	node := root
	for _, segment := range segments {
		node = firstChild(node, segment)
		if node == nil {
			return nil
		}
	}
	return node
}

// =============================================================================
// HELPERS
// =============================================================================

// Split breaks a dotted path into its segments, dropping empty ones.
func Split(path string) []string {
	parts := strings.Split(path, ".")
	segments := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func firstChild(el *etree.Element, name string) *etree.Element {
	if el == nil || name == textSegment || strings.HasPrefix(name, attrPrefix) {
		return nil
	}
	local := localName(name)
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

func attrValue(el *etree.Element, name string) (string, bool) {
	local := localName(name)
	for _, attr := range el.Attr {
		if attr.Key == local {
			return cleanText(attr.Value)
		}
	}
	return "", false
}

// localName strips an optional "prefix:" from a segment.
func localName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// cleanText trims and NFC-normalizes a value; empty means absent.
func cleanText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return norm.NFC.String(s), true
}
