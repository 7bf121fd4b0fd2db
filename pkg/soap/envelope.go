package soap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/identifier"
)

// Namespace constants
const (
	NsSOAP11 = "http://schemas.xmlsoap.org/soap/envelope/"
	NsSOAP12 = "http://www.w3.org/2003/05/soap-envelope"
	NsWSSE   = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	NsSAML1  = "urn:oasis:names:tc:SAML:1.0:assertion"
	NsSAML2  = "urn:oasis:names:tc:SAML:2.0:assertion"
)

var (
	// ErrInvalidEnvelope is returned when the data is not a SOAP envelope
	ErrInvalidEnvelope = errors.New("invalid SOAP envelope")
	// ErrEmptyBody is returned when the SOAP body carries no document
	ErrEmptyBody = errors.New("SOAP body is empty")
)

// Envelope is a parsed SOAP 1.1 or 1.2 envelope
type Envelope struct {
	doc    *etree.Document
	header *etree.Element
	body   *etree.Element

	// Namespace is the SOAP envelope namespace of the message
	Namespace string
}

// Header is a single SOAP header block
type Header struct {
	Name  identifier.QName
	Text  string
	Attrs map[string]string
}

// Attr returns the value of the unprefixed or prefixed attribute with the given local name
func (h *Header) Attr(local string) string {
	if h == nil || h.Attrs == nil {
		return ""
	}
	return h.Attrs[local]
}

// Parse reads a SOAP envelope
func Parse(data []byte) (*Envelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, fmt.Errorf("%w: no Envelope element", ErrInvalidEnvelope)
	}
	ns := root.NamespaceURI()
	if ns != NsSOAP11 && ns != NsSOAP12 {
		return nil, fmt.Errorf("%w: unsupported namespace %q", ErrInvalidEnvelope, ns)
	}

	env := &Envelope{doc: doc, Namespace: ns}
	for _, child := range root.ChildElements() {
		if child.NamespaceURI() != ns {
			continue
		}
		switch child.Tag {
		case "Header":
			if env.header == nil {
				env.header = child
			}
		case "Body":
			if env.body == nil {
				env.body = child
			}
		}
	}
	if env.body == nil {
		return nil, fmt.Errorf("%w: no Body element", ErrInvalidEnvelope)
	}

	return env, nil
}

// Header returns the first header block with the given qualified name
func (e *Envelope) Header(name identifier.QName) (*Header, bool) {
	if e.header == nil {
		return nil, false
	}
	for _, child := range e.header.ChildElements() {
		if child.Tag != name.Local || child.NamespaceURI() != name.Space {
			continue
		}
		h := &Header{
			Name:  name,
			Text:  strings.TrimSpace(child.Text()),
			Attrs: make(map[string]string),
		}
		for _, a := range child.Attr {
			if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
				continue
			}
			h.Attrs[a.Key] = a.Value
		}
		return h, true
	}
	return nil, false
}

// BodyDocument returns the business document carried in the SOAP body as a
// standalone XML document, with all namespaces it uses declared on its root.
func (e *Envelope) BodyDocument() (*etree.Document, error) {
	children := e.body.ChildElements()
	if len(children) == 0 {
		return nil, ErrEmptyBody
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(Detach(children[0]))
	return doc, nil
}

// SecurityTokens holds the credentials found in the WS-Security headers of a
// message, in document order
type SecurityTokens struct {
	// BinaryTokens are X.509 BinarySecurityToken elements
	BinaryTokens []*etree.Element
	// Assertions are SAML 1.x or 2.0 Assertion elements
	Assertions []*etree.Element
}

// SecurityTokens scans all wsse:Security header blocks
func (e *Envelope) SecurityTokens() *SecurityTokens {
	tokens := &SecurityTokens{}
	if e.header == nil {
		return tokens
	}
	for _, child := range e.header.ChildElements() {
		if child.Tag != "Security" || child.NamespaceURI() != NsWSSE {
			continue
		}
		collectTokens(child, tokens)
	}
	return tokens
}

func collectTokens(elem *etree.Element, tokens *SecurityTokens) {
	for _, child := range elem.ChildElements() {
		switch {
		case child.Tag == "BinarySecurityToken" && child.NamespaceURI() == NsWSSE:
			valueType := child.SelectAttrValue("ValueType", "")
			if valueType == "" || strings.HasSuffix(valueType, "#X509v3") {
				tokens.BinaryTokens = append(tokens.BinaryTokens, child)
			}
		case child.Tag == "Assertion" && isSAMLNamespace(child.NamespaceURI()):
			// nested elements of an assertion are not credentials of their own
			tokens.Assertions = append(tokens.Assertions, child)
		default:
			collectTokens(child, tokens)
		}
	}
}

func isSAMLNamespace(ns string) bool {
	return ns == NsSAML1 || ns == NsSAML2
}

// Detach returns a copy of elem that can be serialized on its own. Namespace
// declarations used inside elem but declared on its ancestors are copied
// onto the returned element.
func Detach(elem *etree.Element) *etree.Element {
	c := elem.Copy()

	used := make(map[string]bool)
	walk(c, func(el *etree.Element) {
		used[el.Space] = true
		for _, a := range el.Attr {
			if a.Space != "" && a.Space != "xmlns" && a.Space != "xml" {
				used[a.Space] = true
			}
		}
	})

	prefixes := make([]string, 0, len(used))
	for p := range used {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		if declares(c, prefix) {
			continue
		}
		uri, ok := lookupNamespace(elem.Parent(), prefix)
		if !ok {
			continue
		}
		if prefix == "" {
			c.CreateAttr("xmlns", uri)
		} else {
			c.CreateAttr("xmlns:"+prefix, uri)
		}
	}
	return c
}

func walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		walk(child, fn)
	}
}

func declares(el *etree.Element, prefix string) bool {
	for _, a := range el.Attr {
		if prefix == "" && a.Space == "" && a.Key == "xmlns" {
			return true
		}
		if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
			return true
		}
	}
	return false
}

func lookupNamespace(el *etree.Element, prefix string) (string, bool) {
	for ; el != nil; el = el.Parent() {
		for _, a := range el.Attr {
			if prefix == "" && a.Space == "" && a.Key == "xmlns" {
				return a.Value, true
			}
			if prefix != "" && a.Space == "xmlns" && a.Key == prefix {
				return a.Value, true
			}
		}
	}
	return "", false
}
