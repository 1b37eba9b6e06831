// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/vyatta-confd/engine/tree"
)

// decodeXML parses r's bytes into an unbound tree.Node rooted at
// "config" (spec section 4.D's file format: "a single top-level element
// named config"). tree.Node is a generic, spec-free node, so this walks
// xml.Decoder tokens directly rather than unmarshalling into a static Go
// struct — there is no fixed schema to declare struct tags against.
func decodeXML(r io.Reader) (*tree.Node, error) {
	dec := xml.NewDecoder(r)
	var root *tree.Node
	var stack []*tree.Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("datastore: parsing xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var parent *tree.Node
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			n := tree.New(t.Name.Local, parent, tree.Element)
			n.Prefix = t.Name.Space
			for _, a := range t.Attr {
				attr := tree.New(a.Name.Local, n, tree.Attribute)
				attr.Value = a.Value
			}
			if parent == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			text := bytes.TrimSpace(t)
			if len(text) == 0 || len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			tree.New(string(text), parent, tree.Body).Value = string(text)
		}
	}
	if root == nil {
		root = tree.NewRoot("config")
	}
	return root, nil
}

// encodeXML writes root in the same shape decodeXML reads, so the two
// round-trip losslessly for the same schema (spec section 6).
func encodeXML(w io.Writer, root *tree.Node) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := writeXMLNode(enc, root); err != nil {
		return err
	}
	return enc.Flush()
}

func writeXMLNode(enc *xml.Encoder, n *tree.Node) error {
	switch n.Kind {
	case tree.Comment:
		return enc.EncodeToken(xml.Comment(n.Value))
	case tree.Body:
		return enc.EncodeToken(xml.CharData(n.Value))
	}
	start := xml.StartElement{Name: xml.Name{Local: n.Name, Space: n.Prefix}}
	for _, a := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := writeXMLNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
