// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vyatta-confd/engine/tree"
)

// decodeJSON parses r as an RFC 7951-shaped document into an unbound
// tree.Node rooted at "config": JSON objects become element containers,
// arrays become repeated list/leaf-list entries, and scalars become a
// leaf's Body child. RFC 7951 module-qualified member names
// ("module:name") are split into the node's Prefix/Name, the same
// distinction decodeXML gets for free from XML namespaces.
func decodeJSON(r io.Reader) (*tree.Node, error) {
	var raw map[string]interface{}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return tree.NewRoot("config"), nil
		}
		return nil, fmt.Errorf("datastore: parsing json: %w", err)
	}
	root := tree.NewRoot("config")
	buildJSONChildren(root, raw)
	return root, nil
}

func buildJSONChildren(parent *tree.Node, obj map[string]interface{}) {
	for key, val := range obj {
		prefix, name := splitQualified(key)
		switch v := val.(type) {
		case []interface{}:
			for _, entry := range v {
				addJSONValue(parent, prefix, name, entry)
			}
		default:
			addJSONValue(parent, prefix, name, val)
		}
	}
}

func addJSONValue(parent *tree.Node, prefix, name string, val interface{}) {
	n := tree.New(name, parent, tree.Element)
	n.Prefix = prefix
	switch v := val.(type) {
	case map[string]interface{}:
		buildJSONChildren(n, v)
	case json.Number:
		n.SetBody(v.String())
	case string:
		n.SetBody(v)
	case bool:
		n.SetBody(strconv.FormatBool(v))
	case nil:
		// presence container with no children, or an empty leaf value.
	default:
		n.SetBody(fmt.Sprint(v))
	}
}

func splitQualified(key string) (prefix, name string) {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

// encodeJSON writes root in RFC 7951 shape: list and leaf-list entries
// sharing a name are grouped into one JSON array member, matching
// decodeJSON's expansion so the two round-trip losslessly.
func encodeJSON(w io.Writer, root *tree.Node) error {
	obj := jsonObject(root)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(obj)
}

func jsonObject(n *tree.Node) map[string]interface{} {
	out := make(map[string]interface{})
	i := 0
	for i < len(n.Children) {
		c := n.Children[i]
		if c.Kind != tree.Element {
			i++
			continue
		}
		key := c.Name
		if c.Prefix != "" {
			key = c.Prefix + ":" + c.Name
		}
		j := i + 1
		for j < len(n.Children) && n.Children[j].Kind == tree.Element && n.Children[j].Name == c.Name {
			j++
		}
		group := n.Children[i:j]
		if len(group) > 1 {
			arr := make([]interface{}, len(group))
			for k, g := range group {
				arr[k] = jsonValue(g)
			}
			out[key] = arr
		} else {
			out[key] = jsonValue(c)
		}
		i = j
	}
	return out
}

func jsonValue(n *tree.Node) interface{} {
	hasElementChild := false
	for _, c := range n.Children {
		if c.Kind == tree.Element {
			hasElementChild = true
			break
		}
	}
	if hasElementChild {
		return jsonObject(n)
	}
	return n.String()
}
