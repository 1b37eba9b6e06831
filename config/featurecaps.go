// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package config

import (
	"path/filepath"

	"github.com/go-ini/ini"
)

// LoadFeatureCapabilities reads every *.ini file in dir and returns the
// union of their section names as a YANG feature-capabilities list
// (spec's DOMAIN STACK: generalizes the teacher's cmd/yangc/yangc.go
// -custom-xpath-functions INI-file convention to feature capabilities
// instead of XPath function names). cmd/yangvalidate prints the list; it
// is not passed to YANG module loading.
// A file that fails to parse is skipped; this mirrors the teacher's own
// best-effort handling.
func LoadFeatureCapabilities(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.ini"))
	if err != nil {
		return nil, err
	}
	var caps []string
	for _, file := range files {
		f, err := ini.Load(file)
		if err != nil {
			continue
		}
		for _, section := range f.Sections() {
			if section.Name() == ini.DefaultSection {
				continue
			}
			caps = append(caps, section.Name())
		}
	}
	return caps, nil
}
