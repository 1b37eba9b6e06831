// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package xpath

import (
	"regexp"
	"sync"
)

var (
	reCacheMu sync.Mutex
	reCache   = map[string]*regexp.Regexp{}
)

// regexpMatch matches s against an XSD-flavoured pattern (the same
// pattern syntax YANG "pattern" restrictions use), compiling and caching
// the pattern under Go's regexp/syntax engine. XSD patterns are
// implicitly anchored at both ends, which Go's unanchored RE2 is not, so
// the pattern is wrapped accordingly before compiling.
func regexpMatch(pattern, s string) (bool, error) {
	re, err := compiledPattern(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

func compiledPattern(pattern string) (*regexp.Regexp, error) {
	reCacheMu.Lock()
	defer reCacheMu.Unlock()
	if re, ok := reCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}
	reCache[pattern] = re
	return re, nil
}
