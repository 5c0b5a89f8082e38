// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package transform

import (
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// IsNumber reports whether s parses as a float.
func IsNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Keywords is the set of flag spellings a transform recognizes; both
// single- and double-dash spellings are members.
type Keywords struct {
	set mapset.Set[string]
}

// NewKeywords builds the keyword set from the single-dash
// spellings, adding the double-dash variants.
func NewKeywords(flags ...string) Keywords {
	s := mapset.NewThreadUnsafeSet[string]()
	for _, f := range flags {
		s.Add(f)
		s.Add("-" + f)
	}
	return Keywords{set: s}
}

// Contains reports whether arg is a recognized flag spelling.
func (k Keywords) Contains(arg string) bool { return k.set.Contains(arg) }

// Canon strips a leading extra dash so "--flag" compares as "-flag".
func Canon(arg string) string {
	if strings.HasPrefix(arg, "--") {
		return arg[1:]
	}
	return arg
}

// ScanValues consumes the value list following a multi-value flag
// like -buffers: names up to the next keyword. When allowAll is set,
// a "-all" value is accepted and reported instead of collected. It
// returns ok=false when the list repeats the flag itself, mixes
// "-all" with names, or contains a stray dash-word.
func ScanValues(args []string, i int, flag string, kw Keywords, allowAll bool) (names []string, sawAll bool, last int, ok bool) {
	last = i
	for j := i + 1; j < len(args); j++ {
		a := args[j]
		if Canon(a) == flag {
			return nil, false, j, false
		}
		if kw.Contains(a) {
			break
		}
		if allowAll && Canon(a) == "-all" {
			if len(names) > 0 {
				return nil, false, j, false
			}
			sawAll = true
			last = j
			continue
		}
		if strings.HasPrefix(a, "-") {
			return nil, false, j, false
		}
		if sawAll {
			return nil, false, j, false
		}
		names = append(names, a)
		last = j
	}
	return names, sawAll, last, true
}
