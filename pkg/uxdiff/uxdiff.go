// Package uxdiff derives version-to-version UX config diffs for history
// entries the backend returned without one.
package uxdiff

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/ats-console/pkg/backend"
)

// document is the comparison shape. Flags is always an object so that
// single flag changes surface as /flags/<key> operations.
type document struct {
	Layout *backend.Layout `json:"layout"`
	Theme  *backend.Theme   `json:"theme"`
	Flags  map[string]bool `json:"flags"`
}

func toDocument(c backend.UXModuleConfig) document {
	d := document{Layout: c.Layout, Theme: c.Theme, Flags: c.Flags}
	if d.Flags == nil {
		d.Flags = map[string]bool{}
	}
	return d
}

// Compute describes the change from prev to next. An unchanged config
// yields an empty, non-nil diff.
func Compute(prev, next backend.UXModuleConfig) (*backend.UXVersionDiff, error) {
	from, to := toDocument(prev), toDocument(next)
	patch, err := jsondiff.Compare(from, to)
	if err != nil {
		return nil, errors.Wrap(err, "compare ux configs")
	}

	diff := &backend.UXVersionDiff{}
	for _, op := range patch {
		path := string(op.Path)
		switch {
		case path == "/layout":
			diff.Layout = &backend.FieldDiff{From: layoutString(from.Layout), To: layoutString(to.Layout)}
		case path == "/theme":
			diff.Theme = &backend.FieldDiff{From: themeString(from.Theme), To: themeString(to.Theme)}
		case strings.HasPrefix(path, "/flags/"):
			key := unescapePointer(strings.TrimPrefix(path, "/flags/"))
			switch op.Type {
			case jsondiff.OperationAdd:
				diff.FlagsAdded = append(diff.FlagsAdded, key)
			case jsondiff.OperationRemove:
				diff.FlagsRemoved = append(diff.FlagsRemoved, key)
			case jsondiff.OperationReplace:
				diff.FlagsChanged = append(diff.FlagsChanged, backend.FlagChange{
					Key:  key,
					From: from.Flags[key],
					To:   to.Flags[key],
				})
			}
		}
	}
	sort.Strings(diff.FlagsAdded)
	sort.Strings(diff.FlagsRemoved)
	sort.Slice(diff.FlagsChanged, func(i, j int) bool {
		return diff.FlagsChanged[i].Key < diff.FlagsChanged[j].Key
	})
	return diff, nil
}

// Fill sets Diff on every item that lacks one, comparing against the
// closest lower version in the list. The oldest version keeps a nil diff.
// Items are not reordered.
func Fill(items []backend.UXConfigVersionItem) error {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].Version < items[order[b]].Version
	})
	for n := 1; n < len(order); n++ {
		cur := &items[order[n]]
		if cur.Diff != nil {
			continue
		}
		diff, err := Compute(items[order[n-1]].Config, cur.Config)
		if err != nil {
			return err
		}
		cur.Diff = diff
	}
	return nil
}

const previewLimit = 80

// FlagsPreview renders flags as compact JSON, cut to 80 characters with a
// trailing "..." when longer. No flags render as "".
func FlagsPreview(flags map[string]bool) string {
	if len(flags) == 0 {
		return ""
	}
	raw, err := json.Marshal(flags)
	if err != nil {
		return ""
	}
	s := string(raw)
	if len(s) > previewLimit {
		n := previewLimit - 3
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		return s[:n] + "..."
	}
	return s
}

func layoutString(l *backend.Layout) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

func themeString(t *backend.Theme) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

// unescapePointer reverses RFC 6901 token escaping.
func unescapePointer(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
}
