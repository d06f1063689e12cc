package vdom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// PropOp is the kind of a single prop change.
type PropOp uint8

const (
	PropSet     PropOp = 0x01 // Set/update attribute or handler
	PropRemove  PropOp = 0x02 // Remove attribute or handler
	PropSetText PropOp = 0x03 // Replace text-only children
)

// String returns the string representation of the PropOp.
func (op PropOp) String() string {
	switch op {
	case PropSet:
		return "Set"
	case PropRemove:
		return "Remove"
	case PropSetText:
		return "SetText"
	default:
		return "Unknown"
	}
}

// PropChange is a single prop mutation for a host element.
type PropChange struct {
	Op    PropOp
	Key   string
	Value any
}

func (c PropChange) String() string {
	switch c.Op {
	case PropRemove:
		return fmt.Sprintf("%s %s", c.Op, c.Key)
	case PropSetText:
		return fmt.Sprintf("%s %q", c.Op, PropString(c.Value))
	default:
		if IsEventHandler(c.Key) {
			return fmt.Sprintf("%s %s=<handler>", c.Op, c.Key)
		}
		return fmt.Sprintf("%s %s=%q", c.Op, c.Key, PropString(c.Value))
	}
}

// PropDiff is the ordered list of changes between two prop sets. A nil
// PropDiff means the props are equivalent.
type PropDiff []PropChange

// DiffProps compares the props of two host elements. Keys are visited in
// sorted order so the result is deterministic. Structural children are
// ignored; text-only children produce a PropSetText change. The key and
// ref props are not attributes and never appear in the result.
func DiffProps(prev, next Props) PropDiff {
	var diff PropDiff

	// Check for removed/changed props
	for _, key := range sortedKeys(prev) {
		if skipProp(key) {
			continue
		}
		prevVal := prev[key]
		nextVal, exists := next[key]
		if !exists {
			diff = append(diff, PropChange{Op: PropRemove, Key: key})
		} else if !PropsEqual(prevVal, nextVal) {
			diff = append(diff, PropChange{Op: PropSet, Key: key, Value: nextVal})
		}
	}

	// Check for added props
	for _, key := range sortedKeys(next) {
		if skipProp(key) {
			continue
		}
		if _, exists := prev[key]; !exists {
			diff = append(diff, PropChange{Op: PropSet, Key: key, Value: next[key]})
		}
	}

	prevText, prevIsText := TextOf(prev.Children())
	nextText, nextIsText := TextOf(next.Children())
	switch {
	case nextIsText && (!prevIsText || prevText != nextText):
		diff = append(diff, PropChange{Op: PropSetText, Key: ChildrenProp, Value: nextText})
	case prevIsText && !nextIsText:
		diff = append(diff, PropChange{Op: PropSetText, Key: ChildrenProp, Value: ""})
	}

	return diff
}

func skipProp(key string) bool {
	return key == ChildrenProp || key == "key" || key == "ref"
}

func sortedKeys(p Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsTextOnlyChildren reports whether the element's children are a single
// string or number, rendered as text content of the element itself.
func IsTextOnlyChildren(props Props) bool {
	_, ok := TextOf(props.Children())
	return ok
}

// TextOf returns the text of a string or numeric child.
func TextOf(child any) (string, bool) {
	switch v := child.(type) {
	case string:
		return v, true
	case nil:
		return "", false
	}
	if isNumber(child) {
		return PropString(child), true
	}
	return "", false
}

// PropsEqual compares two prop values for equality.
// Functions are never equal to each other, so changed handlers are always
// reported.
func PropsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case int64:
		if bv, ok := b.(int64); ok {
			return av == bv
		}
		return false
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
		return false
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

// PropString converts a prop value to its attribute string form.
func PropString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
