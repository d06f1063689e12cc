package render

import "strings"

// Pretty output keeps phrasing content on the line of its parent.
var inlineTags = setOf(`a abbr b bdi bdo br cite code data dfn em i kbd
	mark q rb rp rt rtc ruby s samp small span strong sub sup time u var wbr`)

// Attributes written without a value when memdom holds them as "true".
var booleanAttrs = setOf(`allowfullscreen async autofocus autoplay checked
	controls default defer disabled formnovalidate hidden inert ismap itemscope
	loop multiple muted nomodule novalidate open playsinline readonly required
	reversed selected`)

func setOf(names string) map[string]struct{} {
	fields := strings.Fields(names)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func isInlineElement(tag string) bool {
	_, ok := inlineTags[tag]
	return ok
}

func isBooleanAttr(name string) bool {
	_, ok := booleanAttrs[name]
	return ok
}
