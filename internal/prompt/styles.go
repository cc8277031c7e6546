package prompt

import "github.com/samber/lo"

// Styles is the closed set of selectable styles, in display order.
type Styles []Style

func NewStyles(labels []string) Styles {
	return lo.Map(lo.Uniq(lo.Compact(labels)), func(s string, _ int) Style { return Style(s) })
}

func (s Styles) Contains(style Style) bool {
	return lo.Contains(s, style)
}

// Parse returns the style whose label equals label.
func (s Styles) Parse(label string) (Style, bool) {
	return lo.Find(s, func(style Style) bool { return string(style) == label })
}
