package logging

import "log/slog"

// handlerAttrs is the WithAttrs and WithGroup state shared by the handlers
// of this package. Attributes added through WithAttrs are nested into the
// groups open at that time, so only record attributes need the current
// groups applied.
type handlerAttrs struct {
	attrs  []slog.Attr
	groups []string
}

func (s handlerAttrs) withAttrs(attrs []slog.Attr) handlerAttrs {
	if len(attrs) == 0 {
		return s
	}
	out := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	out = append(out, s.attrs...)
	out = append(out, nestInGroups(s.groups, attrs)...)
	return handlerAttrs{attrs: out, groups: s.groups}
}

func (s handlerAttrs) withGroup(name string) handlerAttrs {
	if name == "" {
		return s
	}
	groups := make([]string, len(s.groups)+1)
	copy(groups, s.groups)
	groups[len(s.groups)] = name
	return handlerAttrs{attrs: s.attrs, groups: groups}
}

// each calls fn for the stored attributes followed by those of r.
func (s handlerAttrs) each(r slog.Record, fn func(slog.Attr)) {
	for _, a := range s.attrs {
		fn(a)
	}
	if r.NumAttrs() == 0 {
		return
	}
	recordAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)
		return true
	})
	for _, a := range nestInGroups(s.groups, recordAttrs) {
		fn(a)
	}
}

func nestInGroups(groups []string, attrs []slog.Attr) []slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}
	return attrs
}
