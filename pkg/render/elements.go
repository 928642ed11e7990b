package render

// tagClass describes how an element is serialized.
type tagClass uint8

const (
	// tagVoid elements have no children and no end tag.
	tagVoid tagClass = 1 << iota
	// tagInline elements keep their children on one line in pretty mode.
	tagInline
)

var tagClasses = map[string]tagClass{
	"area":   tagVoid,
	"base":   tagVoid,
	"br":     tagVoid | tagInline,
	"col":    tagVoid,
	"embed":  tagVoid,
	"hr":     tagVoid,
	"img":    tagVoid | tagInline,
	"input":  tagVoid | tagInline,
	"link":   tagVoid,
	"meta":   tagVoid,
	"source": tagVoid,
	"track":  tagVoid,
	"wbr":    tagVoid | tagInline,

	"a":      tagInline,
	"abbr":   tagInline,
	"b":      tagInline,
	"bdi":    tagInline,
	"bdo":    tagInline,
	"button": tagInline,
	"cite":   tagInline,
	"code":   tagInline,
	"data":   tagInline,
	"dfn":    tagInline,
	"em":     tagInline,
	"i":      tagInline,
	"kbd":    tagInline,
	"label":  tagInline,
	"mark":   tagInline,
	"q":      tagInline,
	"s":      tagInline,
	"samp":   tagInline,
	"small":  tagInline,
	"span":   tagInline,
	"strong": tagInline,
	"sub":    tagInline,
	"sup":    tagInline,
	"time":   tagInline,
	"u":      tagInline,
	"var":    tagInline,
}

func classOf(tag string) tagClass { return tagClasses[tag] }

func (c tagClass) void() bool   { return c&tagVoid != 0 }
func (c tagClass) inline() bool { return c&tagInline != 0 }

// booleanAttrs are written as a bare name when true and omitted when false.
var booleanAttrs = map[string]struct{}{
	"allowfullscreen": {},
	"async":           {},
	"autofocus":       {},
	"autoplay":        {},
	"checked":         {},
	"controls":        {},
	"default":         {},
	"defer":           {},
	"disabled":        {},
	"formnovalidate":  {},
	"hidden":          {},
	"inert":           {},
	"ismap":           {},
	"itemscope":       {},
	"loop":            {},
	"multiple":        {},
	"muted":           {},
	"nomodule":        {},
	"novalidate":      {},
	"open":            {},
	"playsinline":     {},
	"readonly":        {},
	"required":        {},
	"reversed":        {},
	"selected":        {},
}

func isBooleanAttr(name string) bool {
	_, ok := booleanAttrs[name]
	return ok
}
