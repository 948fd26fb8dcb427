// Package frontmatter parses and renders the delimited metadata block at the
// head of a markdown record file. Parsing never fails: input without a
// well-formed block is treated as all body, and a malformed date value is
// kept as its raw string. Rendering emits fields in a canonical order so that
// repeated renders of unchanged data are byte-identical.
package frontmatter

import (
	"sort"
	"strings"

	"github.com/elinsky/execution-service/internal/models"
)

// Delimiter is the marker line opening and closing the metadata block.
const Delimiter = "---"

// canonicalOrder fixes the field sequence on render. Keys outside this list
// (the slug and any Extra entries) are appended after it.
var canonicalOrder = []string{
	"area", "title", "type", "created", "started",
	"last_reviewed", "due", "completed", "descoped",
}

// dateFields are the keys whose values parse as calendar dates.
var dateFields = map[string]bool{
	"created":       true,
	"started":       true,
	"last_reviewed": true,
	"due":           true,
	"completed":     true,
	"descoped":      true,
}

// Doc is the typed metadata of a record file. Unknown keys survive a
// parse/render round trip through Extra.
type Doc struct {
	Title string
	Area  string
	Type  string
	Slug  string

	Created      *models.Date
	Started      *models.Date
	LastReviewed *models.Date
	Due          *models.Date
	Completed    *models.Date
	Descoped     *models.Date

	// Extra holds keys outside the known set, plus date fields whose
	// values did not parse (kept as raw strings).
	Extra map[string]string
}

// Empty reports whether the doc carries no metadata at all.
func (d Doc) Empty() bool {
	return d.Title == "" && d.Area == "" && d.Type == "" && d.Slug == "" &&
		d.Created == nil && d.Started == nil && d.LastReviewed == nil &&
		d.Due == nil && d.Completed == nil && d.Descoped == nil && len(d.Extra) == 0
}

// Parse splits data into metadata and body. The body is returned byte-for-byte
// as it appears after the closing delimiter line; when no well-formed block is
// found the whole input is body. Delimiter lines may carry trailing spaces or
// a carriage return, so CRLF-edited files still parse.
func Parse(data []byte) (Doc, string) {
	text := string(data)

	first, rest, ok := strings.Cut(text, "\n")
	if !ok || !delimiterLine(first) {
		return Doc{}, text
	}

	var doc Doc
	for rest != "" {
		line, after, found := strings.Cut(rest, "\n")
		if delimiterLine(line) {
			if !found {
				after = ""
			}
			return doc, after
		}
		key, value, kv := strings.Cut(line, ":")
		if kv {
			doc.set(strings.TrimSpace(key), strings.TrimSpace(value))
		}
		if !found {
			break
		}
		rest = after
	}

	// No closing delimiter: the whole input is body.
	return Doc{}, text
}

// delimiterLine reports whether line is a delimiter, ignoring trailing
// whitespace and a carriage return.
func delimiterLine(line string) bool {
	return strings.TrimRight(line, " \t\r") == Delimiter
}

// set assigns a single key/value pair, applying date parsing for date fields.
func (d *Doc) set(key, value string) {
	if key == "" {
		return
	}

	if dateFields[key] {
		if value == "" {
			return
		}
		parsed, err := models.ParseDate(value)
		if err != nil {
			// Unparseable date: keep the raw string.
			d.setExtra(key, value)
			return
		}
		switch key {
		case "created":
			d.Created = &parsed
		case "started":
			d.Started = &parsed
		case "last_reviewed":
			d.LastReviewed = &parsed
		case "due":
			d.Due = &parsed
		case "completed":
			d.Completed = &parsed
		case "descoped":
			d.Descoped = &parsed
		}
		return
	}

	switch key {
	case "title":
		d.Title = value
	case "area":
		d.Area = value
	case "type":
		d.Type = value
	case "slug":
		d.Slug = value
	default:
		d.setExtra(key, value)
	}
}

func (d *Doc) setExtra(key, value string) {
	if d.Extra == nil {
		d.Extra = make(map[string]string)
	}
	d.Extra[key] = value
}

// value returns the rendered form of a canonical key, or "" when absent.
func (d Doc) value(key string) string {
	date := func(p *models.Date) string {
		if p == nil {
			return ""
		}
		return p.String()
	}
	switch key {
	case "title":
		return d.Title
	case "area":
		return d.Area
	case "type":
		return d.Type
	case "created":
		return date(d.Created)
	case "started":
		return date(d.Started)
	case "last_reviewed":
		return date(d.LastReviewed)
	case "due":
		return date(d.Due)
	case "completed":
		return date(d.Completed)
	case "descoped":
		return date(d.Descoped)
	}
	return ""
}

// Render emits the metadata block in canonical order followed by the body
// verbatim. Extra keys come after the canonical set, sorted, so output is
// stable under repeated application.
func Render(doc Doc, body string) []byte {
	lines := []string{Delimiter}

	for _, key := range canonicalOrder {
		if v := doc.value(key); v != "" {
			lines = append(lines, key+": "+v)
		}
	}
	if doc.Slug != "" {
		lines = append(lines, "slug: "+doc.Slug)
	}

	extras := make([]string, 0, len(doc.Extra))
	for k := range doc.Extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		if v := doc.Extra[k]; v != "" {
			lines = append(lines, k+": "+v)
		}
	}

	lines = append(lines, Delimiter, body)
	return []byte(strings.Join(lines, "\n"))
}
