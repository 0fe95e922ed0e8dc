package projection

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"credit_appraisal/pkg/core/document"
	"credit_appraisal/pkg/core/latex"
	"credit_appraisal/pkg/core/utils"
	"credit_appraisal/pkg/models"

	"github.com/shopspring/decimal"
)

// scope is an object being searched plus its source path, for error messages.
type scope struct {
	obj  *document.Object
	path string
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// lookup resolves a logical name through the alias table. found is false with
// a nil error only when the name is optional and absent.
func (p *Projector) lookup(s scope, logical string) (v any, path string, found bool, err error) {
	keys := p.aliases.Keys(logical)
	for _, key := range keys {
		if v, ok := s.obj.Lookup(key); ok {
			return v, joinPath(s.path, key), true, nil
		}
	}
	if p.aliases.Optional(logical) {
		return nil, "", false, nil
	}
	return nil, "", false, missing(s.path, logical, keys)
}

func (p *Projector) require(s scope, logical string) (any, string, error) {
	v, path, found, err := p.lookup(s, logical)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", missing(s.path, logical, p.aliases.Keys(logical))
	}
	return v, path, nil
}

// object resolves logical to a nested object. ok is false when an optional
// object is absent.
func (p *Projector) object(s scope, logical string) (child scope, ok bool, err error) {
	v, path, found, err := p.lookup(s, logical)
	if err != nil || !found {
		return scope{}, false, err
	}
	obj, isObj := v.(*document.Object)
	if !isObj {
		return scope{}, false, mismatch(path, "object", document.TypeName(v))
	}
	return scope{obj: obj, path: path}, true, nil
}

func (p *Projector) list(s scope, logical string) ([]any, string, error) {
	v, path, err := p.require(s, logical)
	if err != nil {
		return nil, "", err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, "", mismatch(path, "array", document.TypeName(v))
	}
	return items, path, nil
}

// formatNumber keeps the literal as written, except exponent forms which are
// expanded so that LaTeX never sees "1e+06".
func formatNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, "eE") {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.String()
}

// scalarText renders a JSON scalar as text. Strings come back unescaped.
func scalarText(v any, path string) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return formatNumber(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", mismatch(path, "scalar", document.TypeName(v))
	}
}

// text cleans and escapes narrative text.
func (p *Projector) text(s string) string {
	return latex.EscapeString(utils.CleanText(s, p.aliases.Cleanup))
}

// cell renders a table value or row field: null becomes the not-available
// marker, other scalars are escaped.
func (p *Projector) cell(v any, path string) (string, error) {
	if v == nil {
		return p.aliases.NotAvailable, nil
	}
	s, err := scalarText(v, path)
	if err != nil {
		return "", err
	}
	return latex.EscapeString(s), nil
}

// entry projects one {period, value} pair.
func (p *Projector) entry(v any, path string) (period, value string, err error) {
	obj, ok := v.(*document.Object)
	if !ok {
		return "", "", mismatch(path, "object", document.TypeName(v))
	}
	s := scope{obj: obj, path: path}

	pv, ppath, err := p.require(s, "entry.period")
	if err != nil {
		return "", "", err
	}
	period, err = scalarText(pv, ppath)
	if err != nil {
		return "", "", err
	}

	vv, vpath, err := p.require(s, "entry.value")
	if err != nil {
		return "", "", err
	}
	value, err = p.cell(vv, vpath)
	if err != nil {
		return "", "", err
	}
	return latex.EscapeString(period), value, nil
}

// series projects a list of {period, value} entries.
func (p *Projector) series(v any, path string) (models.Series, error) {
	items, ok := v.([]any)
	if !ok {
		return models.Series{}, mismatch(path, "array", document.TypeName(v))
	}

	out := models.Series{
		Periods: make([]string, 0, len(items)),
		Values:  make([]string, 0, len(items)),
	}
	for i, item := range items {
		period, value, err := p.entry(item, indexPath(path, i))
		if err != nil {
			return models.Series{}, err
		}
		out.Periods = append(out.Periods, period)
		out.Values = append(out.Values, value)
	}
	return out, nil
}

func checkAligned(path, firstName string, first []string, name string, periods []string) error {
	if slices.Equal(first, periods) {
		return nil
	}
	return misaligned(path, fmt.Sprintf("%s has periods %v, %s has %v", firstName, first, name, periods))
}

// seriesTable projects every category of a table in source order. All
// categories must share the same periods.
func (p *Projector) seriesTable(table scope) (models.Table, error) {
	order := table.obj.Keys()
	out := make(models.Table, 0, len(order))

	var first models.Series
	for i, category := range order {
		v, _ := table.obj.Get(category)
		path := joinPath(table.path, category)
		s, err := p.series(v, path)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			first = s
		} else if err := checkAligned(table.path, order[0], first.Periods, category, s.Periods); err != nil {
			return nil, err
		}
		out = append(out, models.Category{Name: category, Series: s})
	}
	return out, nil
}

// groupedTables projects a table whose categories are themselves tables.
func (p *Projector) groupedTables(table scope) ([]models.Group, error) {
	out := make([]models.Group, 0, table.obj.Len())
	for _, group := range table.obj.Keys() {
		v, _ := table.obj.Get(group)
		path := joinPath(table.path, group)
		obj, ok := v.(*document.Object)
		if !ok {
			return nil, mismatch(path, "object", document.TypeName(v))
		}
		inner, err := p.seriesTable(scope{obj: obj, path: path})
		if err != nil {
			return nil, err
		}
		out = append(out, models.Group{Name: group, Rows: inner})
	}
	return out, nil
}

// Column maps one source category to a named output sequence.
type Column struct {
	Name   string // output key
	Source string // logical name resolved against the table
}

// PeriodsKey is the output key holding the shared period sequence of a columnar table.
const PeriodsKey = "years"

// columnar flattens selected categories into parallel value sequences plus
// one shared period sequence.
func (p *Projector) columnar(table scope, columns []Column) (map[string][]string, error) {
	out := make(map[string][]string, len(columns)+1)

	var first models.Series
	for i, col := range columns {
		v, path, err := p.require(table, col.Source)
		if err != nil {
			return nil, err
		}
		s, err := p.series(v, path)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			first = s
			out[PeriodsKey] = s.Periods
		} else if err := checkAligned(table.path, columns[0].Name, first.Periods, col.Name, s.Periods); err != nil {
			return nil, err
		}
		out[col.Name] = s.Values
	}
	return out, nil
}

// FieldKind selects how an entity field is rendered.
type FieldKind int

const (
	// TextField is cleaned and escaped.
	TextField FieldKind = iota
	// URLField is passed through verbatim; a list yields its first element.
	// A null or empty list yields "" rather than the not-available marker, so
	// templates can test the field and leave the link out instead of pointing
	// \href at "N/A".
	URLField
)

// Field is one entity attribute.
type Field struct {
	Name string // output key; also the last segment of the logical name
	Kind FieldKind
}

// rows projects a list of entities. Each field is resolved as
// "<entity>.<field name>" through the alias table.
func (p *Projector) rows(items []any, path, entity string, fields []Field) ([]map[string]string, error) {
	out := make([]map[string]string, 0, len(items))
	for i, item := range items {
		itemPath := indexPath(path, i)
		obj, ok := item.(*document.Object)
		if !ok {
			return nil, mismatch(itemPath, "object", document.TypeName(item))
		}
		s := scope{obj: obj, path: itemPath}

		row := make(map[string]string, len(fields))
		for _, f := range fields {
			v, fpath, err := p.require(s, entity+"."+f.Name)
			if err != nil {
				return nil, err
			}
			var cell string
			switch f.Kind {
			case URLField:
				cell, err = urlText(v, fpath)
			default:
				if str, isStr := v.(string); isStr {
					cell = p.text(str)
				} else {
					cell, err = p.cell(v, fpath)
				}
			}
			if err != nil {
				return nil, err
			}
			row[f.Name] = cell
		}
		out = append(out, row)
	}
	return out, nil
}

// urlText is the URLField rendering; see URLField for the empty cases.
func urlText(v any, path string) (string, error) {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return "", nil
		}
		v, path = list[0], indexPath(path, 0)
	}
	if v == nil {
		return "", nil
	}
	return scalarText(v, path)
}

// pivot turns rows into parallel columns, renaming field keys.
func pivot(rows []map[string]string, names map[string]string) map[string][]string {
	out := make(map[string][]string, len(names))
	for field, column := range names {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			values = append(values, row[field])
		}
		out[column] = values
	}
	return out
}

// commentary projects a list of narrative strings.
func (p *Projector) commentary(v any, path string) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, mismatch(path, "array", document.TypeName(v))
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		str, isStr := item.(string)
		if !isStr {
			return nil, mismatch(indexPath(path, i), "string", document.TypeName(item))
		}
		out = append(out, p.text(str))
	}
	return out, nil
}

// graphs projects a name -> url object. A value may be the URL itself or an
// object holding it under one of the "graph.url" aliases.
func (p *Projector) graphs(v any, path string) ([]models.Graph, error) {
	obj, ok := v.(*document.Object)
	if !ok {
		return nil, mismatch(path, "object", document.TypeName(v))
	}

	out := make([]models.Graph, 0, obj.Len())
	for _, name := range obj.Keys() {
		raw, _ := obj.Get(name)
		gpath := joinPath(path, name)

		if inner, isObj := raw.(*document.Object); isObj {
			uv, upath, err := p.require(scope{obj: inner, path: gpath}, "graph.url")
			if err != nil {
				return nil, err
			}
			raw, gpath = uv, upath
		}
		url, isStr := raw.(string)
		if !isStr {
			return nil, mismatch(gpath, "string", document.TypeName(raw))
		}
		out = append(out, models.Graph{Name: latex.EscapeString(name), URL: url})
	}
	return out, nil
}

// profile projects topic -> markdown bullets, topics in source order.
func (p *Projector) profile(v any, path string) ([]models.Topic, error) {
	obj, ok := v.(*document.Object)
	if !ok {
		return nil, mismatch(path, "object", document.TypeName(v))
	}

	out := make([]models.Topic, 0, obj.Len())
	for _, topic := range obj.Keys() {
		raw, _ := obj.Get(topic)
		str, isStr := raw.(string)
		if !isStr {
			return nil, mismatch(joinPath(path, topic), "string", document.TypeName(raw))
		}
		items := utils.MarkdownItems(str)
		bullets := make([]string, 0, len(items))
		for _, item := range items {
			bullets = append(bullets, p.text(item))
		}
		out = append(out, models.Topic{Name: topic, Bullets: bullets})
	}
	return out, nil
}

// passthrough escapes an arbitrary subtree for sections with no fixed shape.
func passthrough(v any) any {
	return latex.EscapeTree(document.ToPlain(v))
}
