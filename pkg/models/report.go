package models

import (
	"time"
)

// Series is one table category: parallel periods and values, where index i
// in both slices refers to the same period.
type Series struct {
	Periods []string `json:"periods"`
	Values  []string `json:"values"`
}

// Len returns the number of periods.
func (s Series) Len() int { return len(s.Periods) }

// Category is one named table row.
type Category struct {
	Name   string `json:"name"`
	Series Series `json:"series"`
}

// Table holds the categories of one source table in source order.
type Table []Category

// Get returns the series of the named category.
func (t Table) Get(name string) (Series, bool) {
	for _, c := range t {
		if c.Name == name {
			return c.Series, true
		}
	}
	return Series{}, false
}

// Names returns the category names in order.
func (t Table) Names() []string {
	out := make([]string, len(t))
	for i, c := range t {
		out[i] = c.Name
	}
	return out
}

// Group is a sub-table of a schedule whose categories are themselves tables.
type Group struct {
	Name string `json:"name"`
	Rows Table  `json:"rows"`
}

// Topic is one company profile heading with its bullets.
type Topic struct {
	Name    string   `json:"name"`
	Bullets []string `json:"bullets"`
}

// Graph is a named chart image reference. URL is never escaped.
type Graph struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ReportMeta identifies one generated report.
type ReportMeta struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"` // input file name
}
