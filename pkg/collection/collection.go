// Package collection holds the page and post records a site is built from,
// and the comparators used to reorder them inside template loops.
package collection

import (
	"strconv"
	"strings"
)

// Page is a standalone template rendered once per build.
type Page struct {
	Title       string
	RelativeURL string
	SourceFile  string
	OutputFile  string
}

// Post is a dated Markdown entry rendered through a layout. The numeric date
// fields are derived from the string fields once, in NewPost, and cannot be
// changed independently afterwards.
type Post struct {
	Page
	Layout    string
	MonthName string

	year, month, day          string
	yearInt, monthInt, dayInt int
}

// NewPost builds a Post. Date components that are not decimal numbers are
// kept as given and count as zero when ordering.
func NewPost(page Page, layout, year, month, day, monthName string) Post {
	return Post{
		Page:      page,
		Layout:    layout,
		MonthName: monthName,
		year:      year,
		month:     month,
		day:       day,
		yearInt:   atoi(year),
		monthInt:  atoi(month),
		dayInt:    atoi(day),
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func (p Post) Year() string  { return p.year }
func (p Post) Month() string { return p.month }
func (p Post) Day() string   { return p.day }

func (p Post) YearInt() int  { return p.yearInt }
func (p Post) MonthInt() int { return p.monthInt }
func (p Post) DayInt() int   { return p.dayInt }

// Date returns the post date as "year-month-day" using the string fields.
func (p Post) Date() string {
	return p.year + "-" + p.month + "-" + p.day
}

// ValidDate reports whether the numeric date is plausible: a non-zero year,
// a month in 1..12 and a day in 1..31.
func (p Post) ValidDate() bool {
	return p.yearInt > 0 &&
		p.monthInt >= 1 && p.monthInt <= 12 &&
		p.dayInt >= 1 && p.dayInt <= 31
}
