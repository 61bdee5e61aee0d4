package collection

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func post(title, year, month, day string) Post {
	return NewPost(Page{Title: title, RelativeURL: strings.ToLower(title) + ".html"}, "post", year, month, day, "")
}

func titles(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestNewPost_DerivesNumericDate(t *testing.T) {
	p := post("a", "2024", "02", "09")
	if p.YearInt() != 2024 || p.MonthInt() != 2 || p.DayInt() != 9 {
		t.Errorf("unexpected numeric date %d-%d-%d", p.YearInt(), p.MonthInt(), p.DayInt())
	}
	if p.Date() != "2024-02-09" {
		t.Errorf("unexpected date string %q", p.Date())
	}
	if !p.ValidDate() {
		t.Error("expected 2024-02-09 to be a valid date")
	}

	bad := post("b", "20x4", "13", "00")
	if bad.YearInt() != 0 {
		t.Errorf("non-numeric year should derive 0, got %d", bad.YearInt())
	}
	if bad.ValidDate() {
		t.Error("expected invalid date to be rejected")
	}
}

func TestOrderPosts_DateIsNumeric(t *testing.T) {
	posts := []Post{
		post("oct", "2024", "10", "1"),
		post("feb", "2024", "2", "9"),
		post("old", "2023", "12", "31"),
	}
	OrderPosts(posts, SortDate, true)
	want := []string{"old", "feb", "oct"}
	if got := titles(posts); !reflect.DeepEqual(got, want) {
		t.Errorf("ascending date order = %v, want %v", got, want)
	}

	OrderPosts(posts, SortDate, false)
	want = []string{"oct", "feb", "old"}
	if got := titles(posts); !reflect.DeepEqual(got, want) {
		t.Errorf("descending date order = %v, want %v", got, want)
	}
}

func TestOrderPosts_Fields(t *testing.T) {
	tests := []struct {
		field string
		asc   bool
		want  []string
	}{
		{"title", true, []string{"alpha", "beta", "gamma"}},
		{"title", false, []string{"gamma", "beta", "alpha"}},
		{"url", true, []string{"alpha", "beta", "gamma"}},
		{"year", true, []string{"beta", "gamma", "alpha"}},
		{"month", true, []string{"gamma", "alpha", "beta"}},
		{"day", true, []string{"beta", "gamma", "alpha"}},
		{"date", false, []string{"alpha", "gamma", "beta"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			posts := []Post{
				post("gamma", "2022", "1", "5"),
				post("alpha", "2023", "3", "1"),
				post("beta", "2021", "7", "20"),
			}
			key, ok := ParsePostSortKey(tt.field)
			if !ok {
				t.Fatalf("field %q should be supported", tt.field)
			}
			OrderPosts(posts, key, tt.asc)
			if got := titles(posts); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order by %s = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestOrderPages(t *testing.T) {
	pages := []Page{
		{Title: "b", RelativeURL: "z.html"},
		{Title: "c", RelativeURL: "a.html"},
		{Title: "a", RelativeURL: "m.html"},
	}
	OrderPages(pages, SortURL, true)
	if pages[0].Title != "c" || pages[2].Title != "b" {
		t.Errorf("unexpected url order: %+v", pages)
	}
	OrderPages(pages, SortTitle, false)
	if pages[0].Title != "c" || pages[1].Title != "b" || pages[2].Title != "a" {
		t.Errorf("unexpected descending title order: %+v", pages)
	}
}

func TestOrderBy_UnknownFieldFallsBack(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	posts := []Post{
		post("new", "2024", "1", "1"),
		post("old", "2020", "1", "1"),
	}
	key := OrderPostsBy(logger, posts, "colour", true)
	if key != SortDefault {
		t.Errorf("expected SortDefault for unknown field, got %v", key)
	}
	if got := titles(posts); !reflect.DeepEqual(got, []string{"old", "new"}) {
		t.Errorf("fallback should order by date, got %v", got)
	}
	if !strings.Contains(logs.String(), "field=colour") {
		t.Errorf("expected a warning naming the field, got %q", logs.String())
	}

	pages := []Page{{Title: "b"}, {Title: "a"}}
	if key := OrderPagesBy(logger, pages, "layout", true); key != SortDefault {
		t.Errorf("pages have no layout field, expected SortDefault, got %v", key)
	}
	if pages[0].Title != "a" {
		t.Errorf("fallback should order pages by title, got %+v", pages)
	}
}

func TestOrderPosts_StableTies(t *testing.T) {
	posts := []Post{
		post("first", "2024", "1", "1"),
		post("second", "2024", "1", "1"),
		post("third", "2024", "1", "1"),
	}
	OrderPosts(posts, SortDate, true)
	if got := titles(posts); !reflect.DeepEqual(got, []string{"first", "second", "third"}) {
		t.Errorf("ties should keep their previous order, got %v", got)
	}
}
