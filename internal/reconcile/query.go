package reconcile

import (
	"net/url"
	"strconv"
	"strings"
)

// FilterFromQuery builds a Filter from list-view query parameters. Multi-value
// categories take comma-separated lists (OR within the category).
//
//	?genres=Action,Comedy&year_from=1990&rating_to=8&languages=en
func FilterFromQuery(q url.Values) Filter {
	return Filter{
		Genres:     splitParam(q.Get("genres")),
		YearFrom:   atoi(q.Get("year_from")),
		YearTo:     atoi(q.Get("year_to")),
		RatingFrom: atof(q.Get("rating_from")),
		RatingTo:   atof(q.Get("rating_to")),
		AgeRatings: splitParam(q.Get("age_ratings")),
		Keywords:   splitParam(q.Get("keywords")),
		Languages:  splitParam(q.Get("languages")),
		Directors:  splitParam(q.Get("directors")),
	}
}

// SortFromQuery returns the requested sort order, or "" for source order.
func SortFromQuery(q url.Values) string {
	switch s := q.Get("sort"); s {
	case SortTitle, SortYearAsc, SortYearDesc, SortRatingAsc, SortRatingDesc:
		return s
	default:
		return ""
	}
}

func splitParam(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
