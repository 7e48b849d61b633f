package scrape

import (
	"net/url"
	"testing"
	"time"
)

func TestListingURL(t *testing.T) {
	window := SearchWindow{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
	}

	raw := ListingURL("금리 인상", window, 3, 10, "3")

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Expected a valid URL, got error: %v", err)
	}
	if parsed.Host != "search.naver.com" {
		t.Errorf("Expected host search.naver.com, got %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("where") != "news" {
		t.Errorf("Expected where=news, got %s", q.Get("where"))
	}
	if q.Get("query") != "금리 인상" {
		t.Errorf("Expected keyword to round-trip, got %s", q.Get("query"))
	}
	if q.Get("nso") != "so:r,p:from20240601to20240607,a:all" {
		t.Errorf("Unexpected nso parameter: %s", q.Get("nso"))
	}
	if q.Get("start") != "21" {
		t.Errorf("Expected page 3 to start at offset 21, got %s", q.Get("start"))
	}
	if q.Get("service_area") != "1" {
		t.Errorf("Expected service_area=1, got %s", q.Get("service_area"))
	}
	if q.Get("office_category") != "3" {
		t.Errorf("Expected office_category=3, got %s", q.Get("office_category"))
	}
}

func TestListingURL_NoOfficeCategory(t *testing.T) {
	window := SearchWindow{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
	}

	raw := ListingURL("금리", window, 1, 10, "")

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Expected a valid URL, got error: %v", err)
	}
	if parsed.Query().Has("office_category") {
		t.Error("Expected office_category to be omitted when empty")
	}
	if parsed.Query().Get("start") != "1" {
		t.Errorf("Expected first page to start at offset 1, got %s", parsed.Query().Get("start"))
	}
}

func TestExpansionURL(t *testing.T) {
	link := "https://search.naver.com/search.naver?where=news&query=cluster"

	got := ExpansionURL(link, 11)
	want := link + "&start=11"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
