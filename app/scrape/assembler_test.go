package scrape

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/newslab-kr/navercrawl/app/ratelimit"
)

// unthrottled keeps test runs instant
func unthrottled() *ratelimit.Governor {
	return ratelimit.NewGovernor(1000, time.Minute, 0)
}

func newTestAssembler() *Assembler {
	return NewAssembler(newTestExtractor(), unthrottled(), 5)
}

const queryURL = "https://search.naver.com/search.naver?where=news&query=test&start=1"

func resultCard(title, originalURL, naverURL string) string {
	return fmt.Sprintf(`
<div class="sds-comps-vertical-layout sds-comps-full-layout _4zQ0QZWfn7bqZ_ul5OV">
  <a href="%s" nocr="1">
    <span class="sds-comps-text sds-comps-text-ellipsis sds-comps-text-ellipsis-1 sds-comps-text-type-headline1">%s</span>
  </a>
  <div class="sds-comps-horizontal-layout sds-comps-inline-layout sds-comps-profile-info">
    <span class="sds-comps-text sds-comps-text-ellipsis sds-comps-text-ellipsis-1 sds-comps-text-type-body2 sds-comps-text-weight-sm">연합뉴스</span>
    <span class="sds-comps-text sds-comps-text-type-body2 sds-comps-text-weight-sm">2024.06.15.</span>
    <a href="%s">네이버뉴스</a>
  </div>
</div>`, originalURL, title, naverURL)
}

func expansionPage(cards ...string) string {
	return `<html><body><div class="fender-news-item-list-tab">` +
		strings.Join(cards, "\n") + `</div></body></html>`
}

func TestAssemble(t *testing.T) {
	a := newTestAssembler()
	item := mustParse(t, sampleItem)

	records := a.Assemble(context.Background(), &fakeSession{}, item, queryURL)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Title != "반도체 수출 석 달 연속 증가" {
		t.Errorf("Unexpected title: %s", rec.Title)
	}
	if rec.NaverURL != "https://n.news.naver.com/mnews/article/001/0014730001" {
		t.Errorf("Unexpected naver URL: %s", rec.NaverURL)
	}
	if rec.OriginalURL != "https://www.yna.co.kr/view/AKR20240615001" {
		t.Errorf("Unexpected original URL: %s", rec.OriginalURL)
	}
	if rec.Source != "연합뉴스" {
		t.Errorf("Unexpected source: %s", rec.Source)
	}
	if rec.Published != "2024.06.15." {
		t.Errorf("Unexpected published label: %s", rec.Published)
	}
	if rec.ScrapedURL != queryURL {
		t.Errorf("Unexpected scraped URL: %s", rec.ScrapedURL)
	}
	if !rec.IsTopLevel() {
		t.Error("Expected a top-level record")
	}
	if rec.ScrapedAt.IsZero() {
		t.Error("Expected scraped-at timestamp to be set")
	}
}

func TestAssemble_NoTitle(t *testing.T) {
	a := newTestAssembler()
	item := mustParse(t, `<div class="_4zQ0QZWfn7bqZ_ul5OV"><a href="https://example.com/a">짧음</a></div>`)

	records := a.Assemble(context.Background(), &fakeSession{}, item, queryURL)
	if len(records) != 0 {
		t.Errorf("Expected no records for an item without title, got %d", len(records))
	}
}

func TestAssemble_MissingFieldsKept(t *testing.T) {
	a := newTestAssembler()
	// title only, everything else absent
	item := mustParse(t, `
<div class="_4zQ0QZWfn7bqZ_ul5OV">
  <span class="sds-comps-text sds-comps-text-ellipsis sds-comps-text-ellipsis-1 sds-comps-text-type-headline1">제목만 있는 검색 결과</span>
</div>`)

	records := a.Assemble(context.Background(), &fakeSession{}, item, queryURL)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Title != "제목만 있는 검색 결과" {
		t.Errorf("Unexpected title: %s", rec.Title)
	}
	if rec.NaverURL != "" || rec.OriginalURL != "" || rec.Source != "" || rec.Published != "" {
		t.Errorf("Expected absent fields to stay empty: %+v", rec)
	}
}

func TestAssemble_Expansion(t *testing.T) {
	expansionLink := "https://search.naver.com/search.naver?where=news&query=cluster"
	item := mustParse(t, `
<div class="sds-comps-vertical-layout sds-comps-full-layout _4zQ0QZWfn7bqZ_ul5OV">
  <a href="https://www.yna.co.kr/view/AKR001" nocr="1">
    <span class="sds-comps-text sds-comps-text-ellipsis sds-comps-text-ellipsis-1 sds-comps-text-type-headline1">한강 수위 상승으로 도로 통제</span>
  </a>
  <a href="`+expansionLink+`">
    <div><span class="sds-comps-text sds-comps-text-type-body2 sds-comps-text-weight-sm">관련뉴스 전체보기</span></div>
  </a>
</div>`)

	sess := &fakeSession{pages: map[string]string{
		expansionLink + "&start=1": expansionPage(
			resultCard("한강 수위 상승으로 도로 통제", "https://www.yna.co.kr/view/AKR001", "https://n.news.naver.com/mnews/article/001/001"),
			resultCard("올림픽대로 일부 구간 전면 통제", "https://www.hani.co.kr/arti/0002", "https://n.news.naver.com/mnews/article/028/002"),
			resultCard("한강공원 출입 전면 금지", "https://www.khan.co.kr/article/0003", "https://n.news.naver.com/mnews/article/032/003"),
		),
		// a single-card page ends the walk
		expansionLink + "&start=11": expansionPage(
			resultCard("마지막 페이지 잔여 기사", "https://www.yna.co.kr/view/AKR999", "https://n.news.naver.com/mnews/article/001/999"),
		),
	}}

	a := newTestAssembler()
	records := a.Assemble(context.Background(), sess, item, queryURL)

	if len(records) != 3 {
		t.Fatalf("Expected top-level plus 2 related records, got %d", len(records))
	}
	if got := records[1].Title; got != "올림픽대로 일부 구간 전면 통제" {
		t.Errorf("Unexpected first related title: %s", got)
	}
	for _, rec := range records[1:] {
		if rec.RelatedTo != "한강 수위 상승으로 도로 통제" {
			t.Errorf("Expected related record to point at its parent, got %q", rec.RelatedTo)
		}
		if rec.RelatedOriginalURL != "https://www.yna.co.kr/view/AKR001" {
			t.Errorf("Unexpected related original URL: %s", rec.RelatedOriginalURL)
		}
	}
	if len(sess.visits) != 2 {
		t.Errorf("Expected 2 expansion page fetches, got %d: %v", len(sess.visits), sess.visits)
	}
	if sess.contexts != 1 {
		t.Errorf("Expected 1 auxiliary context, got %d", sess.contexts)
	}
	if sess.closes != 1 {
		t.Errorf("Expected the auxiliary context to be closed, got %d closes", sess.closes)
	}
}

func TestAssemble_ExpansionFetchFailureContained(t *testing.T) {
	expansionLink := "https://search.naver.com/search.naver?where=news&query=cluster"
	item := mustParse(t, `
<div class="_4zQ0QZWfn7bqZ_ul5OV">
  <span class="sds-comps-text sds-comps-text-ellipsis sds-comps-text-ellipsis-1 sds-comps-text-type-headline1">확장 페이지가 죽은 기사</span>
  <a href="`+expansionLink+`">
    <span class="sds-comps-text sds-comps-text-type-body2 sds-comps-text-weight-sm">관련뉴스 전체보기</span>
  </a>
</div>`)

	// no fixture registered: every expansion fetch fails
	a := newTestAssembler()
	records := a.Assemble(context.Background(), &fakeSession{}, item, queryURL)

	if len(records) != 1 {
		t.Fatalf("Expected the top-level record to survive an expansion failure, got %d records", len(records))
	}
}

func TestAssemble_InlineRelated(t *testing.T) {
	item := mustParse(t, `
<div class="_4zQ0QZWfn7bqZ_ul5OV">
  <a href="https://www.yna.co.kr/view/AKR001" nocr="1">
    <span class="sds-comps-text sds-comps-text-ellipsis sds-comps-text-ellipsis-1 sds-comps-text-type-headline1">전세 사기 수사 확대</span>
  </a>
  <div class="JT4g6KsELnSY85CYAym9">
    <div class="Eb67Vg8smoO6HeVy39Y9">
      <span class="XFo8_NV9Mn6G9z_wh_S9">전세 사기 수사 확대</span>
    </div>
    <div class="Eb67Vg8smoO6HeVy39Y9">
      <span class="XFo8_NV9Mn6G9z_wh_S9">피해자 지원 대책 발표</span>
      <a href="https://n.news.naver.com/mnews/article/028/010">네이버뉴스</a>
      <a href="https://www.hani.co.kr/arti/0010">기사원문</a>
      <span class="sds-comps-profile-info-title-text">한겨레</span>
      <span class="sds-comps-profile-info-subtext">2시간 전</span>
    </div>
  </div>
</div>`)

	a := newTestAssembler()
	records := a.Assemble(context.Background(), &fakeSession{}, item, queryURL)

	// the first nested entry repeats the owning item and is dropped
	if len(records) != 2 {
		t.Fatalf("Expected top-level plus 1 related record, got %d", len(records))
	}

	rec := records[1]
	if rec.Title != "피해자 지원 대책 발표" {
		t.Errorf("Unexpected related title: %s", rec.Title)
	}
	if rec.RelatedTo != "전세 사기 수사 확대" {
		t.Errorf("Unexpected parent reference: %s", rec.RelatedTo)
	}
	if rec.NaverURL != "https://n.news.naver.com/mnews/article/028/010" {
		t.Errorf("Unexpected mirror link: %s", rec.NaverURL)
	}
	if rec.OriginalURL != "https://www.hani.co.kr/arti/0010" {
		t.Errorf("Unexpected publisher link: %s", rec.OriginalURL)
	}
	if rec.Source != "한겨레" {
		t.Errorf("Unexpected source: %s", rec.Source)
	}
	if rec.Published != "2시간 전" {
		t.Errorf("Unexpected published label: %s", rec.Published)
	}
}

func TestAssemble_InlineRelatedCapped(t *testing.T) {
	var nested strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&nested, `
    <div class="Eb67Vg8smoO6HeVy39Y9">
      <span class="XFo8_NV9Mn6G9z_wh_S9">연관 기사 번호 %02d</span>
    </div>`, i)
	}
	item := mustParse(t, `
<div class="_4zQ0QZWfn7bqZ_ul5OV">
  <span class="sds-comps-text sds-comps-text-ellipsis sds-comps-text-ellipsis-1 sds-comps-text-type-headline1">연관 기사가 많은 보도</span>
  <div class="JT4g6KsELnSY85CYAym9">`+nested.String()+`
  </div>
</div>`)

	a := newTestAssembler()
	records := a.Assemble(context.Background(), &fakeSession{}, item, queryURL)

	if len(records) != 11 {
		t.Errorf("Expected top-level plus 10 capped related records, got %d", len(records))
	}
}
