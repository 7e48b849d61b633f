package scrape

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type FieldKind string

const (
	KindContainer       FieldKind = "container"
	KindItem            FieldKind = "item"
	KindTitle           FieldKind = "title"
	KindCanonicalLink   FieldKind = "canonical_link"
	KindOriginalLink    FieldKind = "original_link"
	KindPublisher       FieldKind = "publisher"
	KindPublishedLabel  FieldKind = "published_label"
	KindThumbnail       FieldKind = "thumbnail"
	KindExpansionMarker FieldKind = "expansion_marker"

	// Narrower cascades for the nested related-news layout.
	KindNestedContainer FieldKind = "nested_container"
	KindNestedItem      FieldKind = "nested_item"
	KindNestedTitle     FieldKind = "nested_title"
	KindNestedPublisher FieldKind = "nested_publisher"
	KindNestedPublished FieldKind = "nested_published"
)

// PatternSet maps each field kind to its ordered selector cascade, most
// structurally specific first, most permissive last. The selectors themselves
// are point-in-time fingerprints of the search result markup and are expected
// to rot; the cascade order is the part that matters.
type PatternSet map[FieldKind][]string

func DefaultPatterns() PatternSet {
	return PatternSet{
		KindContainer: {
			"div.sds-comps-vertical-layout.sds-comps-full-layout.fender-news-item-list-tab",
			"div.fender-news-item-list-tab",
			"div[class*='fender-news-item-list']",
			"div[class*='news-item-list']",
		},
		KindItem: {
			"div.sds-comps-vertical-layout.sds-comps-full-layout._4zQ0QZWfn7bqZ_ul5OV",
			"div[class*='sds-comps-vertical-layout'][class*='sds-comps-full-layout'][class*='_4zQ0QZWfn7bqZ_ul5OV']",
			"div[class*='_4zQ0QZWfn7bqZ_ul5OV']",
		},
		KindTitle: {
			"span.sds-comps-text.sds-comps-text-ellipsis.sds-comps-text-ellipsis-1.sds-comps-text-type-headline1",
			"span[class*='sds-comps-text-type-headline1']",
			"span[class*='sds-comps-text'][class*='headline1']",
		},
		KindCanonicalLink: {
			".sds-comps-profile-info a[href*='n.news.naver']",
			"a[href*='n.news.naver.com']",
		},
		KindOriginalLink: {
			"a[nocr='1']",
			"div[class*='sds-comps-vertical-layout'] a[href]",
			"a[href]",
		},
		KindPublisher: {
			"div.sds-comps-horizontal-layout.sds-comps-inline-layout.sds-comps-profile-info span.sds-comps-text.sds-comps-text-ellipsis.sds-comps-text-ellipsis-1.sds-comps-text-type-body2.sds-comps-text-weight-sm",
			".sds-comps-profile-info span.sds-comps-text-ellipsis",
			".sds-comps-profile-info .sds-comps-text-type-body2",
			"div[class*='profile-info'] span[class*='text-ellipsis']",
			"span.sds-comps-profile-info-title-text",
		},
		KindPublishedLabel: {
			".sds-comps-horizontal-layout.sds-comps-inline-layout.sds-comps-profile-info span.sds-comps-text.sds-comps-text-type-body2.sds-comps-text-weight-sm",
			".sds-comps-profile-info span.sds-comps-text-type-body2.sds-comps-text-weight-sm",
			".sds-comps-profile-info span.sds-comps-text-type-body2",
			".sds-comps-profile-info span[class*='sds-comps-text-weight-sm']",
			"span[class*='sds-comps-text-weight-sm']",
		},
		KindThumbnail: {
			".sds-comps-base-layout .sds-comps-inline-layout .sds-comps-image img",
			".sds-rego-thumb-overlay img",
			".fit-contain img",
			".forced-ratio img",
			"img",
		},
		KindExpansionMarker: {
			"span.sds-comps-text.sds-comps-text-type-body2.sds-comps-text-weight-sm",
			"span[class*='sds-comps-text-type-body2'][class*='sds-comps-text-weight-sm']",
			"span.sds-comps-text-type-body2",
			"span.sds-comps-text-weight-sm",
		},
		KindNestedContainer: {
			"div.JT4g6KsELnSY85CYAym9",
			"div[class*='sds-comps-vertical-layout'][class*='sds-comps-full-layout']",
		},
		KindNestedItem: {
			"div.Eb67Vg8smoO6HeVy39Y9",
			"div[class*='sds-comps-base-layout'][class*='sds-comps-full-layout']",
			"div[class*='sds-comps-base-layout']",
		},
		KindNestedTitle: {
			"span.XFo8_NV9Mn6G9z_wh_S9",
			"span[class*='sds-comps-text-type-body2'][class*='sds-comps-text-ellipsis']",
			"span.sds-comps-text-type-body2",
		},
		KindNestedPublisher: {
			"span.sds-comps-profile-info-title-text",
			"span[class*='profile-info-title-text']",
		},
		KindNestedPublished: {
			"span.sds-comps-profile-info-subtext",
			"span[class*='sds-comps-text-weight-sm']",
		},
	}
}

// MergeFile overlays cascades from a YAML file, replacing the whole cascade of
// every field kind the file names. This is how a rotten fingerprint gets fixed
// without a rebuild.
func (p PatternSet) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read patterns file: %w", err)
	}

	var overrides map[FieldKind][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse patterns file: %w", err)
	}

	for kind, cascade := range overrides {
		if len(cascade) == 0 {
			continue
		}
		p[kind] = cascade
	}

	return nil
}
