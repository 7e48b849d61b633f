package scrape

import "time"

const dateLayout = "20060102"

// SearchWindow is one contiguous date range sent to the search backend.
// Immutable once issued; the backend degrades on wide ranges, so campaigns are
// sliced into at most 7-day windows.
type SearchWindow struct {
	Start time.Time
	End   time.Time
}

func (w SearchWindow) StartParam() string {
	return w.Start.Format(dateLayout)
}

func (w SearchWindow) EndParam() string {
	return w.End.Format(dateLayout)
}

func (w SearchWindow) String() string {
	return w.StartParam() + "-" + w.EndParam()
}

// SliceWindows cuts the campaign range into consecutive sub-windows of at most
// 7 days; the last one may be shorter.
func SliceWindows(campaignStart, campaignEnd time.Time) []SearchWindow {
	var windows []SearchWindow
	for cursor := campaignStart; !cursor.After(campaignEnd); {
		end := cursor.AddDate(0, 0, 6)
		if end.After(campaignEnd) {
			end = campaignEnd
		}
		windows = append(windows, SearchWindow{Start: cursor, End: end})
		cursor = end.AddDate(0, 0, 1)
	}
	return windows
}
