package cfg

type Cfg struct {
	// Search configuration
	Keyword        string
	StartDate      string
	EndDate        string
	OfficeCategory string

	// Crawl configuration
	PageSize           int
	ShortPageThreshold int
	ExpansionPageCap   int
	MaxRequests        int
	RateWindow         int
	MinDelay           int
	ExcludedHosts      string
	PatternsFile       string

	// Output configuration
	OutputDir      string
	ArchivePath    string
	ExtractContent bool

	// Application configuration
	StatusPort string
	UserAgent  string
	Timezone   string
	Debug      bool
	Version    string
}
