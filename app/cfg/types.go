package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	Port         string
	BrandsDir    string
	APIAccessKey string

	// Ingestion configuration
	FetchSchedule string
	FetchTimeout  int
	FetchPace     int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
