package config

// BrandConfig is one brand definition file. The feed block is optional;
// a brand without it simply never participates in ingestion.
type BrandConfig struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	LogoURL     string    `yaml:"logo_url"`
	WebsiteURL  string    `yaml:"website_url"`
	Category    string    `yaml:"category"`
	Verified    bool      `yaml:"verified"`
	Feed        FeedBlock `yaml:"feed"`
}

type FeedBlock struct {
	URL          string `yaml:"url"`
	FetchEnabled bool   `yaml:"fetch_enabled"`
}
