package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/brandpulse/brandpulse/app/database"
)

// Loader reads brand definition YAML files from a directory. The
// definitions are registered into the database at startup; the files
// themselves are never consulted again while the process runs.
type Loader struct {
	brandsDir string
}

func NewLoader(brandsDir string) *Loader {
	return &Loader{brandsDir: brandsDir}
}

// LoadAll loads every YAML file in the brands directory, keyed by
// file path. A missing directory yields an empty map, not an error.
func (l *Loader) LoadAll() (map[string]*BrandConfig, error) {
	configs := make(map[string]*BrandConfig)

	if _, err := os.Stat(l.brandsDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.brandsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(l.brandsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs[file] = config
	}

	return configs, nil
}

func (l *Loader) loadFile(path string) (*BrandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config BrandConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config)

	return &config, nil
}

func (l *Loader) setDefaults(config *BrandConfig) {
	if config.Category == "" {
		config.Category = database.CategoryOther
	}
}

func (l *Loader) validate(config *BrandConfig) error {
	if config.Name == "" {
		return fmt.Errorf("brand name is required")
	}

	switch config.Category {
	case database.CategoryStreetwear, database.CategoryLuxury, database.CategoryAthletic,
		database.CategoryAccessories, database.CategoryFootwear, database.CategoryOther:
	default:
		return fmt.Errorf("unknown category: %s", config.Category)
	}

	if config.Feed.FetchEnabled && config.Feed.URL == "" {
		return fmt.Errorf("fetch_enabled requires a feed url")
	}

	return nil
}

// Brand converts the definition into its database representation.
func (c *BrandConfig) Brand() database.Brand {
	return database.Brand{
		Name:         c.Name,
		Description:  c.Description,
		LogoURL:      c.LogoURL,
		WebsiteURL:   c.WebsiteURL,
		Category:     c.Category,
		FeedURL:      c.Feed.URL,
		FetchEnabled: c.Feed.FetchEnabled,
		IsVerified:   c.Verified,
	}
}
