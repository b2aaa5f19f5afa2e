package catalogfile

// CatalogConfig is the root of a catalog seed file.
//
//	resources:
//	  - Backend:
//	      - Go Concurrency Patterns:
//	          url: https://go.dev/talks/2012/concurrency.slide
//	          topics: [Go, Concurrency]
//	preview:
//	  - Coming Soon:
//	      - ...
//
// Group names become the first tag category of their entries.
type CatalogConfig struct {
	Resources []Group `yaml:"resources"`
	Preview   []Group `yaml:"preview,omitempty"`
}

// Group maps a category name to its entries. Each entry is keyed by title.
type Group map[string][]map[string]EntryProps

// EntryProps are the fields of one catalog entry.
type EntryProps struct {
	ID            string   `yaml:"id,omitempty"`
	URL           string   `yaml:"url"`
	Author        string   `yaml:"author,omitempty"`
	Source        string   `yaml:"source,omitempty"`
	Publisher     string   `yaml:"publisher,omitempty"`
	Topics        []string `yaml:"topics,omitempty"`
	Categories    []string `yaml:"categories,omitempty"`
	Subcategories []string `yaml:"subcategories,omitempty"`
	Takeaways     []string `yaml:"takeaways,omitempty"`
	Difficulty    string   `yaml:"difficulty,omitempty"`
	ContentType   string   `yaml:"content_type,omitempty"`
	Rating        *float64 `yaml:"rating,omitempty"`
	DateAdded     string   `yaml:"date_added,omitempty"`
}
