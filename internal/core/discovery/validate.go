package discovery

import (
	"errors"
	"os"
)

// Check is the path validation outcome of one company.
type Check struct {
	Company   string   `json:"company"`
	Dir       string   `json:"dir"`
	Exists    bool     `json:"exists"`
	Fuzzy     bool     `json:"fuzzy,omitempty"`
	FileCount int      `json:"file_count"`
	SourceA   []string `json:"source_a"`
	SourceB   []string `json:"source_b"`
	Err       string   `json:"error,omitempty"`
}

// OK reports whether the company folder holds files for both sources.
func (c Check) OK() bool {
	return c.Exists && c.Err == "" && len(c.SourceA) > 0 && len(c.SourceB) > 0
}

// Validate checks, without reading any spreadsheet, that each company folder
// exists and holds files for both sources.
func (f Finder) Validate(base string, companies []string) []Check {
	checks := make([]Check, 0, len(companies))
	for _, company := range companies {
		c := Check{Company: company}
		files, err := f.Find(base, company)
		switch {
		case errors.Is(err, ErrCompanyDirNotFound):
			c.Dir = f.expand(base, company)
		case err != nil && !errors.Is(err, ErrSourceFilesNotFound):
			c.Dir, c.Exists, c.Err = files.Dir, true, err.Error()
		default:
			c.Dir, c.Exists, c.Fuzzy = files.Dir, true, files.Fuzzy
			c.SourceA, c.SourceB = files.SourceA, files.SourceB
			if entries, err := os.ReadDir(files.Dir); err == nil {
				c.FileCount = len(entries)
			}
		}
		checks = append(checks, c)
	}
	return checks
}
