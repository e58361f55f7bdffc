// Package catalog serves the curated library of showcase ad prompts.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var embedded []byte

// Entry is one library item as curated.
type Entry struct {
	Name        string `yaml:"name" json:"name"`
	NameCN      string `yaml:"name_cn" json:"name_cn,omitempty"`
	Description string `yaml:"description" json:"description"`
	Source      string `yaml:"source" json:"source,omitempty"`
	Prompt      string `yaml:"prompt" json:"prompt"`
	VideoURL    string `yaml:"video_url" json:"video_url"`
}

// Item is an entry rendered for one display language. ID is the position in
// the library.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameCN      string `json:"name_cn"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	VideoURL    string `json:"video_url"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	entries []Entry
}

var supported = []language.Tag{
	language.English,
	language.SimplifiedChinese,
	language.TraditionalChinese,
}

var matcher = language.NewMatcher(supported)

// Default parses the embedded library.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Parse reads a YAML list of entries. Every entry needs a name and a prompt.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("catalog: no entries")
	}
	for i := range entries {
		e := &entries[i]
		e.Prompt = strings.TrimSpace(e.Prompt)
		if strings.TrimSpace(e.Name) == "" || e.Prompt == "" {
			return nil, fmt.Errorf("catalog: entry %d: name and prompt are required", i)
		}
	}
	return &Catalog{entries: entries}, nil
}

// Entries returns a copy of the raw library.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Localized renders the library for tag. Chinese display names are used for
// any Chinese variant when present; everything else falls back to the
// English name.
func (c *Catalog) Localized(tag language.Tag) []Item {
	chinese := isChinese(tag)
	items := make([]Item, len(c.entries))
	for i, e := range c.entries {
		nameCN := e.NameCN
		if nameCN == "" {
			nameCN = e.Name
		}
		name := e.Name
		if chinese {
			name = nameCN
		}
		items[i] = Item{
			ID:          strconv.Itoa(i),
			Name:        name,
			NameCN:      nameCN,
			Description: e.Description,
			Prompt:      e.Prompt,
			VideoURL:    e.VideoURL,
		}
	}
	return items
}

// Get returns the entry with the given list id.
func (c *Catalog) Get(id string) (Entry, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || i < 0 || i >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Match picks the supported display language for the given locale hints,
// tried in order. Empty or unparsable hints are skipped; with no usable hint
// the result is English.
func Match(hints ...string) language.Tag {
	var prefs []language.Tag
	for _, h := range hints {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(h)
		if err != nil {
			continue
		}
		prefs = append(prefs, tags...)
	}
	if len(prefs) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(prefs...)
	return supported[idx]
}

func isChinese(tag language.Tag) bool {
	base, _ := tag.Base()
	return base.String() == "zh"
}
