package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Filters defines the rules that drop messages from search listings.
type Filters struct {
	IgnoreSenders           []string `json:"ignoreSenders"`
	IgnoreKeywordsInSubject []string `json:"ignoreKeywordsInSubject"`
	IgnoreKeywordsInBody    []string `json:"ignoreKeywordsInBody"`
}

// Match reports the first rule that matches a message, compared
// case-insensitively as substrings.
func (f Filters) Match(from, subject, text string) (string, bool) {
	for _, sender := range f.IgnoreSenders {
		if containsFold(from, sender) {
			return "sender:" + sender, true
		}
	}
	for _, keyword := range f.IgnoreKeywordsInSubject {
		if containsFold(subject, keyword) {
			return "subject:" + keyword, true
		}
	}
	for _, keyword := range f.IgnoreKeywordsInBody {
		if containsFold(text, keyword) {
			return "body:" + keyword, true
		}
	}
	return "", false
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Manager handles loading, saving, and accessing filter configurations.
type Manager struct {
	filePath string
	filters  *Filters
	mu       sync.RWMutex
}

// NewManager creates a filter manager backed by filePath. A missing file is
// created with empty rules.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{
		filePath: filePath,
		filters:  emptyFilters(),
	}
	if err := m.LoadFilters(); err != nil {
		return nil, err
	}
	return m, nil
}

func emptyFilters() *Filters {
	return &Filters{
		IgnoreSenders:           []string{},
		IgnoreKeywordsInSubject: []string{},
		IgnoreKeywordsInBody:    []string{},
	}
}

// LoadFilters loads filter rules from the JSON file.
func (m *Manager) LoadFilters() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.filters = emptyFilters()
			return m.saveFilters()
		}
		return fmt.Errorf("reading filters %s: %w", m.filePath, err)
	}

	filters := emptyFilters()
	if err := json.Unmarshal(data, filters); err != nil {
		return fmt.Errorf("parsing filters %s: %w", m.filePath, err)
	}
	m.filters = filters
	return nil
}

// saveFilters writes the current rules; callers hold the lock.
func (m *Manager) saveFilters() error {
	data, err := json.MarshalIndent(m.filters, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(m.filePath, data, 0644)
}

// GetFilters returns a copy of the current filters.
func (m *Manager) GetFilters() Filters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Filters{
		IgnoreSenders:           slices.Clone(m.filters.IgnoreSenders),
		IgnoreKeywordsInSubject: slices.Clone(m.filters.IgnoreKeywordsInSubject),
		IgnoreKeywordsInBody:    slices.Clone(m.filters.IgnoreKeywordsInBody),
	}
}

// AddIgnoreSender adds a sender to the ignore list and saves.
func (m *Manager) AddIgnoreSender(sender string) error {
	return m.update(func(f *Filters) { f.IgnoreSenders = addUnique(f.IgnoreSenders, sender) })
}

// AddIgnoreKeywordInSubject adds a subject keyword to the ignore list and saves.
func (m *Manager) AddIgnoreKeywordInSubject(keyword string) error {
	return m.update(func(f *Filters) { f.IgnoreKeywordsInSubject = addUnique(f.IgnoreKeywordsInSubject, keyword) })
}

// AddIgnoreKeywordInBody adds a body keyword to the ignore list and saves.
func (m *Manager) AddIgnoreKeywordInBody(keyword string) error {
	return m.update(func(f *Filters) { f.IgnoreKeywordsInBody = addUnique(f.IgnoreKeywordsInBody, keyword) })
}

func (m *Manager) RemoveIgnoreSender(sender string) error {
	return m.update(func(f *Filters) { f.IgnoreSenders = remove(f.IgnoreSenders, sender) })
}

func (m *Manager) RemoveIgnoreKeywordInSubject(keyword string) error {
	return m.update(func(f *Filters) { f.IgnoreKeywordsInSubject = remove(f.IgnoreKeywordsInSubject, keyword) })
}

func (m *Manager) RemoveIgnoreKeywordInBody(keyword string) error {
	return m.update(func(f *Filters) { f.IgnoreKeywordsInBody = remove(f.IgnoreKeywordsInBody, keyword) })
}

func (m *Manager) update(fn func(*Filters)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.filters)
	return m.saveFilters()
}

func addUnique(list []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == v })
}
