// Package prompts holds the model prompt templates. Each embedded JSON file
// maps a prompt key to its text, and {{.Name}} marks a placeholder.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"sync"
)

//go:embed *.json
var files embed.FS

// loadCatalog parses every prompt file once
var loadCatalog = sync.OnceValues(func() (map[string]map[string]string, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}
	catalog := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		if path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := files.ReadFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", e.Name(), err)
		}
		var set map[string]string
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", e.Name(), err)
		}
		catalog[e.Name()] = set
	}
	return catalog, nil
})

// Get returns the prompt stored under key in file, e.g. ("intent.json", "parse-modification")
func Get(file, key string) (string, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return "", err
	}
	set, ok := catalog[file]
	if !ok {
		return "", fmt.Errorf("no prompt file %s", file)
	}
	prompt, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return prompt, nil
}

var placeholderRe = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Format fills placeholders from data in a single pass, so a value that
// itself contains "{{.Name}}" is inserted as written. Placeholders without a
// value are left in place.
func Format(template string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := data[placeholderRe.FindStringSubmatch(m)[1]]; ok {
			return v
		}
		return m
	})
}

// Placeholders returns the sorted, distinct placeholder names of a prompt
func Placeholders(template string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Render loads a prompt and fills it. Every placeholder must have a value.
func Render(file, key string, data map[string]string) (string, error) {
	template, err := Get(file, key)
	if err != nil {
		return "", err
	}
	for _, name := range Placeholders(template) {
		if _, ok := data[name]; !ok {
			return "", fmt.Errorf("prompt %s/%s needs a value for %s", file, key, name)
		}
	}
	return Format(template, data), nil
}
