package schemas

import (
	"fmt"
	"sync"

	schemafiles "github.com/jonathan/resume-editor/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// Schema names. Each maps to <name>.schema.json in the schemas directory.
const (
	Actions             = "actions"
	AgentClassification = "agent_classification"
	Artifacts           = "artifacts"
	ATSReport           = "ats_report"
	Diffs               = "diffs"
	HistoryRecord       = "history_record"
	ModificationIntent  = "modification_intent"
	Theme               = "theme"
)

var (
	compiledMu sync.Mutex
	compiled   = map[string]*gojsonschema.Schema{}
)

// Get returns the compiled schema for name, compiling it on first use
func Get(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	path := name + ".schema.json"
	data, err := schemafiles.FS.ReadFile(path)
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "schema not embedded", Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "invalid schema", Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Names lists every embedded schema name
func Names() ([]string, error) {
	entries, err := schemafiles.FS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	var names []string
	for _, e := range entries {
		const suffix = ".schema.json"
		if n := e.Name(); len(n) > len(suffix) && n[len(n)-len(suffix):] == suffix {
			names = append(names, n[:len(n)-len(suffix)])
		}
	}
	return names, nil
}
