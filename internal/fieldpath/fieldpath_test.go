package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() map[string]any {
	return map[string]any{
		"contact": map[string]any{"email": "old@example.com"},
		"experience": []any{
			map[string]any{"title": "Software Engineer", "achievements": []any{"Shipped v1"}},
			map[string]any{"title": "Intern"},
		},
		"links": map[string]any{"github/main": "gh", "a~b": "tilde"},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected []Segment
	}{
		{"single key", "summary", []Segment{{Kind: KeySegment, Key: "summary"}}},
		{"nested keys", "contact.email", []Segment{{Kind: KeySegment, Key: "contact"}, {Kind: KeySegment, Key: "email"}}},
		{"index", "experience[1].title", []Segment{
			{Kind: KeySegment, Key: "experience"}, {Kind: IndexSegment, Index: 1}, {Kind: KeySegment, Key: "title"},
		}},
		{"latest", "experience[latest]", []Segment{{Kind: KeySegment, Key: "experience"}, {Kind: LatestSegment}}},
		{"end", "skills[-]", []Segment{{Kind: KeySegment, Key: "skills"}, {Kind: EndSegment}}},
		{"negative", "skills[-1]", []Segment{{Kind: KeySegment, Key: "skills"}, {Kind: IndexSegment, Index: -1}}},
		{"escapes", "links.github~1main", []Segment{{Kind: KeySegment, Key: "links"}, {Kind: KeySegment, Key: "github/main"}}},
		{"tilde escape", "links.a~0b", []Segment{{Kind: KeySegment, Key: "links"}, {Kind: KeySegment, Key: "a~b"}}},
		{"nested arrays", "grid[0][2]", []Segment{{Kind: KeySegment, Key: "grid"}, {Kind: IndexSegment}, {Kind: IndexSegment, Index: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := Parse(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, segments)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, path := range []string{"", "  ", "a..b", ".a", "a.", "a[0", "a[]", "a]"} {
		_, err := Parse(path)
		var pathErr *PathError
		assert.ErrorAs(t, err, &pathErr, "path %q", path)
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	for _, path := range []string{"contact.email", "experience[1].title", "experience[latest]", "skills[-]", "links.github~1main"} {
		segments, err := Parse(path)
		require.NoError(t, err)
		assert.Equal(t, path, Join(segments))
	}
}

func TestGet(t *testing.T) {
	doc := sampleDoc()
	tests := []struct {
		path     string
		expected any
		found    bool
	}{
		{"contact.email", "old@example.com", true},
		{"experience[0].title", "Software Engineer", true},
		{"experience[latest].title", "Software Engineer", true},
		{"experience[-1].title", "Intern", true},
		{"experience[-].title", "Intern", true},
		{"experience.1.title", "Intern", true},
		{"experiences[0].title", "Software Engineer", true},
		{"links.github~1main", "gh", true},
		{"experience[5].title", nil, false},
		{"contact.phone", nil, false},
		{"contact.email.domain", nil, false},
		{"missing.deeper.path", nil, false},
		{"a..b", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			value, found := Get(doc, tt.path)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestGet_ThroughNull(t *testing.T) {
	_, found := Get(map[string]any{"contact": nil}, "contact.email")
	assert.False(t, found)
}

func TestSet_DoesNotMutateInput(t *testing.T) {
	doc := sampleDoc()

	updated, err := Set(doc, "experience[0].title", "Senior Software Engineer")
	require.NoError(t, err)

	value, _ := Get(updated, "experience[0].title")
	assert.Equal(t, "Senior Software Engineer", value)
	original, _ := Get(doc, "experience[0].title")
	assert.Equal(t, "Software Engineer", original)
}

func TestSet_AutoVivifies(t *testing.T) {
	updated, err := Set(map[string]any{}, "projects[0].links.repo", "github.com/x")
	require.NoError(t, err)

	projects, ok := updated.(map[string]any)["projects"].([]any)
	require.True(t, ok, "numeric next segment creates an array")
	links, ok := projects[0].(map[string]any)["links"].(map[string]any)
	require.True(t, ok, "key next segment creates an object")
	assert.Equal(t, "github.com/x", links["repo"])
}

func TestSet_AppendWithDash(t *testing.T) {
	updated, err := Set(sampleDoc(), "experience[0].achievements[-]", "Cut latency")
	require.NoError(t, err)

	value, _ := Get(updated, "experience[0].achievements")
	assert.Equal(t, []any{"Shipped v1", "Cut latency"}, value)
}

func TestSet_UsesExistingAlias(t *testing.T) {
	updated, err := Set(sampleDoc(), "experiences[1].title", "Junior Engineer")
	require.NoError(t, err)

	m := updated.(map[string]any)
	_, hasPlural := m["experiences"]
	assert.False(t, hasPlural)
	assert.Equal(t, "Junior Engineer", m["experience"].([]any)[1].(map[string]any)["title"])
}

func TestSet_Errors(t *testing.T) {
	_, err := Set(sampleDoc(), "contact.email.domain", "x")
	assert.Error(t, err)

	_, err = Set(sampleDoc(), "experience.title", "x")
	assert.Error(t, err)

	_, err = Set(map[string]any{"list": []any{}}, "list[-1]", "x")
	assert.Error(t, err)
}

func TestSetThenGet_RoundTrip(t *testing.T) {
	paths := []string{
		"summary",
		"contact.email",
		"experience[0].title",
		"experience[latest].company",
		"experience[1].achievements[0]",
		"experience[0].achievements[-]",
		"skills.technical[3]",
		"projects[0].links.repo",
		"links.github~1main",
	}
	values := []any{"text", float64(42), true, []any{"a"}, map[string]any{"k": "v"}}

	for _, path := range paths {
		for _, value := range values {
			updated, err := Set(sampleDoc(), path, value)
			require.NoError(t, err, path)
			got, found := Get(updated, path)
			assert.True(t, found, path)
			assert.Equal(t, value, got, path)
		}
	}
}

func TestSet_StoresDocumentForm(t *testing.T) {
	updated, err := Set(sampleDoc(), "experience[0].years", 3)
	require.NoError(t, err)
	got, _ := Get(updated, "experience[0].years")
	assert.Equal(t, float64(3), got)

	updated, err = Set(sampleDoc(), "skills.soft", []string{"Mentoring"})
	require.NoError(t, err)
	got, _ = Get(updated, "skills.soft")
	assert.Equal(t, []any{"Mentoring"}, got)
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		check func(t *testing.T, doc any)
	}{
		{"object key", "contact.email", func(t *testing.T, doc any) {
			_, found := Get(doc, "contact.email")
			assert.False(t, found)
		}},
		{"array element", "experience[0]", func(t *testing.T, doc any) {
			value, _ := Get(doc, "experience[0].title")
			assert.Equal(t, "Intern", value)
		}},
		{"last element via dash", "experience[-]", func(t *testing.T, doc any) {
			list, _ := Get(doc, "experience")
			assert.Len(t, list, 1)
		}},
		{"last element via -1", "experience[-1]", func(t *testing.T, doc any) {
			value, _ := Get(doc, "experience[-1].title")
			assert.Equal(t, "Software Engineer", value)
		}},
		{"out of range is a no-op", "experience[9]", func(t *testing.T, doc any) {
			assert.Equal(t, sampleDoc(), doc)
		}},
		{"missing key is a no-op", "contact.phone", func(t *testing.T, doc any) {
			assert.Equal(t, sampleDoc(), doc)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sampleDoc()
			updated, err := Remove(input, tt.path)
			require.NoError(t, err)
			tt.check(t, updated)
			assert.Equal(t, sampleDoc(), input, "input must not change")
		})
	}
}
