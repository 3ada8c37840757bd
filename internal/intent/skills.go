package intent

import (
	"regexp"
	"strings"
)

// technicalSkills lists languages, frameworks and tools. Anything else is a soft skill.
var technicalSkills = map[string]bool{
	// languages
	"go": true, "golang": true, "python": true, "java": true, "javascript": true, "typescript": true,
	"c": true, "c++": true, "c#": true, "rust": true, "ruby": true, "php": true, "kotlin": true,
	"swift": true, "scala": true, "r": true, "sql": true, "bash": true, "shell": true, "perl": true,
	"html": true, "css": true, "dart": true, "elixir": true, "haskell": true, "lua": true, "matlab": true,
	// frameworks and libraries
	"react": true, "angular": true, "vue": true, "svelte": true, "django": true, "flask": true,
	"fastapi": true, "spring": true, "rails": true, "node": true, "node.js": true, "nodejs": true,
	"express": true, ".net": true, "next.js": true, "nextjs": true, "gin": true, "tensorflow": true,
	"pytorch": true, "pandas": true, "numpy": true, "scikit-learn": true, "spark": true, "hadoop": true,
	"graphql": true, "grpc": true, "rest": true, "jquery": true, "tailwind": true,
	// tools and platforms
	"docker": true, "kubernetes": true, "k8s": true, "terraform": true, "ansible": true, "jenkins": true,
	"git": true, "github": true, "gitlab": true, "aws": true, "gcp": true, "azure": true, "linux": true,
	"postgresql": true, "postgres": true, "mysql": true, "mongodb": true, "redis": true, "kafka": true,
	"rabbitmq": true, "elasticsearch": true, "ci/cd": true, "airflow": true, "snowflake": true,
	"bigquery": true, "tableau": true, "excel": true, "figma": true, "jira": true, "prometheus": true,
	"grafana": true, "nginx": true, "helm": true, "sqlite": true, "dynamodb": true, "firebase": true,
}

// IsTechnicalSkill reports whether skill names a language, framework or tool
func IsTechnicalSkill(skill string) bool {
	lower := strings.ToLower(strings.TrimSpace(skill))
	if technicalSkills[lower] {
		return true
	}
	for _, token := range strings.FieldsFunc(lower, func(r rune) bool { return r == ' ' || r == '-' || r == '/' }) {
		if technicalSkills[token] {
			return true
		}
	}
	return false
}

var skillSplitRe = regexp.MustCompile(`(?i)\s*(?:,|;|&|\band\b|\bplus\b)\s*`)

// splitSkills splits "Go, Docker and Kafka" into its items
func splitSkills(list string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range skillSplitRe.Split(list, -1) {
		part = cleanValue(part, false)
		part = strings.TrimPrefix(part, "and ")
		key := strings.ToLower(part)
		if part == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}

func indexFold(list []string, s string) int {
	for i, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), s) {
			return i
		}
	}
	return -1
}
