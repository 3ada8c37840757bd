package types

// SubScores holds the eight scoring dimensions, each in [0,100]
type SubScores struct {
	KeywordExact        float64 `json:"keyword_exact" validate:"gte=0,lte=100"`
	KeywordPhrase       float64 `json:"keyword_phrase" validate:"gte=0,lte=100"`
	SemanticRelevance   float64 `json:"semantic_relevance" validate:"gte=0,lte=100"`
	TitleAlignment      float64 `json:"title_alignment" validate:"gte=0,lte=100"`
	MetricsPresence     float64 `json:"metrics_presence" validate:"gte=0,lte=100"`
	SectionCompleteness float64 `json:"section_completeness" validate:"gte=0,lte=100"`
	FormatParseability  float64 `json:"format_parseability" validate:"gte=0,lte=100"`
	RecencyFit          float64 `json:"recency_fit" validate:"gte=0,lte=100"`
}

// SuggestionCategory groups recommendations
type SuggestionCategory string

const (
	CategoryKeywords   SuggestionCategory = "keywords"
	CategoryMetrics    SuggestionCategory = "metrics"
	CategoryContent    SuggestionCategory = "content"
	CategoryFormatting SuggestionCategory = "formatting"
	CategoryStructure  SuggestionCategory = "structure"
)

// Suggestion is a recommendation produced by scoring
type Suggestion struct {
	Category      SuggestionCategory `json:"category" validate:"required,oneof=keywords metrics content formatting structure"`
	Text          string             `json:"text" validate:"required"`
	EstimatedGain float64            `json:"estimated_gain" validate:"gte=0"`
	// Keyword is set for keyword suggestions so they can be applied directly
	Keyword string `json:"keyword,omitempty"`
}

// LanguageScore is the keyword overlap for one script bucket
type LanguageScore struct {
	Score float64  `json:"score" validate:"gte=0,lte=100"`
	Gaps  []string `json:"gaps"`
}

// Report is the result of scoring a document against a job description
type Report struct {
	Score           int                      `json:"score" validate:"gte=0,lte=100"`
	SubScores       SubScores                `json:"subscores"`
	MissingKeywords []string                 `json:"missing_keywords"`
	Recommendations []Suggestion             `json:"recommendations" validate:"dive"`
	Languages       map[string]LanguageScore `json:"languages"`
	Degraded        bool                     `json:"degraded,omitempty"`
}
