package types

// Theme is the canonical visual configuration of a rendered résumé
type Theme struct {
	Font            string `json:"font" validate:"required"`
	PrimaryColor    string `json:"primary_color" validate:"required,hexcolor"`
	AccentColor     string `json:"accent_color" validate:"required,hexcolor"`
	TextColor       string `json:"text_color" validate:"required,hexcolor"`
	BackgroundColor string `json:"background_color" validate:"required,hexcolor"`
	Layout          string `json:"layout" validate:"required,oneof=single-column two-column compact"`
	Spacing         string `json:"spacing" validate:"required,oneof=compact normal relaxed"`
}
