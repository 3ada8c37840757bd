package fetch

import (
	"net/url"
	"slices"
	"strings"
	"unicode"
)

// Board is a job board whose posting pages have a known layout
type Board string

const (
	BoardGreenhouse Board = "greenhouse"
	BoardLever      Board = "lever"
	BoardWorkday    Board = "workday"
	BoardAshby      Board = "ashby"
	// BoardGeneric is any other site
	BoardGeneric Board = "generic"
)

type boardLayout struct {
	hosts []string
	// companyInPath means the first path segment is the employer's slug
	companyInPath bool
	content       []string
	noise         []string
}

var boardOrder = []Board{BoardGreenhouse, BoardLever, BoardWorkday, BoardAshby}

var boardLayouts = map[Board]boardLayout{
	BoardGreenhouse: {
		hosts:         []string{"greenhouse.io"},
		companyInPath: true,
		content:       []string{".job__description.body", ".job__description", "#content", ".job-post-container"},
		noise:         []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	BoardLever: {
		hosts:         []string{"lever.co"},
		companyInPath: true,
		content:       []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description"},
		noise:         []string{".posting-apply", ".apply-section", ".lever-application-form"},
	},
	BoardWorkday: {
		hosts:   []string{"myworkdayjobs.com", "workday.com"},
		content: []string{"[data-automation-id='jobDescription']", ".job-description"},
		noise:   []string{"[data-automation-id='applyButton']", "[data-automation-id='similarJobs']"},
	},
	BoardAshby: {
		hosts:         []string{"ashbyhq.com"},
		companyInPath: true,
		content:       []string{"[class*='descriptionText']", "[class*='_description_']"},
		noise:         []string{"[class*='applicationForm']", "[class*='_navRoot_']"},
	},
}

// applyNoise is the application and consent chrome every board wraps a
// posting in. None of it says anything about the role.
var applyNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	".eeo-statement",
	".voluntary-disclosure",
	".self-identification",
	".social-share",
	".cookie-consent",
	".gdpr-notice",
}

// DetectBoard matches the URL host against the known board domains
func DetectBoard(rawURL string) Board {
	u, err := url.Parse(rawURL)
	if err != nil {
		return BoardGeneric
	}
	host := strings.ToLower(u.Hostname())
	for _, b := range boardOrder {
		for _, domain := range boardLayouts[b].hosts {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return b
			}
		}
	}
	return BoardGeneric
}

// Selectors returns the content selectors to try in order and the noise
// selectors to strip. Board selectors come first, followed by the generic
// posting selectors so a redesigned board still yields text.
func (b Board) Selectors() (content, noise []string) {
	layout := boardLayouts[b]
	return slices.Concat(layout.content, JobPostingSelectors()), slices.Concat(applyNoise, layout.noise)
}

// CompanyFromURL reads the employer from boards that put its slug first in
// the path, as in boards.greenhouse.io/acme-robotics/jobs/42. It returns ""
// for other boards.
func CompanyFromURL(rawURL string) string {
	if !boardLayouts[DetectBoard(rawURL)].companyInPath {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	slug, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
