package rendering

import (
	"sort"
	"strings"

	"github.com/jonathan/resume-editor/internal/document"
)

// View is the flattened résumé shape the templates consume
type View struct {
	Name      string
	Headline  string
	Email     string
	Phone     string
	Location  string
	Summary   string
	Skills    []SkillGroup
	Companies []CompanySection
	Education []EducationEntry
}

// SkillGroup is one labelled list of skills
type SkillGroup struct {
	Label string
	Items []string
}

// CompanySection represents a company with one or more roles
type CompanySection struct {
	Company string
	Roles   []RoleSection
}

// RoleSection represents a role within a company with merged date ranges
type RoleSection struct {
	Role       string
	DateRanges string // e.g. "2019-01 -- 2021-06, 2022-03 -- Present"
	Bullets    []string
}

// EducationEntry is one school line
type EducationEntry struct {
	Degree string
	School string
	Dates  string
}

type dateRange struct {
	StartDate string
	EndDate   string
}

var bulletKeys = []string{"achievements", "bullets", "highlights", "responsibilities"}

// BuildView reads the renderable parts of a document. Unknown keys are ignored.
func BuildView(doc any) View {
	contact, _ := field(doc, "contact").(map[string]any)
	v := View{
		Name:     first(document.String(contact, "name"), document.String(doc, "name")),
		Headline: first(document.String(doc, "title"), document.String(doc, "headline")),
		Email:    first(document.String(contact, "email"), document.String(doc, "email")),
		Phone:    first(document.String(contact, "phone"), document.String(doc, "phone")),
		Location: first(document.String(contact, "location"), document.String(doc, "location")),
		Summary:  document.String(doc, "summary"),
	}

	technical, soft := document.Skills(doc)
	if len(technical) > 0 {
		label := "Technical"
		if soft == nil {
			if _, flat := field(doc, "skills").([]any); flat {
				label = "Skills"
			}
		}
		v.Skills = append(v.Skills, SkillGroup{Label: label, Items: technical})
	}
	if len(soft) > 0 {
		v.Skills = append(v.Skills, SkillGroup{Label: "Soft skills", Items: soft})
	}

	v.Companies = groupByCompanyAndRole(document.Experiences(doc))

	if list, ok := field(doc, "education").([]any); ok {
		for _, e := range list {
			entry := EducationEntry{
				Degree: document.String(e, "degree"),
				School: first(document.String(e, "school"), document.String(e, "institution")),
				Dates:  formatRange(startOf(e), endOf(e)),
			}
			if entry.Degree != "" || entry.School != "" {
				v.Education = append(v.Education, entry)
			}
		}
	}
	return v
}

type roleKey struct {
	Company string
	Role    string
}

type roleData struct {
	ranges  []dateRange
	bullets []string
}

// groupByCompanyAndRole merges entries sharing a company and role, keeping
// the order in which companies and roles first appear.
func groupByCompanyAndRole(experiences []any) []CompanySection {
	data := make(map[roleKey]*roleData)
	var companyOrder []string
	roleOrder := make(map[string][]string)

	for _, exp := range experiences {
		company := document.String(exp, "company")
		role := first(document.String(exp, "title"), document.String(exp, "role"))
		if company == "" && role == "" {
			continue
		}
		key := roleKey{Company: company, Role: role}
		d, ok := data[key]
		if !ok {
			d = &roleData{}
			data[key] = d
			if _, seen := roleOrder[company]; !seen {
				companyOrder = append(companyOrder, company)
			}
			roleOrder[company] = append(roleOrder[company], role)
		}
		d.ranges = append(d.ranges, dateRange{StartDate: startOf(exp), EndDate: endOf(exp)})
		for _, k := range bulletKeys {
			d.bullets = append(d.bullets, document.Strings(field(exp, k))...)
		}
	}

	companies := make([]CompanySection, 0, len(companyOrder))
	for _, company := range companyOrder {
		section := CompanySection{Company: company}
		for _, role := range roleOrder[company] {
			d := data[roleKey{Company: company, Role: role}]
			section.Roles = append(section.Roles, RoleSection{
				Role:       role,
				DateRanges: mergeDateRanges(d.ranges),
				Bullets:    d.bullets,
			})
		}
		companies = append(companies, section)
	}
	return companies
}

// mergeDateRanges drops duplicate ranges, sorts by start date, and joins them
func mergeDateRanges(ranges []dateRange) string {
	seen := make(map[dateRange]bool)
	var unique []dateRange
	for _, r := range ranges {
		if r.StartDate == "" && r.EndDate == "" || seen[r] {
			continue
		}
		seen[r] = true
		unique = append(unique, r)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].StartDate < unique[j].StartDate
	})

	parts := make([]string, len(unique))
	for i, r := range unique {
		parts[i] = formatRange(r.StartDate, r.EndDate)
	}
	return strings.Join(parts, ", ")
}

func formatRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "" || strings.EqualFold(end, "present") || strings.EqualFold(end, "current"):
		if start == "" {
			return "Present"
		}
		return start + " -- Present"
	case start == "":
		return end
	}
	return start + " -- " + end
}

func startOf(v any) string {
	return first(document.String(v, "start_date"), document.String(v, "startDate"), document.String(v, "start"))
}

func endOf(v any) string {
	return first(document.String(v, "end_date"), document.String(v, "endDate"), document.String(v, "end"))
}

func field(v any, key string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
