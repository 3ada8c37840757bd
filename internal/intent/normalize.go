package intent

import (
	"regexp"
	"strings"
)

var verbPattern = `(?:add|change|update|modify|remove|delete|replace|set|make|insert|append|prepend|rewrite|include)`

var (
	verbRe       = regexp.MustCompile(`(?i)\b` + verbPattern + `\b`)
	leadVerbRe   = regexp.MustCompile(`(?i)^` + verbPattern + `\b`)
	wordRe       = regexp.MustCompile(`[A-Za-z][A-Za-z'-]*`)
	strayRe      = regexp.MustCompile(`^[A-Za-z]\s+`)
	politenessRe = regexp.MustCompile(`(?i)^(?:(?:please|pls|plz|kindly|hey|hi|ok|okay)[,!]?\s+|(?:can|could|would|will)\s+you\s+(?:please\s+)?|i(?:'d|\s+would)\s+like\s+(?:you\s+)?to\s+|i\s+(?:want|need)\s+(?:you\s+)?to\s+)+`)
)

// typoFixes maps frequent misspellings to the words the section parsers look for
var typoFixes = map[string]string{
	"skils": "skills", "skillz": "skills", "sklls": "skills", "skilss": "skills",
	"skiils": "skills", "skillls": "skills", "sills": "skills",
	"skil": "skill", "skll": "skill",
	"summery": "summary", "sumary": "summary", "summry": "summary", "summay": "summary",
	"tittle": "title", "titel": "title", "tilte": "title", "titl": "title",
	"emial": "email", "emal": "email", "e-mail": "email", "eamil": "email",
	"phnoe": "phone", "phon": "phone", "fone": "phone",
	"experiance": "experience", "expereince": "experience", "experince": "experience",
	"acheivement": "achievement", "achievment": "achievement", "achivement": "achievement",
	"acheivements": "achievements", "achievments": "achievements", "achivements": "achievements",
	"chnage": "change", "chagne": "change", "cahnge": "change", "chang": "change",
	"udpate": "update", "upate": "update", "updte": "update",
	"remvoe": "remove", "remve": "remove", "delte": "delete", "addd": "add",
}

// normalize collapses whitespace, fixes common typos, and strips polite
// preambles and a stray leading letter. Case is preserved for values.
func normalize(message string) string {
	text := strings.Join(strings.Fields(message), " ")
	text = wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if fix, ok := typoFixes[strings.ToLower(w)]; ok {
			return fix
		}
		return w
	})
	text = politenessRe.ReplaceAllString(text, "")
	if loc := strayRe.FindStringIndex(text); loc != nil {
		if rest := text[loc[1]:]; leadVerbRe.MatchString(rest) {
			text = rest
		}
	}
	text = strings.TrimRight(text, "!? ")
	return strings.TrimSpace(text)
}

func firstWord(text string) string {
	if fields := strings.Fields(text); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// cleanValue trims whitespace, wrapping quotes and, for short values, a trailing period
func cleanValue(v string, keepPeriod bool) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"'“”‘’`+"`")
	if !keepPeriod {
		v = strings.TrimRight(v, ".")
	}
	return strings.TrimSpace(v)
}
