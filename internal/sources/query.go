package sources

import (
	"regexp"
	"strings"
)

var (
	yearToken   = regexp.MustCompile(`^\d{4}$`)
	ageToken    = regexp.MustCompile(`(?i)^(\d+)Y$`)
	titleSuffix = regexp.MustCompile(`\s*[–—-]\s*`)
	titleYear   = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	titleAge    = regexp.MustCompile(`(?i)\b(\d{1,2}Y)\b`)

	// Storefront titles often lead with a generic category term that only
	// hurts search relevance.
	genericPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^rượu vang đỏ\s+`),
		regexp.MustCompile(`(?i)^rượu vang trắng\s+`),
		regexp.MustCompile(`(?i)^rượu vang\s+`),
		regexp.MustCompile(`(?i)^vang đỏ\s+`),
		regexp.MustCompile(`(?i)^vang trắng\s+`),
		regexp.MustCompile(`(?i)^vang\s+`),
		regexp.MustCompile(`(?i)^rượu\s+`),
	}
)

// BuildSearchQuery normalizes a product name plus optional vintage marker into
// a search string. A 4-digit year marks a wine; an "NNY" age marks a whiskey
// and is rewritten to "NN year"; anything else is appended verbatim.
func BuildSearchQuery(productName string, vintage string) string {
	parts := []string{strings.TrimSpace(productName)}

	v := strings.TrimSpace(vintage)
	if v != "" {
		switch {
		case yearToken.MatchString(v):
			parts = append(parts, v, "wine")
		case ageToken.MatchString(v):
			years := ageToken.FindStringSubmatch(v)[1]
			parts = append(parts, years+" year", "whiskey")
		default:
			parts = append(parts, v)
		}
	}

	return strings.Join(parts, " ")
}

// CleanTitle strips the trailing " – " / " - " suffix storefronts append to
// listing titles.
func CleanTitle(title string) string {
	return strings.TrimSpace(titleSuffix.Split(title, 2)[0])
}

// ExtractNameVintage heuristically recovers a product name and vintage marker
// from a raw catalog title when the caller did not supply them explicitly.
func ExtractNameVintage(title string) (name string, vintage string) {
	base := CleanTitle(title)

	if m := titleYear.FindString(base); m != "" {
		vintage = m
	} else if m := titleAge.FindString(base); m != "" {
		vintage = strings.ToUpper(m)
	}

	name = base
	if vintage != "" {
		name = strings.TrimSpace(strings.ReplaceAll(name, vintage, ""))
	}
	for _, re := range genericPrefixes {
		name = strings.TrimSpace(re.ReplaceAllString(name, ""))
	}

	return name, vintage
}
