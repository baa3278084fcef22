package mwapi

import "strings"

// Wikimedia domains whose ISO 639 language code differs from the subdomain.
var languageOverrides = map[string]string{
	"bat-smg":      "sgs",
	"als":          "gsw",
	"bh":           "bho",
	"fiu-vro":      "vro",
	"no":           "nb",
	"roa-rup":      "rup",
	"simple":       "en",
	"zh-classical": "lzh",
	"zh-min-nan":   "nan",
	"zh-yue":       "yue",
}

// WikiID builds the dataset identifier for a project/domain pair. Wikipedia
// wikis keep their historical "{domain}wiki" form; everything else is
// "{domain}{project}". Underscores become hyphens.
func WikiID(project, domain string) string {
	var id string
	if project == "wikipedia" {
		id = domain + "wiki"
	} else {
		id = domain + project
	}
	return strings.ReplaceAll(id, "_", "-")
}

// WikiURL returns the script path of a wiki's public endpoint, e.g.
// "https://bat-smg.wikipedia.org/w/".
func WikiURL(domain, project string) string {
	return "https://" + strings.ReplaceAll(domain, "_", "-") + "." + project + ".org/w/"
}

// LanguageCode maps a wiki domain to the ISO 639 code used for
// locale-sensitive text processing.
func LanguageCode(domain string) string {
	domain = strings.ReplaceAll(domain, "_", "-")
	if code, ok := languageOverrides[domain]; ok {
		return code
	}
	return domain
}
