package metadata

import (
	"fmt"
	"strconv"

	"entrykit/internal/titleformat"
)

// TranslationMethod controls how a translatable value (such as an entry
// title) is shared between sites.
type TranslationMethod string

const (
	TranslationNone      TranslationMethod = "none"
	TranslationSite      TranslationMethod = "site"
	TranslationSiteGroup TranslationMethod = "siteGroup"
	TranslationLanguage  TranslationMethod = "language"
	TranslationCustom    TranslationMethod = "custom"
)

// TranslationMethods lists every valid method.
var TranslationMethods = []TranslationMethod{
	TranslationNone,
	TranslationSite,
	TranslationSiteGroup,
	TranslationLanguage,
	TranslationCustom,
}

func (m TranslationMethod) Valid() bool {
	for _, v := range TranslationMethods {
		if v == m {
			return true
		}
	}
	return false
}

// Site is the minimal site description needed to derive translation keys.
type Site struct {
	ID       int    `json:"id"`
	Handle   string `json:"handle"`
	GroupID  int    `json:"groupId"`
	Language string `json:"language"`
}

func (s Site) env() map[string]any {
	return map[string]any{
		"id":       s.ID,
		"handle":   s.Handle,
		"groupId":  s.GroupID,
		"language": s.Language,
	}
}

// TranslationKey returns the key that groups sites sharing one value.
// Sites with equal keys share the value.
func TranslationKey(method TranslationMethod, keyFormat string, site Site, record map[string]any) (string, error) {
	switch method {
	case TranslationNone:
		return "1", nil
	case TranslationSite, "":
		return strconv.Itoa(site.ID), nil
	case TranslationSiteGroup:
		return strconv.Itoa(site.GroupID), nil
	case TranslationLanguage:
		return site.Language, nil
	case TranslationCustom:
		env := make(map[string]any, len(record)+1)
		for k, v := range record {
			env[k] = v
		}
		env["site"] = site.env()
		return titleformat.Render(keyFormat, env)
	default:
		return "", fmt.Errorf("unknown translation method: %s", method)
	}
}
