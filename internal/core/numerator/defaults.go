package numerator

import (
	"sort"
	"strings"
	"unicode"
)

// defaults is the built-in configuration per document type. It seeds new tenants
// and provisions rows on first use.
var defaults = map[string]Settings{
	"batch":          {Prefix: "B", Separator: "-", IncludeYear: true, Padding: 3, ResetYearly: true},
	"brew_log":       {Prefix: "BL", Separator: "-", IncludeYear: true, Padding: 4, ResetYearly: true},
	"order":          {Prefix: "ORD", Separator: "-", IncludeYear: true, Padding: 4, ResetYearly: true},
	"purchase_order": {Prefix: "PO", Separator: "-", IncludeYear: true, Padding: 4, ResetYearly: true},
	"invoice":        {Prefix: "INV", Separator: "-", IncludeYear: true, Padding: 5, ResetYearly: true},
	"voucher":        {Prefix: "V", Separator: "-", IncludeYear: true, Padding: 3, ResetYearly: true},
	"stock_receipt":  {Prefix: "SR", Separator: "-", IncludeYear: true, Padding: 4, ResetYearly: true},
	"stock_issue":    {Prefix: "SI", Separator: "-", IncludeYear: true, Padding: 4, ResetYearly: true},
	"stock_transfer": {Prefix: "ST", Separator: "-", IncludeYear: true, Padding: 4, ResetYearly: true},
	"item":           {Prefix: "it", Padding: 5},
	"recipe":         {Prefix: "RCP", Padding: 4},
	"customer":       {Prefix: "CUS", Padding: 5},
	"supplier":       {Prefix: "SUP", Padding: 5},
}

// DefaultEntities returns the document types seeded for every new tenant, sorted.
func DefaultEntities() []string {
	entities := make([]string, 0, len(defaults))
	for e := range defaults {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	return entities
}

// DefaultSettings returns the built-in settings for entity and whether entity is known.
func DefaultSettings(entity string) (Settings, bool) {
	s, ok := defaults[entity]
	return s, ok
}

// SettingsFor returns built-in settings for entity, deriving a fallback for unknown types.
func SettingsFor(entity string) Settings {
	if s, ok := defaults[entity]; ok {
		return s
	}
	return FallbackSettings(entity)
}

// FallbackSettings derives settings for a document type that has no built-in entry.
// The prefix is the uppercased initials of the words in entity ("goods_return" -> "GR");
// a single word contributes its first three letters ("keg" -> "KEG").
func FallbackSettings(entity string) Settings {
	return Settings{
		Prefix:      fallbackPrefix(entity),
		Separator:   "-",
		IncludeYear: true,
		Padding:     3,
	}
}

func fallbackPrefix(entity string) string {
	words := strings.FieldsFunc(entity, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "X"
	}

	var prefix []rune
	if len(words) == 1 {
		prefix = []rune(words[0])
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
	} else {
		for _, w := range words {
			prefix = append(prefix, []rune(w)[0])
		}
		if len(prefix) > MaxPrefixLen {
			prefix = prefix[:MaxPrefixLen]
		}
	}
	return strings.ToUpper(string(prefix))
}

// SubScopeSettings derives the settings of a sub-scope row from the document type's base
// settings and the sub-scope's external code ("SR" + "MAIN" -> "SR-MAIN").
func SubScopeSettings(base Settings, code string) Settings {
	code = strings.TrimSpace(code)
	switch {
	case code == "":
	case base.Prefix == "":
		base.Prefix = code
	default:
		base.Prefix = base.Prefix + "-" + code
	}
	if r := []rune(base.Prefix); len(r) > MaxPrefixLen {
		base.Prefix = string(r[:MaxPrefixLen])
	}
	return base
}
