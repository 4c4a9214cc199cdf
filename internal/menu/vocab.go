package menu

import "strings"

// Dietary vocabulary. Tags outside this set are dropped during sanitation.
var DietaryVocabulary = map[string]bool{
	"végétarien":   true,
	"végétalien":   true,
	"sans_gluten":  true,
	"sans_lactose": true,
}

// EUAllergens is the fixed 14-entry EU allergen vocabulary.
var EUAllergens = map[string]bool{
	"gluten":            true,
	"crustacés":         true,
	"œufs":              true,
	"poissons":          true,
	"arachides":         true,
	"soja":              true,
	"lait":              true,
	"fruits_à_coque":    true,
	"céleri":            true,
	"moutarde":          true,
	"sésame":            true,
	"sulfites":          true,
	"lupin":             true,
	"mollusques":        true,
}

// Disqualifying ingredient lists. A tag is removed when any listed substring
// appears in the item's ingredients or description.
var (
	meats = []string{
		"jambon", "prosciutto", "bacon", "lardon", "pancetta", "saucisse",
		"chorizo", "pepperoni", "salami", "coppa", "bresaola", "bœuf", "boeuf",
		"porc", "agneau", "veau", "poulet", "canard", "dinde", "viande",
	}
	fishAndSeafood = []string{
		"poisson", "saumon", "thon", "cabillaud", "anchois", "crevette",
		"moule", "huître", "huitre", "calamar", "fruits de mer",
	}
	animalProducts = []string{
		"œuf", "oeuf", "lait", "crème", "creme", "fromage", "beurre",
		"yaourt", "miel", "mozzarella", "parmesan",
	}
	dairy = []string{
		"lait", "crème", "creme", "fromage", "beurre", "yaourt",
		"mozzarella", "parmesan", "mascarpone",
	}
	glutenGrains = []string{
		"blé", "ble", "orge", "seigle", "avoine", "farine", "pain",
		"pâte", "pate", "panure", "chapelure",
	}
)

// SanitizeItem applies the conservative tagging rules after parsing: unknown
// dietary tags are dropped, tags contradicted by the ingredient table are
// removed, and allergens are restricted to the EU vocabulary. The item is
// modified in place.
func SanitizeItem(it *Item) {
	haystack := strings.ToLower(it.Description + " " + strings.Join(it.Ingredients, " "))

	kept := it.Dietary[:0]
	for _, tag := range it.Dietary {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if !DietaryVocabulary[tag] {
			continue
		}
		if disqualified(tag, haystack) {
			continue
		}
		kept = append(kept, tag)
	}
	it.Dietary = kept
	if it.Dietary == nil {
		it.Dietary = []string{}
	}

	allergens := it.Allergens[:0]
	for _, a := range it.Allergens {
		a = strings.ToLower(strings.TrimSpace(a))
		if EUAllergens[a] {
			allergens = append(allergens, a)
		}
	}
	it.Allergens = allergens
	if it.Allergens == nil {
		it.Allergens = []string{}
	}

	if it.Ingredients == nil {
		it.Ingredients = []string{}
	}
}

func disqualified(tag, haystack string) bool {
	switch tag {
	case "végétarien":
		return containsAny(haystack, meats) || containsAny(haystack, fishAndSeafood)
	case "végétalien":
		return containsAny(haystack, meats) || containsAny(haystack, fishAndSeafood) ||
			containsAny(haystack, animalProducts)
	case "sans_lactose":
		return containsAny(haystack, dairy)
	case "sans_gluten":
		return containsAny(haystack, glutenGrains)
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
