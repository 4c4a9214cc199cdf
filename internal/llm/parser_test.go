package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (s *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestExtractJSONFromProse(t *testing.T) {
	span, err := extractJSON(`Voici le résultat demandé : {"menu_title": "Chez Luigi", "sections": ["PIZZE"]} J'espère que cela convient.`)
	require.NoError(t, err)
	require.Equal(t, `{"menu_title": "Chez Luigi", "sections": ["PIZZE"]}`, span)
}

func TestExtractJSONNoBraces(t *testing.T) {
	_, err := extractJSON("désolé, je ne peux pas")
	e, ok := errs.AsError(err)
	require.True(t, ok)
	require.Equal(t, errs.CodeInvalidJSONResponse, e.Code)
}

func TestParseDetectionPreservesRawSectionNames(t *testing.T) {
	title, sections, err := parseDetection(`{"menu_title": "Da Mario", "sections": ["ANTPASTI", "PRZE", "DOLC"]}`)
	require.NoError(t, err)
	require.Equal(t, "Da Mario", title)
	// OCR garbling must come through untouched.
	require.Equal(t, []string{"ANTPASTI", "PRZE", "DOLC"}, sections)
}

func TestParseDetectionEmptyTitleFallsBack(t *testing.T) {
	title, _, err := parseDetection(`{"menu_title": "", "sections": ["PLATS"]}`)
	require.NoError(t, err)
	require.Equal(t, "Menu", title)
}

func TestParseSectionCoercesNonNumericPrice(t *testing.T) {
	response := `{
		"name": "ENTREES",
		"items": [
			{"name": "Salade", "price": {"value": "N/A", "currency": "€"}, "description": "verte", "ingredients": [], "dietary": [], "allergens": []}
		]
	}`

	section, err := parseSection(response, "ENTREES")
	require.NoError(t, err)
	require.Len(t, section.Items, 1)
	require.Equal(t, 0.0, section.Items[0].Price.Value)
	require.Equal(t, "€", section.Items[0].Price.Currency)
}

func TestParseSectionSkipsMalformedItemKeepsSiblings(t *testing.T) {
	response := `{
		"name": "PLATS",
		"items": [
			{"name": "Poulet rôti", "price": {"value": 15, "currency": "€"}},
			{"name": "Cassé", "ingredients": "pas une liste"},
			{"name": "Poisson grillé", "price": {"value": 18, "currency": "€"}}
		]
	}`

	section, err := parseSection(response, "PLATS")
	require.NoError(t, err)
	require.Len(t, section.Items, 2)
	require.Equal(t, "Poulet rôti", section.Items[0].Name)
	require.Equal(t, "Poisson grillé", section.Items[1].Name)
}

func TestParseSectionStringPriceWithComma(t *testing.T) {
	response := `{"name": "PIZZE", "items": [{"name": "Margherita", "price": {"value": "12,50", "currency": "€"}}]}`

	section, err := parseSection(response, "PIZZE")
	require.NoError(t, err)
	require.Equal(t, 12.5, section.Items[0].Price.Value)
}

func TestParseSectionUnknownCurrencyDefaults(t *testing.T) {
	response := `{"name": "PLATS", "items": [{"name": "Bortsch", "price": {"value": 9, "currency": "₽"}}]}`

	section, err := parseSection(response, "PLATS")
	require.NoError(t, err)
	require.Equal(t, "€", section.Items[0].Price.Currency)
}

func TestParseSectionMissingListsBecomeEmpty(t *testing.T) {
	response := `{"name": "DESSERTS", "items": [{"name": "Tiramisu", "price": {"value": 7, "currency": "€"}}]}`

	section, err := parseSection(response, "DESSERTS")
	require.NoError(t, err)
	it := section.Items[0]
	require.NotNil(t, it.Ingredients)
	require.NotNil(t, it.Dietary)
	require.NotNil(t, it.Allergens)
	require.Empty(t, it.Ingredients)
}

func TestParseSectionEmptyNameUsesFallback(t *testing.T) {
	section, err := parseSection(`{"items": []}`, "BOISSONS")
	require.NoError(t, err)
	require.Equal(t, "BOISSONS", section.Name)
}

func TestParseSectionDietaryDisqualifiedByMeat(t *testing.T) {
	response := `{
		"name": "PIZZE",
		"items": [
			{"name": "Prosciutto", "price": {"value": 13, "currency": "€"}, "description": "tomate, mozzarella, jambon cru", "ingredients": ["tomate", "mozzarella", "jambon cru"], "dietary": ["végétarien"], "allergens": ["gluten", "lait"]}
		]
	}`

	section, err := parseSection(response, "PIZZE")
	require.NoError(t, err)
	require.Empty(t, section.Items[0].Dietary)
	require.Equal(t, []string{"gluten", "lait"}, section.Items[0].Allergens)
}

func TestParseSectionDropsUnknownAllergens(t *testing.T) {
	response := `{"name": "PLATS", "items": [{"name": "Curry", "price": {"value": 14, "currency": "€"}, "allergens": ["gluten", "curcuma"]}]}`

	section, err := parseSection(response, "PLATS")
	require.NoError(t, err)
	require.Equal(t, []string{"gluten"}, section.Items[0].Allergens)
}

func TestStructureWholeMenuRejectsEmptySections(t *testing.T) {
	client := &Client{completer: &stubCompleter{response: `{"name": "Chez Nous", "sections": []}`}}

	_, err := client.StructureWholeMenu(context.Background(), "texte ocr", "fr")
	e, ok := errs.AsError(err)
	require.True(t, ok)
	require.Equal(t, errs.CodeNoMenuSections, e.Code)
}

func TestStructureWholeMenuRejectsZeroItems(t *testing.T) {
	client := &Client{completer: &stubCompleter{
		response: `{"name": "Chez Nous", "sections": [{"name": "PLATS", "items": []}]}`,
	}}

	_, err := client.StructureWholeMenu(context.Background(), "texte ocr", "fr")
	e, ok := errs.AsError(err)
	require.True(t, ok)
	require.Equal(t, errs.CodeNoMenuItems, e.Code)
}

func TestCheckConnection(t *testing.T) {
	ok := (&Client{completer: &stubCompleter{response: "ok"}}).CheckConnection(context.Background())
	require.True(t, ok)

	bad := (&Client{completer: &stubCompleter{err: errs.LLM(errs.CodeLLMError, "down")}}).CheckConnection(context.Background())
	require.False(t, bad)
}
