package llm

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/nina031/MenuScanner-backend/internal/errs"
	"github.com/nina031/MenuScanner-backend/internal/menu"
)

// extractJSON locates the model's JSON payload inside possible prose: the
// span from the first '{' to the last '}'.
func extractJSON(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", errs.LLM(errs.CodeInvalidJSONResponse,
			"aucun JSON trouvé dans la réponse du modèle")
	}
	return response[start : end+1], nil
}

type detectionPayload struct {
	MenuTitle string   `json:"menu_title"`
	Sections  []string `json:"sections"`
}

func parseDetection(response string) (string, []string, error) {
	span, err := extractJSON(response)
	if err != nil {
		return "", nil, err
	}

	var payload detectionPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return "", nil, errs.LLM(errs.CodeInvalidJSONResponse,
			"JSON de détection invalide: %v", err)
	}

	title := strings.TrimSpace(payload.MenuTitle)
	if title == "" {
		title = "Menu"
	}

	sections := make([]string, 0, len(payload.Sections))
	for _, s := range payload.Sections {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}
	return title, sections, nil
}

// rawItem tolerates the loose typing the model produces; price is coerced
// separately so one malformed field never sinks the item.
type rawItem struct {
	Name        string          `json:"name"`
	Price       json.RawMessage `json:"price"`
	Description string          `json:"description"`
	Ingredients []string        `json:"ingredients"`
	Dietary     []string        `json:"dietary"`
	Allergens   []string        `json:"allergens"`
}

type rawSection struct {
	Name  string            `json:"name"`
	Items []json.RawMessage `json:"items"`
}

func parseSection(response, fallbackName string) (menu.Section, error) {
	span, err := extractJSON(response)
	if err != nil {
		return menu.Section{}, err
	}

	var payload rawSection
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return menu.Section{}, errs.LLM(errs.CodeInvalidJSONResponse,
			"JSON de section invalide: %v", err)
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = fallbackName
	}

	section := menu.Section{Name: name, Items: []menu.Item{}}
	for _, raw := range payload.Items {
		item, ok := parseItem(raw, name)
		if !ok {
			continue
		}
		section.Items = append(section.Items, item)
	}
	return section, nil
}

// parseItem converts one raw item, skip-and-continue on anything unusable.
func parseItem(raw json.RawMessage, sectionName string) (menu.Item, bool) {
	var ri rawItem
	if err := json.Unmarshal(raw, &ri); err != nil {
		log.Printf("ITEM_SKIPPED section=%s error=%v", sectionName, err)
		return menu.Item{}, false
	}
	if strings.TrimSpace(ri.Name) == "" {
		log.Printf("ITEM_SKIPPED section=%s reason=empty_name", sectionName)
		return menu.Item{}, false
	}

	item := menu.Item{
		Name:        strings.TrimSpace(ri.Name),
		Price:       coercePrice(ri.Price),
		Description: strings.TrimSpace(ri.Description),
		Ingredients: ri.Ingredients,
		Dietary:     ri.Dietary,
		Allergens:   ri.Allergens,
	}
	menu.SanitizeItem(&item)

	if item.Price.Value < 0 {
		log.Printf("SUSPICIOUS_PRICE item=%q value=%.2f reason=negative", item.Name, item.Price.Value)
	}
	if item.Price.Value > 1000 {
		log.Printf("SUSPICIOUS_PRICE item=%q value=%.2f reason=above_1000", item.Name, item.Price.Value)
	}
	return item, true
}

// rawPrice mirrors the expected {"value": n, "currency": "€"} shape but keeps
// value raw: the model sometimes emits strings ("12,50", "N/A") or null.
type rawPrice struct {
	Value    json.RawMessage `json:"value"`
	Currency *string         `json:"currency"`
}

// coercePrice never fails: anything unparseable becomes {0, default currency}.
func coercePrice(raw json.RawMessage) menu.Price {
	fallback := menu.Price{Value: 0, Currency: menu.DefaultCurrency}
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}

	var rp rawPrice
	if err := json.Unmarshal(raw, &rp); err != nil {
		// Sometimes the price is a bare number rather than an object.
		var v float64
		if json.Unmarshal(raw, &v) == nil {
			return menu.Price{Value: v, Currency: menu.DefaultCurrency}
		}
		return fallback
	}

	value, ok := coercePriceValue(rp.Value)
	if !ok {
		return fallback
	}

	currency := ""
	if rp.Currency != nil {
		c := strings.TrimSpace(*rp.Currency)
		if menu.AllowedCurrencies[c] {
			currency = c
		}
	}
	if currency == "" {
		currency = menu.DefaultCurrency
	}
	return menu.Price{Value: value, Currency: currency}
}

func coercePriceValue(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n, true
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

type rawMenu struct {
	Name     string            `json:"name"`
	Sections []json.RawMessage `json:"sections"`
}

func parseWholeMenu(response string) (*menu.Menu, error) {
	span, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var payload rawMenu
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, errs.LLM(errs.CodeInvalidJSONResponse,
			"JSON de menu invalide: %v", err)
	}

	m := &menu.Menu{
		Name:     strings.TrimSpace(payload.Name),
		Sections: []menu.Section{},
	}
	for _, rawSec := range payload.Sections {
		var rs rawSection
		if err := json.Unmarshal(rawSec, &rs); err != nil {
			log.Printf("SECTION_SKIPPED error=%v", err)
			continue
		}
		section := menu.Section{Name: strings.TrimSpace(rs.Name), Items: []menu.Item{}}
		for _, rawIt := range rs.Items {
			if item, ok := parseItem(rawIt, section.Name); ok {
				section.Items = append(section.Items, item)
			}
		}
		m.Sections = append(m.Sections, section)
	}
	return m, nil
}
