package menu

// Price of a single item. Currency is one of €, $, £, CHF, or empty when the
// menu did not show a readable currency.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency,omitempty"`
}

// Item is one dish as structured by the LLM.
type Item struct {
	Name        string   `json:"name"`
	Price       Price    `json:"price"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Dietary     []string `json:"dietary"`
	Allergens   []string `json:"allergens"`
}

// Section keeps its items in menu order. Name may differ from the raw OCR
// section header: the analyzer is allowed to fix obvious OCR typos.
type Section struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Menu is the fully assembled scan output.
type Menu struct {
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
}

// TotalItems counts items across all sections.
func (m *Menu) TotalItems() int {
	total := 0
	for _, s := range m.Sections {
		total += len(s.Items)
	}
	return total
}

// DefaultCurrency is used when a price could not be parsed.
const DefaultCurrency = "€"

// AllowedCurrencies the LLM may emit; anything else becomes empty.
var AllowedCurrencies = map[string]bool{
	"€":   true,
	"$":   true,
	"£":   true,
	"CHF": true,
}
