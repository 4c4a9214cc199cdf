// Package llm structures raw OCR text into menus through prompted Claude
// calls: section+title detection, per-section analysis, and a legacy one-shot
// whole-menu path.
package llm

import (
	"context"
	"log"

	"github.com/nina031/MenuScanner-backend/internal/menu"
)

type Client struct {
	completer completer
}

func NewClient(apiKey, model string) *Client {
	return &Client{completer: newClaudeCompleter(apiKey, model)}
}

// DetectSectionsAndTitle returns the menu title and the ordered section names
// exactly as they appear in the OCR text. The title is never empty: the model
// synthesizes a descriptive one when the menu shows no restaurant name.
func (c *Client) DetectSectionsAndTitle(ctx context.Context, ocrText string) (string, []string, error) {
	response, err := c.completer.Complete(ctx, detectSectionsPrompt, ocrText)
	if err != nil {
		return "", nil, err
	}

	title, sections, err := parseDetection(response)
	if err != nil {
		return "", nil, err
	}

	log.Printf("SECTIONS_DETECTED title=%q count=%d sections=%v", title, len(sections), sections)
	return title, sections, nil
}

// AnalyzeSection structures one section's text into items. The model may fix
// obvious OCR typos in the section name here, since literal matching against
// the source text has already happened.
func (c *Client) AnalyzeSection(ctx context.Context, content, sectionName, languageHint string) (menu.Section, error) {
	response, err := c.completer.Complete(ctx, buildAnalyzeSectionPrompt(sectionName, languageHint), content)
	if err != nil {
		return menu.Section{}, err
	}

	section, err := parseSection(response, sectionName)
	if err != nil {
		return menu.Section{}, err
	}

	log.Printf("SECTION_ANALYZED name=%q items=%d", section.Name, len(section.Items))
	return section, nil
}

// StructureWholeMenu is the legacy one-shot path used by the non-streaming
// endpoint. The result goes through the same structural validation as the
// section-by-section path.
func (c *Client) StructureWholeMenu(ctx context.Context, ocrText, languageHint string) (*menu.Menu, error) {
	response, err := c.completer.Complete(ctx, buildWholeMenuPrompt(languageHint), ocrText)
	if err != nil {
		return nil, err
	}

	m, err := parseWholeMenu(response)
	if err != nil {
		return nil, err
	}
	if err := menu.Validate(m); err != nil {
		return nil, err
	}

	log.Printf("MENU_STRUCTURED name=%q sections=%d items=%d", m.Name, len(m.Sections), m.TotalItems())
	return m, nil
}

// CheckConnection does a minimal round-trip; false on any failure, never an
// error.
func (c *Client) CheckConnection(ctx context.Context) bool {
	_, err := c.completer.Complete(ctx, "Réponds uniquement: ok", "ping")
	if err != nil {
		log.Printf("CLAUDE_PING_FAILED error=%v", err)
		return false
	}
	return true
}
