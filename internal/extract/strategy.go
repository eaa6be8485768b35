package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/numerus/internal/count"
	"github.com/ternarybob/numerus/internal/interfaces"
)

// StrategyKind identifies how a strategy reads the page.
type StrategyKind string

const (
	// KindMetaAttribute reads an attribute of the first element matching
	// Selector (e.g. the og:description meta tag).
	KindMetaAttribute StrategyKind = "meta_attribute"

	// KindSelectorText reads the text of every element matching Selector.
	KindSelectorText StrategyKind = "selector_text"

	// KindSelectorScan reads the text of every element matching Selector,
	// keeping only texts that contain a digit and match LabelPattern when
	// one is set.
	KindSelectorScan StrategyKind = "selector_scan"

	// KindScript evaluates Script in the page; the script returns a JSON
	// array of candidate texts.
	KindScript StrategyKind = "script"

	// KindHTMLScan scans the full rendered HTML offline, collecting span,
	// div and anchor texts that contain a digit and match LabelPattern.
	// Runs without further page round-trips, so it is unit-testable
	// against static HTML.
	KindHTMLScan StrategyKind = "html_scan"
)

// Strategy is one extraction attempt, expressed as data rather than code so
// chains stay composable and selector churn is a data change.
type Strategy struct {
	Name         string       `yaml:"name"`
	Kind         StrategyKind `yaml:"kind"`
	Selector     string       `yaml:"selector,omitempty"`
	Attribute    string       `yaml:"attribute,omitempty"`
	Script       string       `yaml:"script,omitempty"`
	LabelPattern string       `yaml:"label_pattern,omitempty"`

	// LastResort strategies only run after the chain escalates to its
	// longer wait.
	LastResort bool `yaml:"last_resort,omitempty"`

	labelRe *regexp.Regexp
}

// label returns the compiled LabelPattern, compiling it on first use.
func (s *Strategy) label() (*regexp.Regexp, error) {
	if s.LabelPattern == "" {
		return nil, nil
	}
	if s.labelRe == nil {
		re, err := regexp.Compile(s.LabelPattern)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: bad label pattern: %w", s.Name, err)
		}
		s.labelRe = re
	}
	return s.labelRe, nil
}

// candidates collects raw text snippets this strategy believes contain the
// count. An empty slice is a normal result; errors are element lookup or
// script failures and let the chain move to the next strategy.
func (s *Strategy) candidates(ctx context.Context, page interfaces.Page) ([]string, error) {
	switch s.Kind {
	case KindMetaAttribute:
		return s.metaCandidates(ctx, page)
	case KindSelectorText:
		return s.textCandidates(ctx, page, false)
	case KindSelectorScan:
		return s.textCandidates(ctx, page, true)
	case KindScript:
		return s.scriptCandidates(ctx, page)
	case KindHTMLScan:
		html, err := page.OuterHTML(ctx)
		if err != nil {
			return nil, err
		}
		return s.scanHTML(html)
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", s.Kind)
	}
}

func (s *Strategy) metaCandidates(ctx context.Context, page interfaces.Page) ([]string, error) {
	elements, err := page.FindElements(ctx, s.Selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	value, ok, err := elements[0].Attribute(ctx, s.Attribute)
	if err != nil || !ok || value == "" {
		return nil, err
	}
	return []string{value}, nil
}

func (s *Strategy) textCandidates(ctx context.Context, page interfaces.Page, filtered bool) ([]string, error) {
	labelRe, err := s.label()
	if err != nil {
		return nil, err
	}

	elements, err := page.FindElements(ctx, s.Selector)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, el := range elements {
		text, err := el.Text(ctx)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if filtered {
			if !count.HasDigit(text) {
				continue
			}
			if labelRe != nil && !labelRe.MatchString(text) {
				continue
			}
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (s *Strategy) scriptCandidates(ctx context.Context, page interfaces.Page) ([]string, error) {
	var raw string
	if err := page.EvaluateScript(ctx, s.Script, &raw); err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, fmt.Errorf("strategy %s: script returned malformed JSON: %w", s.Name, err)
	}
	return texts, nil
}

// scanHTML is the offline label scan over a rendered document. Exposed via
// candidates for the chain and exercised directly in tests.
func (s *Strategy) scanHTML(html string) ([]string, error) {
	labelRe, err := s.label()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("strategy %s: parse html: %w", s.Name, err)
	}

	var texts []string
	doc.Find("span, div, a").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" || len(text) > 120 || !count.HasDigit(text) {
			return
		}
		if labelRe != nil && !labelRe.MatchString(text) {
			return
		}
		texts = append(texts, text)
	})
	return texts, nil
}
