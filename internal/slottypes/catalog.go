// internal/slottypes/catalog.go
package slottypes

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"alexa-smapi-connector/internal/common/httpclient"
	"alexa-smapi-connector/internal/common/logger"
)

// ReferenceURL is the vendor documentation page listing built-in slot types
// with sample values, one section per language.
const ReferenceURL = "https://developer.amazon.com/de/docs/custom-skills/slot-type-reference.html"

// Languages enumerates the section anchors supported by the reference page.
var Languages = []string{"en-us", "en-gb", "en-in", "en-ca", "en-au", "de", "fr", "it", "es", "ja"}

//go:embed samples.json
var bundledSamplesJSON []byte

type bundledSamples struct {
	Builtin map[string]map[string][]string `json:"builtin"`
	Custom  map[string]map[string][]string `json:"custom"`
}

// Catalog loads slot-type sample values for a language: a live scrape of the
// reference page overlaid with the bundled tables. Bundled entries win on
// name collisions, built-in before custom so custom can shadow built-in.
type Catalog struct {
	logger     logger.Logger
	httpClient *httpclient.Client

	// referenceURL is swapped out by tests.
	referenceURL string
	scrape       bool
}

func NewCatalog(log logger.Logger) *Catalog {
	return &Catalog{
		logger:       log.WithFields(map[string]interface{}{"component": "slottypes"}),
		httpClient:   httpclient.New(30 * time.Second),
		referenceURL: ReferenceURL,
		scrape:       true,
	}
}

// SetReferenceURL overrides the scrape target. Used by tests.
func (c *Catalog) SetReferenceURL(u string) {
	c.referenceURL = u
}

// SetScrape disables the remote scrape, leaving only bundled samples.
func (c *Catalog) SetScrape(enabled bool) {
	c.scrape = enabled
}

// Load returns the merged slot-type sample table for a language id such as
// "en-us" or "de". Bundled buckets are matched by language prefix. A scrape
// failure fails the whole load; the caller decides whether that is fatal.
func (c *Catalog) Load(ctx context.Context, languageID string) (map[string][]string, error) {
	if !isSupportedLanguage(languageID) {
		return nil, fmt.Errorf("unsupported slot type language %q (supported: %s)",
			languageID, strings.Join(Languages, ", "))
	}

	merged := map[string][]string{}

	if c.scrape {
		scraped, err := c.downloadSlotTypes(ctx, languageID)
		if err != nil {
			return nil, fmt.Errorf("failed to download slot types from %s: %w", c.referenceURL, err)
		}
		for name, samples := range scraped {
			merged[name] = samples
		}
		c.logger.Debug("downloaded slot types", map[string]interface{}{
			"language": languageID,
			"count":    len(scraped),
		})
	}

	var bundled bundledSamples
	if err := json.Unmarshal(bundledSamplesJSON, &bundled); err != nil {
		return nil, fmt.Errorf("corrupt bundled slot type samples: %w", err)
	}

	// Built-in before custom: a custom entry of the same name wins, a
	// different key never erases a built-in.
	for name, samples := range languageBucket(bundled.Builtin, languageID) {
		merged[name] = samples
	}
	for name, samples := range languageBucket(bundled.Custom, languageID) {
		merged[name] = samples
	}

	c.logger.Debug("loaded slot type samples", map[string]interface{}{
		"language": languageID,
		"types":    len(merged),
	})
	return merged, nil
}

// languageBucket picks the bucket whose key prefixes the language id, so
// "en-us" matches the "en" bucket.
func languageBucket(buckets map[string]map[string][]string, languageID string) map[string][]string {
	var bestKey string
	for key := range buckets {
		if strings.HasPrefix(languageID, key) && len(key) > len(bestKey) {
			bestKey = key
		}
	}
	if bestKey == "" {
		return nil
	}
	return buckets[bestKey]
}

func isSupportedLanguage(languageID string) bool {
	for _, l := range Languages {
		if l == languageID {
			return true
		}
	}
	return false
}

// downloadSlotTypes scrapes the reference page: the table following the
// section anchor for the language id; column 1 holds the type name, column 3
// the sample list values.
func (c *Catalog) downloadSlotTypes(ctx context.Context, languageID string) (map[string][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.referenceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reference page returned status %d: %s", resp.StatusCode, string(body))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unparseable reference page: %w", err)
	}

	table := tableAfterAnchor(doc, languageID)
	if table == nil {
		return nil, fmt.Errorf("no slot type table found for language %q", languageID)
	}

	slotTypes := map[string][]string{}
	for _, row := range elementsByTag(table, "tr") {
		cells := elementsByTag(row, "td")
		if len(cells) < 3 {
			continue
		}
		name := strings.TrimSpace(nodeText(cells[0]))
		if name == "" {
			continue
		}
		var samples []string
		for _, li := range elementsByTag(cells[2], "li") {
			if s := strings.TrimSpace(nodeText(li)); s != "" {
				samples = append(samples, s)
			}
		}
		slotTypes[name] = samples
	}
	return slotTypes, nil
}

// tableAfterAnchor returns the first table element appearing after the node
// carrying the given id attribute, in document order.
func tableAfterAnchor(doc *html.Node, anchorID string) *html.Node {
	var table *html.Node
	anchorSeen := false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if table != nil {
			return
		}
		if n.Type == html.ElementNode {
			if attrValue(n, "id") == anchorID {
				anchorSeen = true
			}
			if anchorSeen && n.Data == "table" {
				table = n
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return table
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func elementsByTag(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
			// a nested li inside an li still counts, table rows never nest
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
