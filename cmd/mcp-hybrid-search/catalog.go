package main

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Product is one catalog entry.
type Product struct {
	Name        string   `yaml:"name"`
	Price       float64  `yaml:"price"`
	Currency    string   `yaml:"currency,omitempty"`
	Rating      float64  `yaml:"rating,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Reviews     []string `yaml:"reviews,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// Catalog answers product lookups by token overlap.
type Catalog struct {
	products []Product
	index    []map[string]int // per product: token -> weight
}

// LoadCatalog reads a YAML catalog; an empty path loads the built-in one.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a Catalog from YAML bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{products: doc.Products}
	for _, p := range doc.Products {
		idx := map[string]int{}
		for _, tok := range tokenize(p.Name) {
			idx[tok] += 3
		}
		for _, tag := range p.Tags {
			for _, tok := range tokenize(tag) {
				idx[tok] += 2
			}
		}
		for _, tok := range tokenize(p.Description) {
			idx[tok]++
		}
		c.index = append(c.index, idx)
	}
	return c, nil
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Search returns up to limit products ranked by weighted token overlap.
// Generic shopping words do not count toward a match.
func (c *Catalog) Search(query string, limit int) []Product {
	type hit struct {
		i     int
		score int
	}
	var hits []hit
	terms := tokenize(query)
	for i, idx := range c.index {
		score := 0
		for _, t := range terms {
			if stopwords[t] {
				continue
			}
			score += idx[t]
		}
		if score > 0 {
			hits = append(hits, hit{i, score})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, c.products[h.i])
	}
	return out
}

// Format renders products one block per product, e.g.
// "iPhone 16: $799, 4.5 stars".
func Format(products []Product) string {
	var b strings.Builder
	for i, p := range products {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %s", p.Name, formatPrice(p))
		if p.Rating > 0 {
			fmt.Fprintf(&b, ", %.1f stars", p.Rating)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "\n%s", p.Description)
		}
		for _, r := range p.Reviews {
			fmt.Fprintf(&b, "\n- %q", r)
		}
	}
	return b.String()
}

func formatPrice(p Product) string {
	amount := fmt.Sprintf("%.2f", p.Price)
	amount = strings.TrimSuffix(amount, ".00")
	switch p.Currency {
	case "", "USD":
		return "$" + amount
	default:
		return amount + " " + p.Currency
	}
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true, "is": true,
	"what": true, "whats": true, "how": true, "much": true, "does": true,
	"price": true, "review": true, "reviews": true, "product": true,
	"cost": true, "me": true, "tell": true, "about": true, "and": true,
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
