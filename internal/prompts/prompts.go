// Package prompts holds the prompt templates the agent nodes render.
package prompts

import (
	"fmt"
	"regexp"
	"sync"
)

// Type identifies a registered template.
type Type int

const (
	ProductBot Type = iota
	Assistant
	Grader
	Rewriter
)

var typeNames = map[Type]string{
	ProductBot: "PRODUCT_BOT",
	Assistant:  "ASSISTANT",
	Grader:     "GRADER",
	Rewriter:   "REWRITER",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Template is a prompt with {name} placeholders.
type Template string

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Render substitutes vars into the template. Placeholders without a value
// are left intact; substituted text is never re-expanded.
func (t Template) Render(vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(string(t), func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Placeholders returns the placeholder names in order of first appearance.
func (t Template) Placeholders() []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(string(t), -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

const productBotTemplate = `You are an expert e-commerce assistant that answers questions about products.
Use only the product information and reviews in the context below. Quote prices,
ratings and review points when they are present. If the context does not contain
the answer, say that you don't know rather than guessing.

CONTEXT:
{context}

QUESTION: {question}

YOUR ANSWER:`

const assistantTemplate = "You are a helpful assistant. Answer the user directly.\n\nQuestion: {question}\nAnswer:"

const graderTemplate = "You are a grader. Question: {question}\nDocs: {docs}\n Are docs relevant to the question? Answer yes or no."

const rewriterTemplate = "Rewrite this user query to make it more clear and specific for a search engine. Do NOT answer the query. Only rewrite it.\n\nQuery: {question}\nRewritten Query:"

// Registry maps template types to templates. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[Type]Template
}

func builtins() map[Type]Template {
	return map[Type]Template{
		ProductBot: productBotTemplate,
		Assistant:  assistantTemplate,
		Grader:     graderTemplate,
		Rewriter:   rewriterTemplate,
	}
}

// NewRegistry returns a registry with the built-in templates.
func NewRegistry() *Registry {
	return &Registry{templates: builtins()}
}

// Get returns the template registered for t. Built-in types missing from
// the registry resolve to their built-in template, so the zero value and
// partially filled registries are usable.
func (r *Registry) Get(t Type) (Template, bool) {
	r.mu.RLock()
	tmpl, ok := r.templates[t]
	r.mu.RUnlock()
	if ok {
		return tmpl, true
	}
	tmpl, ok = builtins()[t]
	return tmpl, ok
}

// Set replaces the template for t.
func (r *Registry) Set(t Type, tmpl Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.templates == nil {
		r.templates = make(map[Type]Template)
	}
	r.templates[t] = tmpl
}

// MustGet is Get that panics when t has no template at all.
func (r *Registry) MustGet(t Type) Template {
	tmpl, ok := r.Get(t)
	if !ok {
		panic("prompts: no template for " + t.String())
	}
	return tmpl
}
