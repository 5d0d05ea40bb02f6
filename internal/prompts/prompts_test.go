package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tmpl := Template("Q: {question}\nC: {context}\nX: {unknown}")
	got := tmpl.Render(map[string]string{
		"question": "price of {context}?",
		"context":  "iPhone 16: $799",
	})
	assert.Equal(t, "Q: price of {context}?\nC: iPhone 16: $799\nX: {unknown}", got)
}

func TestPlaceholders(t *testing.T) {
	tmpl := Template("{a} {b} {a}")
	assert.Equal(t, []string{"a", "b"}, tmpl.Placeholders())
}

func TestBuiltins(t *testing.T) {
	r := NewRegistry()

	pb, ok := r.Get(ProductBot)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"context", "question"}, pb.Placeholders())

	assert.Equal(t, []string{"question", "docs"}, r.MustGet(Grader).Placeholders())
	assert.Equal(t, []string{"question"}, r.MustGet(Rewriter).Placeholders())
	assert.Equal(t,
		"You are a helpful assistant. Answer the user directly.\n\nQuestion: hi\nAnswer:",
		r.MustGet(Assistant).Render(map[string]string{"question": "hi"}))
}

func TestSetOverrides(t *testing.T) {
	r := NewRegistry()
	r.Set(ProductBot, "{question} -> {context}")
	assert.Equal(t, "q -> c", r.MustGet(ProductBot).Render(map[string]string{"question": "q", "context": "c"}))
}

func TestPartialRegistryFallsBackToBuiltins(t *testing.T) {
	var r Registry
	r.Set(Grader, "{question}?")

	assert.Equal(t, Template("{question}?"), r.MustGet(Grader))
	assert.Equal(t, NewRegistry().MustGet(ProductBot), r.MustGet(ProductBot))
	assert.NotPanics(t, func() { r.MustGet(Rewriter) })
}

func TestMustGetUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { NewRegistry().MustGet(Type(42)) })
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "PRODUCT_BOT", ProductBot.String())
	assert.Equal(t, "Type(9)", Type(9).String())
}
