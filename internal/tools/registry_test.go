package tools

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(name string) Tool {
	return Func{ToolName: name, Fn: func(_ context.Context, q string) (string, error) {
		return name + ":" + q, nil
	}}
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	require.True(t, r.Register(echo(ProductInfo)))
	tool, ok := r.Lookup(ProductInfo)
	require.True(t, ok)

	out, err := tool.Invoke(context.Background(), "iphone")
	require.NoError(t, err)
	assert.Equal(t, "get_product_info:iphone", out)

	_, ok = r.Lookup("Get_Product_Info")
	assert.False(t, ok, "lookup is exact")
}

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	first := Func{ToolName: WebSearch, Fn: func(context.Context, string) (string, error) { return "first", nil }}
	require.True(t, r.Register(first))
	assert.False(t, r.Register(echo(WebSearch)))

	tool, _ := r.Lookup(WebSearch)
	out, _ := tool.Invoke(context.Background(), "")
	assert.Equal(t, "first", out)
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(echo(WebSearch))
	r.Register(echo(ProductInfo))
	assert.Equal(t, []string{"get_product_info", "web_search"}, r.Names())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Register(echo("a"))
	r.Clear()
	assert.Equal(t, 0, r.Len())
	_, ok := r.Lookup("a")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Register(echo(fmt.Sprintf("tool-%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			r.Lookup(ProductInfo)
			r.Names()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, r.Len())
}
