package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "https://shop.example.com/ar"

func TestClassify(t *testing.T) {
	c := New(Options{
		TopPriorityPaths: []string{
			"/ar/sub-category/computing",
			"https://shop.example.com/ar/sub-category/Fashion-",
		},
	})

	tests := []struct {
		name string
		url  string
		want Classification
	}{
		{name: "root", url: root, want: Classification{"1.0", "daily"}},
		{name: "root with slash", url: root + "/", want: Classification{"1.0", "daily"}},
		{name: "top path", url: root + "/sub-category/computing", want: Classification{"1.0", "daily"}},
		{name: "top absolute url", url: root + "/sub-category/Fashion-", want: Classification{"1.0", "daily"}},
		{name: "sub-category", url: root + "/sub-category/toys-baby", want: Classification{"0.9", "weekly"}},
		{name: "category", url: root + "/category/phones", want: Classification{"0.9", "weekly"}},
		{name: "category upper-case", url: root + "/Category/phones", want: Classification{"0.9", "weekly"}},
		{name: "product", url: root + "/product/galaxy-s24", want: Classification{"0.8", "weekly"}},
		{name: "item", url: root + "/item/42", want: Classification{"0.8", "weekly"}},
		{name: "default", url: root + "/contact-us", want: Classification{"0.6", "weekly"}},
		{name: "marker without trailing slash", url: root + "/product", want: Classification{"0.6", "weekly"}},
		{name: "unparseable", url: "http://[::1", want: Classification{"0.6", "weekly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.url, root))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New(DefaultOptions())
	u := root + "/sub-category/product/1"
	first := c.Classify(u, root)
	for range 10 {
		assert.Equal(t, first, c.Classify(u, root))
	}
	// category is evaluated before product
	assert.Equal(t, PriorityCategory, first.Priority)
}

func TestRuleOrderIsFixed(t *testing.T) {
	rules := New(DefaultOptions()).Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, []string{"top", "category", "product"}, []string{rules[0].Name, rules[1].Name, rules[2].Name})
	assert.Equal(t, MatchExact, rules[0].Kind)
	assert.Equal(t, MatchPathContains, rules[1].Kind)
}

func TestCustomRuleTable(t *testing.T) {
	c := NewWithRules([]Rule{
		{Name: "blog", Kind: MatchPathContains, Values: []string{"/blog/"}, Result: Classification{"0.7", "daily"}},
		{Name: "broad", Kind: MatchPathContains, Values: []string{"/"}, Result: Classification{"0.5", "monthly"}},
	}, Classification{"0.1", "yearly"})

	assert.Equal(t, Classification{"0.7", "daily"}, c.Classify("https://a.com/blog/post", "https://a.com"))
	assert.Equal(t, Classification{"0.5", "monthly"}, c.Classify("https://a.com/other", "https://a.com"))
	assert.Equal(t, Classification{"0.1", "yearly"}, c.Classify("https://a.com", "https://a.com"))
}

func TestOtherRootIsNotTop(t *testing.T) {
	c := New(DefaultOptions())
	assert.Equal(t, PriorityDefault, c.Classify("https://shop.example.com/en", root).Priority)
}
