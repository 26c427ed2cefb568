package extraction

import (
	"testing"

	"souschef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Kind
	}{
		{"instagram post", "https://www.instagram.com/p/ABC123/", KindInstagram},
		{"instagram reel", "https://instagram.com/reel/xY_z-9", KindInstagram},
		{"instagram tv", "http://instagram.com/tv/Q1w2e3", KindInstagram},
		{"instagram profile", "https://www.instagram.com/chef_name/", KindWebPage},
		{"recipe site", "https://www.allrecipes.com/recipe/123/pancakes/", KindRecipeSite},
		{"recipe site subdomain", "https://cooking.nytimes.com/recipes/1018684", KindRecipeSite},
		{"lookalike host", "https://notallrecipes.com/recipe/1", KindWebPage},
		{"generic page", "https://example.com/my-grandmas-soup", KindWebPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, u, err := ClassifyURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
			assert.NotNil(t, u)
		})
	}
}

func TestClassifyURLRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a url", "ftp://example.com/file", "https://", "javascript:alert(1)"} {
		_, _, err := ClassifyURL(raw)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, common.ErrInvalidURL, raw)
	}
}

func TestInstagramShortcode(t *testing.T) {
	_, u, err := ClassifyURL("https://www.instagram.com/reel/CxYz_12-a/?igsh=abc")
	require.NoError(t, err)
	assert.Equal(t, "CxYz_12-a", InstagramShortcode(u))

	_, u, err = ClassifyURL("https://example.com/p/abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", InstagramShortcode(u))

	_, u, err = ClassifyURL("https://example.com/about")
	require.NoError(t, err)
	assert.Empty(t, InstagramShortcode(u))
}

func TestSupportedDomains(t *testing.T) {
	domains := SupportedDomains()
	require.NotEmpty(t, domains)

	domains[0].Domain = "changed.example"
	assert.NotEqual(t, "changed.example", SupportedDomains()[0].Domain)

	assert.True(t, IsSupportedDomain("BBCGoodFood.com"))
	assert.True(t, IsSupportedDomain("www.seriouseats.com."))
	assert.False(t, IsSupportedDomain("example.com"))
}
