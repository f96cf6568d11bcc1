package urlx_test

import (
	"testing"

	"github.com/rsnk/politecrawl/internal/urlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_StripsFragmentAndTrailingSlash(t *testing.T) {
	u, err := urlx.Canonicalize("HTTP://Example.COM/docs/page/#section-2")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)
	assert.Equal(t, "/docs/page", u.Path)
	assert.Equal(t, "", u.Fragment)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	u1, err := urlx.Canonicalize("http://example.com/a/b/")
	require.NoError(t, err)

	u2 := urlx.CanonicalizeURL(u1)
	assert.Equal(t, u1, u2)
}

func TestHash_SchemeAndFragmentAgnostic(t *testing.T) {
	a, err := urlx.Canonicalize("http://example.com/docs/page?x=1#top")
	require.NoError(t, err)
	b, err := urlx.Canonicalize("https://example.com/docs/page?x=1#bottom")
	require.NoError(t, err)

	assert.Equal(t, urlx.Hash(a), urlx.Hash(b))
}

func TestHash_QueryIsSignificant(t *testing.T) {
	a, err := urlx.Canonicalize("http://example.com/docs/page?x=1")
	require.NoError(t, err)
	b, err := urlx.Canonicalize("http://example.com/docs/page?x=2")
	require.NoError(t, err)

	assert.NotEqual(t, urlx.Hash(a), urlx.Hash(b))
}

func TestHash_TrailingSlashCollision(t *testing.T) {
	a, err := urlx.Canonicalize("http://example.com/docs")
	require.NoError(t, err)
	b, err := urlx.Canonicalize("http://example.com/docs/")
	require.NoError(t, err)

	assert.Equal(t, urlx.Hash(a), urlx.Hash(b))
}

func TestHashString(t *testing.T) {
	h1, err := urlx.HashString("http://example.com/docs/")
	require.NoError(t, err)
	h2, err := urlx.HashString("http://example.com/docs")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}
