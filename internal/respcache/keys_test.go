package respcache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyStable(t *testing.T) {
	a := url.Values{}
	a.Set("page", "1")
	a.Set("per_page", "100")

	b := url.Values{}
	b.Set("per_page", "100")
	b.Set("page", "1")

	assert.Equal(t, Key("/runs", a), Key("/runs", b), "parameter order must not affect the key")
}

func TestKeyDiscriminates(t *testing.T) {
	params := url.Values{}
	params.Set("page", "1")

	other := url.Values{}
	other.Set("page", "2")

	assert.NotEqual(t, Key("/runs", params), Key("/runs", other), "cursor must be part of the key")
	assert.NotEqual(t, Key("/runs", params), Key("/jobs", params), "endpoint must be part of the key")
}
