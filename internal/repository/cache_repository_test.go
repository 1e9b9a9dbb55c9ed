package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]int

	assert.ErrorIs(t, repo.Get(context.Background(), "progress:st-1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "progress:st-1", map[string]int{"progress": 50}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "progress:*"))
	assert.NoError(t, repo.Close())
}

func TestCacheKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "postgrad:progress:st-1", namespacedKey("progress:st-1"))
	assert.Equal(t, "postgrad:progress:st-1*", namespacedKey("progress:st-1*"))
}
