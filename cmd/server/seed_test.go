package main

import (
	"context"
	"os"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctors-portal-api/internal/store/memstore"
)

func TestSeedCatalogFile(t *testing.T) {
	raw, err := os.ReadFile("../../db/seed/catalog.json")
	require.NoError(t, err)
	var c catalog
	require.NoError(t, json.Unmarshal(raw, &c))
	require.NotEmpty(t, c.Services)

	st := memstore.New()
	added, skipped, err := seed(context.Background(), st, c)
	require.NoError(t, err)
	assert.Equal(t, len(c.Services)+len(c.Doctors), added)
	assert.Zero(t, skipped)

	added, skipped, err = seed(context.Background(), st, c)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, len(c.Services)+len(c.Doctors), skipped)

	svcs, err := st.ListServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, svcs, len(c.Services))
}
