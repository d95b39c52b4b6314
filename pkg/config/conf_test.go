package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOrCreateWritesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "confhome")

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 200, c.Anomaly.Trees)
	assert.Equal(t, 0.08, c.Anomaly.Contamination)
	assert.Equal(t, 3, c.Cluster.Clusters)
	assert.Equal(t, "full", c.Model.Aggregation)
	assert.Equal(t, 70.0, c.Risk.Thresholds.High)

	_, err = os.Stat(filepath.Join(dir, configFileName))
	assert.NoError(t, err)
}

func TestReadOrCreateRoundTrip(t *testing.T) {
	dir := t.TempDir()

	c := Default()
	c.Seed = 7
	c.Model.Aggregation = "leave-one-out"
	c.Risk.Order.DelayDays = 20
	require.NoError(t, Save(dir, c))

	got, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Seed)
	assert.Equal(t, "leave-one-out", got.Model.Aggregation)
	assert.Equal(t, 20.0, got.Risk.Order.DelayDays)
	assert.Equal(t, c.Risk.Order.PriorityWeights, got.Risk.Order.PriorityWeights)
}

func TestReadOrCreateKeepsExisting(t *testing.T) {
	dir := t.TempDir()

	c := Default()
	c.Seed = 99
	require.NoError(t, Save(dir, c))

	got, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Seed)
}

func TestSaveValidation(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestReadOrCreateBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(":\tnot yaml"), 0600))

	_, err := ReadOrCreate(dir)
	assert.Error(t, err)
}
