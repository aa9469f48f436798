package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo(t *testing.T) {
	info := Get()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, GitVersion, info.String())

	var decoded Info
	require.NoError(t, json.Unmarshal([]byte(info.ToJSON()), &decoded))
	assert.Equal(t, info, decoded)

	text := info.Text()
	assert.Contains(t, text, "gitVersion:")
	assert.Contains(t, text, info.Platform)
}

func TestVersionValue(t *testing.T) {
	var v versionValue
	for in, want := range map[string]versionValue{
		"raw":   versionRaw,
		"json":  versionJSON,
		"true":  versionTrue,
		"false": versionFalse,
	} {
		require.NoError(t, v.Set(in))
		assert.Equal(t, want, v)
		assert.Equal(t, in, v.String())
	}
	assert.Error(t, v.Set("maybe"))
}
