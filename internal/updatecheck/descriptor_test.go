package updatecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionDocument(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Descriptor
		wantErr bool
	}{
		{name: "number and build", body: `{"version":1,"build":"a"}`, want: "1-a"},
		{name: "timestamp keeps literal", body: `{"version":1719820800123,"build":"abc"}`, want: "1719820800123-abc"},
		{name: "string version", body: `{"version":"2024.07.01","build":"rc1"}`, want: "2024.07.01-rc1"},
		{name: "build absent", body: `{"version":100}`, want: "100"},
		{name: "build null", body: `{"version":100,"build":null}`, want: "100"},
		{name: "build empty", body: `{"version":100,"build":"  "}`, want: "100"},
		{name: "numeric build", body: `{"version":3,"build":7}`, want: "3-7"},
		{name: "version missing", body: `{"build":"a"}`, wantErr: true},
		{name: "version empty", body: `{"version":""}`, wantErr: true},
		{name: "version object", body: `{"version":{"major":1}}`, wantErr: true},
		{name: "build array", body: `{"version":1,"build":["a"]}`, wantErr: true},
		{name: "not json", body: `<html>maintenance</html>`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersionDocument([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedDocument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptorNeverContainsUndefined(t *testing.T) {
	got, err := ParseVersionDocument([]byte(`{"version":5}`))
	require.NoError(t, err)
	assert.NotContains(t, string(got), "undefined")
}
