package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"
)

type demoOptions struct {
	Name  string `mapstructure:"name"`
	Count int    `mapstructure:"count"`
}

type testOptions struct {
	Demo *demoOptions `mapstructure:"demo"`

	completed bool
}

func newTestOptions() *testOptions {
	return &testOptions{Demo: &demoOptions{Name: "default", Count: 1}}
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("demo")
	fs.StringVar(&o.Demo.Name, "demo.name", o.Demo.Name, "Demo name.")
	fs.IntVar(&o.Demo.Count, "demo.count", o.Demo.Count, "Demo count.")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	var errs []error
	if o.Demo.Count < 0 {
		errs = append(errs, errors.New("--demo.count must not be negative"))
	}
	return utilerrors.NewAggregate(errs)
}

func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})
}

func TestAppRunLoadsFlags(t *testing.T) {
	resetGlobals(t)

	opts := newTestOptions()
	var ran bool
	a := NewApp("demo", "Launch a demo", WithOptions(opts), WithSilence(), WithRunFunc(func() error {
		ran = true
		return nil
	}))

	cmd := a.Command()
	cmd.SetArgs([]string{"--demo.name=shop-1", "--demo.count=4"})
	require.NoError(t, cmd.Execute())

	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, "shop-1", opts.Demo.Name)
	assert.Equal(t, 4, opts.Demo.Count)
}

func TestAppRunEnvironmentOverride(t *testing.T) {
	resetGlobals(t)
	t.Setenv("VITRINE_DEMO_COUNT", "7")

	opts := newTestOptions()
	a := NewApp("demo", "Launch a demo", WithOptions(opts), WithSilence(), WithRunFunc(func() error { return nil }))

	cmd := a.Command()
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 7, opts.Demo.Count)
	assert.Equal(t, "default", opts.Demo.Name)
}

func TestAppRunConfigFile(t *testing.T) {
	resetGlobals(t)

	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("demo:\n  name: from-file\n"), 0o600))

	opts := newTestOptions()
	a := NewApp("demo", "Launch a demo", WithOptions(opts), WithSilence(), WithRunFunc(func() error { return nil }))

	cmd := a.Command()
	cmd.SetArgs([]string{"--config", path})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "from-file", opts.Demo.Name)
	assert.Equal(t, path, viper.ConfigFileUsed())
}

func TestAppRunValidationFailure(t *testing.T) {
	resetGlobals(t)

	opts := newTestOptions()
	var ran bool
	a := NewApp("demo", "Launch a demo", WithOptions(opts), WithSilence(), WithRunFunc(func() error {
		ran = true
		return nil
	}))

	cmd := a.Command()
	cmd.SetArgs([]string{"--demo.count=-1"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--demo.count")
	assert.False(t, ran)
}

func TestWithDefaultValidArgs(t *testing.T) {
	resetGlobals(t)

	a := NewApp("demo", "Launch a demo", WithNoConfig(), WithSilence(), WithDefaultValidArgs(), WithRunFunc(func() error { return nil }))

	cmd := a.Command()
	cmd.SetArgs([]string{"unexpected"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not take any arguments")
}

func TestFormatBaseName(t *testing.T) {
	assert.Equal(t, "vitrine-update-agent", FormatBaseName("/usr/local/bin/vitrine-update-agent"))
}
