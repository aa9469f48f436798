package version

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

type versionValue int

const (
	versionFalse versionValue = 0
	versionTrue  versionValue = 1
	versionRaw   versionValue = 2
	versionJSON  versionValue = 3
)

const (
	strRawVersion   = "raw"
	strJSONVersion  = "json"
	versionFlagName = "version"
)

var versionFlag = Version(versionFlagName, versionFalse, "Print version information and quit.")

func (v *versionValue) IsBoolFlag() bool {
	return true
}

func (v *versionValue) Get() any {
	return *v
}

func (v *versionValue) Set(s string) error {
	switch s {
	case strRawVersion:
		*v = versionRaw
		return nil
	case strJSONVersion:
		*v = versionJSON
		return nil
	}
	boolVal, err := strconv.ParseBool(s)
	if boolVal {
		*v = versionTrue
	} else {
		*v = versionFalse
	}
	return err
}

func (v *versionValue) String() string {
	switch *v {
	case versionRaw:
		return strRawVersion
	case versionJSON:
		return strJSONVersion
	default:
		return strconv.FormatBool(bool(*v == versionTrue))
	}
}

func (v *versionValue) Type() string {
	return "version"
}

// VersionVar defines a version flag on the global flag set.
func VersionVar(p *versionValue, name string, value versionValue, usage string) {
	*p = value
	pflag.Var(p, name, usage)
	// "--version" is treated as "--version=true".
	pflag.Lookup(name).NoOptDefVal = "true"
}

// Version wraps VersionVar and returns the flag value.
func Version(name string, value versionValue, usage string) *versionValue {
	p := new(versionValue)
	VersionVar(p, name, value, usage)
	return p
}

// AddFlags registers the version flag on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.AddFlag(pflag.Lookup(versionFlagName))
}

// PrintAndExitIfRequested prints the version and exits when --version was passed.
func PrintAndExitIfRequested() {
	switch *versionFlag {
	case versionRaw:
		fmt.Printf("%s\n", Get().Text())
		os.Exit(0)
	case versionJSON:
		fmt.Printf("%s\n", Get().ToJSON())
		os.Exit(0)
	case versionTrue:
		fmt.Printf("%s\n", Get())
		os.Exit(0)
	}
}
