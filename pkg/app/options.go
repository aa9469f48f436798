package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// CliOptions abstracts configuration options for reading parameters from the command line.
type CliOptions interface {
	// Flags returns the flags grouped by section, printed as such in --help.
	Flags() cliflag.NamedFlagSets
}

// NamedFlagSetOptions are options that can be completed and validated after parsing.
type NamedFlagSetOptions interface {
	CliOptions

	// Complete fills derived or defaulted fields.
	Complete() error

	// Validate checks the options and aggregates every problem found.
	Validate() error
}
