// Package simconfig loads driver configuration for the road network
// simulator with priority env > file > defaults.
//
// The YAML file mirrors the option structs of the library packages
// (segment.StoreOptions, congestion.Options, planner.Options) plus the
// driver's own knobs (tick count, random seed, overlay listen address).
// Any ROADSIM_* environment variable overrides the corresponding file
// value; a missing file is not an error.
package simconfig
