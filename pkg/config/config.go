package config

import (
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for merkletool configuration
const (
	EnvTreeDepth = "MERKLETREE_DEPTH"
	EnvVerbose   = "MERKLETREE_VERBOSE"
)

const (
	// DefaultTreeDepth is the reference tree depth (capacity 65536 leaves per tree).
	DefaultTreeDepth = 16

	// MaxTreeDepth bounds the depth so per-tree capacity and proof index
	// arithmetic stay within native integer ranges.
	MaxTreeDepth = 32
)

// Config holds the shared parameters of a forest and its pools.
type Config struct {
	// TreeDepth is the fixed depth of every tree in every pool.
	TreeDepth int

	// Verbose enables debug logging.
	Verbose bool
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		TreeDepth: DefaultTreeDepth,
	}
}

// Capacity returns the leaf capacity of a single tree, 2^TreeDepth.
func (c *Config) Capacity() int {
	return 1 << c.TreeDepth
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() field.ErrorList {
	var allErrors field.ErrorList

	if c.TreeDepth < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("treeDepth"), c.TreeDepth, "tree depth must be at least 1"))
	}
	if c.TreeDepth > MaxTreeDepth {
		allErrors = append(allErrors, field.Invalid(field.NewPath("treeDepth"), c.TreeDepth, "tree depth must not exceed 32"))
	}

	return allErrors
}
