// Package collections registers the storefront collections with the core registry.
// Import this package to ensure all collections are registered.
package collections

// This file exists to provide a single import point.
// Each collection file uses init() to register its collections.
