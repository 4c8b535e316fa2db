// Package model defines the normalized row types shared between the
// parser, the pipeline orchestrator, and the store.
package model
