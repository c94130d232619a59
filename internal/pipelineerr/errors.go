// Package pipelineerr defines the typed failures reported by the analysis stages.
package pipelineerr

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes surfaced to callers alongside messages
const (
	CodeMissingColumns  = "E001"
	CodeInvalidData     = "E002"
	CodeFeatureCreation = "E003"
	CodeModelTraining   = "E004"
	CodePrediction      = "E005"
	CodeDataProcessing  = "E007"
	CodeUnknown         = "E000"
)

// SchemaError reports canonical fields that are absent after column mapping
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// ParseError describes a single row that could not be used.
// Rows failing to parse are dropped; the error is only reported in summaries.
type ParseError struct {
	Row   int
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s value %q", e.Row, e.Field, e.Value)
}

// StateError reports a stage invoked before the stage it depends on succeeded
type StateError struct {
	Stage string
	Need  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Need)
}

// InsufficientDataError reports too few rows for a window, horizon or split
type InsufficientDataError struct {
	What string
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d, need %d", e.What, e.Have, e.Need)
}

// UnknownModelTypeError reports a model type name outside the supported set
type UnknownModelTypeError struct {
	Name string
}

func (e *UnknownModelTypeError) Error() string {
	return fmt.Sprintf("unknown model type %q", e.Name)
}

// FeatureMismatchError reports required model features absent from a row
type FeatureMismatchError struct {
	Missing []string
}

func (e *FeatureMismatchError) Error() string {
	return "feature row lacks required features: " + strings.Join(e.Missing, ", ")
}

// Code maps an error to its stable error code
func Code(err error) string {
	var (
		schemaErr   *SchemaError
		parseErr    *ParseError
		stateErr    *StateError
		dataErr     *InsufficientDataError
		modelErr    *UnknownModelTypeError
		mismatchErr *FeatureMismatchError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &schemaErr):
		return CodeMissingColumns
	case errors.As(err, &parseErr):
		return CodeInvalidData
	case errors.As(err, &modelErr):
		return CodeModelTraining
	case errors.As(err, &mismatchErr):
		return CodePrediction
	case errors.As(err, &dataErr), errors.As(err, &stateErr):
		return CodeDataProcessing
	default:
		return CodeUnknown
	}
}
