// Package domain holds the engine's pure data types: Scenario, Step,
// Execution, StepResult, and AssertionResult. Nothing here performs I/O.
package domain
