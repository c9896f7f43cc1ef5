package report

import "fmt"

// AggregationError wraps a failure inside one derivation stage (normalizing,
// filtering, grouping or ratio computation). The two derivations (daily chart
// and entity table) fail independently; an AggregationError from one must not
// take down the other.
type AggregationError struct {
	Stage string
	Cause error
}

func (e *AggregationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("aggregation failed in %s stage", e.Stage)
	}
	return fmt.Sprintf("aggregation failed in %s stage: %v", e.Stage, e.Cause)
}

func (e *AggregationError) Unwrap() error { return e.Cause }

// ConfigError marks an invalid pipeline configuration, such as a non-positive
// page size. It signals a programming mistake, not bad user input.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "invalid report config: " + e.Msg }
