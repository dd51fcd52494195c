// Package export holds the render sinks: the components that turn a rendered
// document into an artifact (PDF, spreadsheet), a share link or a print job.
package export

import (
	"context"
	"errors"
)

// Outcome is the result of handing a document to a sink.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Sink names, used as metric labels and in job payloads.
const (
	SinkPDF   = "pdf"
	SinkXLSX  = "xlsx"
	SinkShare = "share"
	SinkPrint = "print"
)

// OutcomeOf classifies the error returned by a sink. Only an explicit
// cancellation counts as cancelled; deadlines are failures.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// Artifact is a rendered file.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeHTML = "text/html; charset=utf-8"
)
