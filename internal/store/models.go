// Package store contains the job descriptor persistence layer.
package store

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job descriptor.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusClaimed   JobStatus = "claimed"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents one unit of deferred work handed off to a worker.
//
// Status transitions only pending -> claimed -> completed|failed. A job is
// claimed by at most one worker; completed and failed are absorbing states.
type Job struct {
	ID uuid.UUID

	// Seq is a store-assigned insert sequence. FIFO claim order is
	// (CreatedAt, Seq) so equal timestamps still order deterministically.
	Seq int64

	Status JobStatus

	// InputKeys is the ordered set of object-store keys the job reads.
	InputKeys []string

	// OutputKey is set only once the job reaches a terminal status.
	OutputKey *string

	// Claimant identifies the worker holding the claim.
	Claimant *string

	ErrorMessage *string

	CreatedAt   time.Time
	ClaimedAt   *time.Time
	CompletedAt *time.Time
}
