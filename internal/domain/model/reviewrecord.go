package model

import "time"

// ReviewRecord is an audit entry for a comment the bot posted: either a
// generated review or a model rejection. Records are write-only from the
// orchestrator's perspective; trigger decisions never consult them.
type ReviewRecord struct {
	ID            int64
	Host          string
	Repo          string
	RequestNumber int
	RequestTitle  string
	Model         string
	Rejected      bool // True when the record is a model-rejection comment.
	PostedAt      time.Time
}
