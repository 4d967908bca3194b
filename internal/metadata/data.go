package metadata

import (
	"time"
)

/*
crawlStats
  - Represents a terminal, derived summary of a completed crawl
  - Contains only aggregate counts and durations
  - Is computed by the scheduler after crawl termination
  - Is recorded exactly once
  - Must not influence scheduling or crawl termination
*/
type crawlStats struct {
	totalPages  int
	totalErrors int
	duration    time.Duration
}

type ArtifactKind string

const (
	ArtifactIndex       ArtifactKind = "index"
	ArtifactArchivePage ArtifactKind = "archive_page"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for continuation or abort decisions.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

  - Failure caused by network transport or remote availability.
  - Connection refused, DNS failure, timeouts, non-2xx responses.

# CauseContentInvalid

  - Content was fetched but could not be processed meaningfully.
  - Unparseable documents, unreadable bodies, corrupt index files.

# CauseStorageFailure

  - Failure while persisting the index or archived pages.

# CauseInvariantViolation

  - A system-level invariant was violated.
  - Panicking crawl tasks, permit acquisition failures.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrDepth      AttributeKey = "depth"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
)
