// Package types defines the shared domain types for the SRI invoice
// notifier: environments, voucher statuses, the notification request that
// travels through the queue, and the status-change message published by the
// stream processor.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Environment selects which SRI environment a voucher belongs to. It decides
// the document bucket and the wording of the outbound email.
type Environment string

const (
	EnvTest       Environment = "test"
	EnvProduction Environment = "production"
)

// ParseEnvironment maps a raw environment string to an Environment.
// Anything other than "production" is treated as test, matching the
// defaulting rule for inbound payloads.
func ParseEnvironment(s string) Environment {
	if Environment(s) == EnvProduction {
		return EnvProduction
	}
	return EnvTest
}

// Label returns the human-facing environment label used in subjects and the
// rendered summary: "PRODUCTION" for the production environment, "TEST"
// otherwise.
func (e Environment) Label() string {
	if e == EnvProduction {
		return "PRODUCTION"
	}
	return "TEST"
}

// Voucher status values observed on the change stream.
const (
	StatusReceived   = "RECEIVED"
	StatusProcessing = "PROCESSING"
	StatusAuthorized = "AUTHORIZED"
)

// EventTypeStatusChange is the eventType stamped on every forwarded
// status-change message and mirrored as a message attribute for subscriber
// filtering.
const EventTypeStatusChange = "STATUS_CHANGE"

// Access key layout. The key is a 49-digit string; the 13 characters at
// offset 10 are the RUC of the issuing legal entity.
//
//	ddmmyyyy tt rrrrrrrrrrrrr e sss ppp sssssssss c
//	01022026 01 1719004218001 1 001 100 000000001 1
const (
	AccessKeyLength = 49
	entityIDOffset  = 10
	entityIDLength  = 13
)

// EntityID extracts the issuing entity's RUC from an access key. Keys of the
// wrong length fail with validation_access_key_length; an empty key fails
// with validation_missing_access_key.
func EntityID(accessKey string) (string, error) {
	if accessKey == "" {
		return "", NewAppError(ErrCodeValidationMissingAccessKey, "access key is empty", nil)
	}
	if len(accessKey) != AccessKeyLength {
		return "", NewAppError(
			ErrCodeValidationAccessKeyLength,
			fmt.Sprintf("access key must be %d characters, got %d", AccessKeyLength, len(accessKey)),
			nil,
		)
	}
	return accessKey[entityIDOffset : entityIDOffset+entityIDLength], nil
}

// NotificationRequest is the unit of work consumed by the dispatch
// coordinator. It arrives as the JSON body of a queue message, either
// published by the stream processor or submitted directly.
type NotificationRequest struct {
	AccessKey   string      `json:"accessKey"`
	Environment Environment `json:"environment,omitempty"`
	EventType   string      `json:"eventType,omitempty"`
	Status      string      `json:"status,omitempty"`
	Timestamp   string      `json:"timestamp,omitempty"`

	// Subject and Body override the default email wording when present.
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// DecodeNotificationRequest parses a queue message body into a
// NotificationRequest. A malformed body yields a request with an empty
// access key rather than an error; the coordinator records the resulting
// validation failure against the item instead of aborting the batch. The
// environment always defaults to test when absent.
func DecodeNotificationRequest(body string) NotificationRequest {
	var req NotificationRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		req = NotificationRequest{}
	}
	req.Environment = ParseEnvironment(string(req.Environment))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Body = strings.TrimSpace(req.Body)
	return req
}

// Snapshot is the per-record view of a voucher on the change stream, before
// or after the change.
type Snapshot struct {
	Status    string
	AccessKey string
}

// StatusChange is the message handed off to the downstream queue or topic
// when a voucher reaches AUTHORIZED.
type StatusChange struct {
	EventType   string      `json:"eventType"`
	Status      string      `json:"status"`
	AccessKey   string      `json:"accessKey"`
	Environment Environment `json:"environment"`
	Timestamp   string      `json:"timestamp"`
}
