package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeLoader represents graph payload parsing errors
	ErrorTypeLoader ErrorType = "loader"
	// ErrorTypeLayout represents force simulation errors
	ErrorTypeLayout ErrorType = "layout"
	// ErrorTypeRender represents render surface errors
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeInteraction represents drag/zoom gesture errors
	ErrorTypeInteraction ErrorType = "interaction"
	// ErrorTypeNavigation represents fragment navigation errors
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeTransport represents fragment fetch errors
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeLifecycle represents container binding errors
	ErrorTypeLifecycle ErrorType = "lifecycle"
	// ErrorTypeContent represents content source errors
	ErrorTypeContent ErrorType = "content"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrorType reports the category. Promoted through every typed error below.
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Loader Errors

// ErrMalformedPayload is returned when a nodes/edges attribute is not valid JSON
type ErrMalformedPayload struct {
	*BaseError
	Attribute string
}

func NewMalformedPayload(attribute string, err error) *ErrMalformedPayload {
	return &ErrMalformedPayload{
		BaseError: NewBaseError(ErrorTypeLoader, fmt.Sprintf("malformed %s payload", attribute), err),
		Attribute: attribute,
	}
}

// Layout Errors

// ErrDanglingLink is returned when a link names a node id that is not in the node set
type ErrDanglingLink struct {
	*BaseError
	Source  string
	Target  string
	Missing string
}

func NewDanglingLink(source, target, missing string) *ErrDanglingLink {
	return &ErrDanglingLink{
		BaseError: NewBaseError(ErrorTypeLayout, fmt.Sprintf("link %s->%s references unknown node %q", source, target, missing), nil),
		Source:    source,
		Target:    target,
		Missing:   missing,
	}
}

// ErrUnknownNode is returned when an operation names a node the simulation does not hold
type ErrUnknownNode struct {
	*BaseError
	NodeID string
}

func NewUnknownNode(nodeID string) *ErrUnknownNode {
	return &ErrUnknownNode{
		BaseError: NewBaseError(ErrorTypeLayout, fmt.Sprintf("unknown node: %s", nodeID), nil),
		NodeID:    nodeID,
	}
}

// Interaction Errors

// ErrAlreadyDragging is returned when a second node is grabbed while one is held
type ErrAlreadyDragging struct {
	*BaseError
	Held      string
	Requested string
}

func NewAlreadyDragging(held, requested string) *ErrAlreadyDragging {
	return &ErrAlreadyDragging{
		BaseError: NewBaseError(ErrorTypeInteraction, fmt.Sprintf("node %s is already being dragged, cannot grab %s", held, requested), nil),
		Held:      held,
		Requested: requested,
	}
}

// ErrNotDragging is returned when a drag move or end arrives with no node held
var ErrNotDragging = NewBaseError(ErrorTypeInteraction, "no node is being dragged", nil)

// Navigation Errors

// ErrNoContentReference is returned when a clicked node carries no file path
var ErrNoContentReference = NewBaseError(ErrorTypeNavigation, "node has no content reference", nil)

// ErrStaleNavigation is returned when a newer click superseded an in-flight fetch
var ErrStaleNavigation = NewBaseError(ErrorTypeNavigation, "navigation superseded by a newer request", nil)

// Transport Errors

// ErrFetchFailed is returned when a fragment request fails or answers non-2xx
type ErrFetchFailed struct {
	*BaseError
	URL        string
	StatusCode int
}

func NewFetchFailed(url string, statusCode int, err error) *ErrFetchFailed {
	msg := fmt.Sprintf("fragment fetch failed: %s", url)
	if statusCode != 0 {
		msg = fmt.Sprintf("fragment fetch failed: %s (status %d)", url, statusCode)
	}
	return &ErrFetchFailed{
		BaseError:  NewBaseError(ErrorTypeTransport, msg, err),
		URL:        url,
		StatusCode: statusCode,
	}
}

// ErrSwapTargetNotFound is returned when the fragment target is missing from the document
type ErrSwapTargetNotFound struct {
	*BaseError
	TargetID string
}

func NewSwapTargetNotFound(targetID string) *ErrSwapTargetNotFound {
	return &ErrSwapTargetNotFound{
		BaseError: NewBaseError(ErrorTypeTransport, fmt.Sprintf("swap target not found: #%s", targetID), nil),
		TargetID:  targetID,
	}
}

// Lifecycle Errors

// ErrContainerNotFound is returned when initialization names a missing container
type ErrContainerNotFound struct {
	*BaseError
	ContainerID string
}

func NewContainerNotFound(containerID string) *ErrContainerNotFound {
	return &ErrContainerNotFound{
		BaseError:   NewBaseError(ErrorTypeLifecycle, fmt.Sprintf("container not found: #%s", containerID), nil),
		ContainerID: containerID,
	}
}

// Content Errors

// ErrPostNotFound is returned when a content source has no post at a path
type ErrPostNotFound struct {
	*BaseError
	FilePath string
}

func NewPostNotFound(filePath string) *ErrPostNotFound {
	return &ErrPostNotFound{
		BaseError: NewBaseError(ErrorTypeContent, fmt.Sprintf("post not found: %s", filePath), nil),
		FilePath:  filePath,
	}
}

// ErrContentQueryFailed is returned when the content store rejects a query
type ErrContentQueryFailed struct {
	*BaseError
	Query string
}

func NewContentQueryFailed(query string, err error) *ErrContentQueryFailed {
	return &ErrContentQueryFailed{
		BaseError: NewBaseError(ErrorTypeContent, "content query failed", err),
		Query:     query,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("invalid config %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

type typed interface {
	ErrorType() ErrorType
}

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if t, ok := err.(typed); ok && t.ErrorType() == errType {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	if fetchErr, ok := err.(*ErrFetchFailed); ok {
		// No status means the request never completed
		return fetchErr.StatusCode == 0 || fetchErr.StatusCode >= 500
	}
	return IsErrorType(err, ErrorTypeContent)
}
