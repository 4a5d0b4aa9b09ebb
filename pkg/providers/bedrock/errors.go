package bedrock

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/logging"

	"github.com/inercia/go-bedrock/pkg/llm"
)

// failure classifies a Bedrock service error code
type failure int

const (
	failureOther failure = iota
	failureAccessDenied
	failureModelNotFound
	failureThrottled
)

// serviceErrorCodes maps the service error codes we give specific messages
// for. Codes not listed here are failureOther.
var serviceErrorCodes = map[string]failure{
	"AccessDeniedException":     failureAccessDenied,
	"ResourceNotFoundException": failureModelNotFound,
	"ThrottlingException":       failureThrottled,
	"TooManyRequestsException":  failureThrottled,
}

// classify returns the service error wrapped by err, if any, and its class
func classify(err error) (smithy.APIError, failure, bool) {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return nil, failureOther, false
	}
	return apiErr, serviceErrorCodes[apiErr.ErrorCode()], true
}

func apiErrorMessage(apiErr smithy.APIError) string {
	if msg := apiErr.ErrorMessage(); msg != "" {
		return msg
	}
	return apiErr.Error()
}

// statusCode returns the HTTP status of the response that produced err, or 0
func statusCode(err error) int {
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		return withStatus.HTTPStatusCode()
	}
	return 0
}

// invokeError converts an InvokeModel failure
func (m *Manager) invokeError(modelID string, err error) error {
	apiErr, kind, ok := classify(err)
	if !ok {
		return m.report(llm.NewClientError(llm.CodeUnexpectedError,
			fmt.Sprintf("Unexpected error invoking model %s: %v", modelID, err), err), err)
	}

	code, msg := apiErr.ErrorCode(), apiErrorMessage(apiErr)
	switch kind {
	case failureAccessDenied:
		return m.report(llm.NewClientError(llm.CodeAccessDenied,
			fmt.Sprintf("Access denied to model %s. "+
				"Ensure your IAM role/user has bedrock:InvokeModel permission "+
				"and the model is enabled in region %s.\nError: %s", modelID, m.Region(), msg), err), err)
	case failureModelNotFound:
		return m.report(llm.NewClientError(llm.CodeModelNotFound,
			fmt.Sprintf("Model %s not found in region %s. "+
				"Verify the model ID and ensure it's available in your region.\nError: %s", modelID, m.Region(), msg), err), err)
	case failureThrottled:
		return m.report(llm.NewClientError(llm.CodeThrottled,
			fmt.Sprintf("Request throttled for model %s. "+
				"Consider implementing exponential backoff or requesting a quota increase.\nError: %s", modelID, msg), err), err)
	default:
		return m.report(llm.NewClientError(llm.CodeServiceError,
			fmt.Sprintf("Failed to invoke model %s: [%s] %s", modelID, code, msg), err), err)
	}
}

// streamError converts an InvokeModelWithResponseStream failure, either when
// opening the stream or while reading it
func (m *Manager) streamError(modelID string, err error) error {
	apiErr, kind, ok := classify(err)
	if !ok {
		return m.report(llm.NewClientError(llm.CodeUnexpectedError,
			fmt.Sprintf("Unexpected error invoking streaming model %s: %v", modelID, err), err), err)
	}

	code, msg := apiErr.ErrorCode(), apiErrorMessage(apiErr)
	if kind == failureAccessDenied {
		return m.report(llm.NewClientError(llm.CodeAccessDenied,
			fmt.Sprintf("Access denied to model %s. "+
				"Ensure your IAM role/user has bedrock:InvokeModelWithResponseStream permission "+
				"in region %s.\nError: %s", modelID, m.Region(), msg), err), err)
	}
	return m.report(llm.NewClientError(llm.CodeServiceError,
		fmt.Sprintf("Failed to invoke streaming model %s: [%s] %s", modelID, code, msg), err), err)
}

// controlError converts a failure of a control-plane operation
func (m *Manager) controlError(operation string, err error) error {
	apiErr, kind, ok := classify(err)
	if !ok {
		return m.report(llm.NewClientError(llm.CodeUnexpectedError,
			fmt.Sprintf("Unexpected error calling bedrock:%s in region %s: %v", operation, m.Region(), err), err), err)
	}

	code, msg := apiErr.ErrorCode(), apiErrorMessage(apiErr)
	switch kind {
	case failureAccessDenied:
		return m.report(llm.NewClientError(llm.CodeAccessDenied,
			fmt.Sprintf("Access denied calling bedrock:%s in region %s. "+
				"Ensure your IAM role/user has bedrock:%s permission.\nError: %s",
				operation, m.Region(), operation, msg), err), err)
	case failureModelNotFound:
		return m.report(llm.NewClientError(llm.CodeModelNotFound,
			fmt.Sprintf("Resource not found calling bedrock:%s in region %s.\nError: %s",
				operation, m.Region(), msg), err), err)
	case failureThrottled:
		return m.report(llm.NewClientError(llm.CodeThrottled,
			fmt.Sprintf("Request throttled calling bedrock:%s. "+
				"Consider implementing exponential backoff or requesting a quota increase.\nError: %s",
				operation, msg), err), err)
	default:
		return m.report(llm.NewClientError(llm.CodeServiceError,
			fmt.Sprintf("Failed to call bedrock:%s: [%s] %s", operation, code, msg), err), err)
	}
}

// report fills in the HTTP status and logs e before it is returned
func (m *Manager) report(e *llm.Error, cause error) error {
	e.StatusCode = statusCode(cause)
	m.logger.Logf(logging.Warn, "%s", e.Message)
	return e
}
