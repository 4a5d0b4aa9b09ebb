package bedrock

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/inercia/go-bedrock/pkg/llm"
)

// Invoke sends an already serialized request body to a model and returns the
// response as received. The caller decodes the response body.
func (m *Manager) Invoke(ctx context.Context, modelID string, body []byte, opts ...InvokeOption) (*bedrockruntime.InvokeModelOutput, error) {
	if modelID == "" {
		return nil, llm.NewClientError(llm.CodeInvalidRequest, "model ID is required", nil)
	}
	o := newInvokeOptions(opts)

	runtime, err := m.Runtime()
	if err != nil {
		return nil, err
	}

	out, err := runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		Accept:      aws.String(o.accept),
		ContentType: aws.String(o.contentType),
	})
	if err != nil {
		return nil, m.invokeError(modelID, err)
	}
	return out, nil
}

// InvokeStream sends an already serialized request body to a model and returns
// a Stream over the response events.
func (m *Manager) InvokeStream(ctx context.Context, modelID string, body []byte, opts ...InvokeOption) (*Stream, error) {
	if modelID == "" {
		return nil, llm.NewClientError(llm.CodeInvalidRequest, "model ID is required", nil)
	}
	o := newInvokeOptions(opts)

	runtime, err := m.Runtime()
	if err != nil {
		return nil, err
	}

	out, err := runtime.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		Accept:      aws.String(o.accept),
		ContentType: aws.String(o.contentType),
	})
	if err != nil {
		return nil, m.streamError(modelID, err)
	}

	reader := m.services.stream(out)
	if reader == nil {
		return nil, m.streamError(modelID, errors.New("response has no event stream"))
	}

	return &Stream{
		modelID: modelID,
		output:  out,
		reader:  reader,
		mapErr:  func(err error) error { return m.streamError(modelID, err) },
	}, nil
}

// Stream is a single-pass sequence of response events from InvokeStream.
//
// Events are pulled from the connection as the caller iterates. Events that
// were yielded before a failure are complete and remain valid; the failure is
// reported once, as the last element of the sequence.
type Stream struct {
	modelID string
	output  *bedrockruntime.InvokeModelWithResponseStreamOutput
	reader  bedrockruntime.ResponseStreamReader
	mapErr  func(error) error

	started   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Output returns the response metadata of the streaming call
func (s *Stream) Output() *bedrockruntime.InvokeModelWithResponseStreamOutput {
	return s.output
}

// Chunks returns the events of the stream. It can be ranged over once;
// stopping early closes the stream. Ranging a second time yields an error.
func (s *Stream) Chunks() iter.Seq2[types.ResponseStream, error] {
	return func(yield func(types.ResponseStream, error) bool) {
		if !s.started.CompareAndSwap(false, true) {
			yield(nil, llm.NewClientError(llm.CodeInvalidRequest,
				fmt.Sprintf("stream for model %s has already been consumed", s.modelID), nil))
			return
		}
		defer func() { _ = s.Close() }()

		for event := range s.reader.Events() {
			if !yield(event, nil) {
				return
			}
		}
		if err := s.reader.Err(); err != nil {
			yield(nil, s.mapErr(err))
		}
	}
}

// Collect reads the remaining events into a slice. On failure the events read
// so far are returned along with the error.
func (s *Stream) Collect() ([]types.ResponseStream, error) {
	var events []types.ResponseStream
	for event, err := range s.Chunks() {
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Close releases the connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.reader.Close()
	})
	return s.closeErr
}

// ChunkBytes returns the payload of a chunk event. ok is false for any other
// kind of event.
func ChunkBytes(event types.ResponseStream) (payload []byte, ok bool) {
	chunk, ok := event.(*types.ResponseStreamMemberChunk)
	if !ok {
		return nil, false
	}
	return chunk.Value.Bytes, true
}
