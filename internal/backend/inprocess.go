package backend

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// Frame is the opaque wire frame the in-process backend exchanges with the
// engine under test, per §6's wire boundary: {requestId, payload}.
type Frame struct {
	RequestID int64
	Payload   []byte
}

// Ingress is the engine-under-test's wire boundary, treated as the function
// handle(request_frame) → response_frame. The codec and command handlers
// behind it are an external collaborator this package never looks inside.
type Ingress func(ctx context.Context, req Frame) (Frame, error)

// IngressFactory builds a fresh Ingress for one scenario, giving the engine
// cold, isolated state per run.
type IngressFactory func() Ingress

// InProcessBackend frames each ScenarioCommand into a request Frame against a
// freshly constructed Ingress, per §4.1: "constructs a fresh ingress per
// scenario (cold state), frames each command into a request message, feeds
// it to the ingress, decodes the response."
type InProcessBackend struct {
	NewIngress IngressFactory
	DefaultDB  string
}

func NewInProcessBackend(newIngress IngressFactory, defaultDB string) *InProcessBackend {
	return &InProcessBackend{NewIngress: newIngress, DefaultDB: defaultDB}
}

func (b *InProcessBackend) Name() string { return "in-process" }

func (b *InProcessBackend) Execute(ctx context.Context, s scenario.Scenario) Outcome {
	ingress := b.NewIngress()
	results := make([]map[string]any, 0, len(s.Commands))

	for i, cmd := range s.Commands {
		doc, err := scenario.BuildCommandDocument(cmd, b.DefaultDB)
		if err != nil {
			return Failure(FormatFailure(cmd.CommandName, i, err.Error(), 0, ""))
		}
		payload, err := bson.Marshal(doc)
		if err != nil {
			return Failure(FormatFailure(cmd.CommandName, i, fmt.Sprintf("encode request: %v", err), 0, ""))
		}

		resp, err := ingress(ctx, Frame{RequestID: int64(i), Payload: payload})
		if err != nil {
			return Failure(FormatFailure(cmd.CommandName, i, fmt.Sprintf("transport error: %v", err), 0, ""))
		}

		respDoc, err := DecodeDocument(resp.Payload)
		if err != nil {
			return Failure(FormatFailure(cmd.CommandName, i, err.Error(), 0, ""))
		}

		ok, msg, code, codeName := ClassifyResponse(respDoc)
		if !ok {
			return Failure(FormatFailure(cmd.CommandName, i, msg, code, codeName))
		}
		results = append(results, respDoc)
	}
	return Success(results)
}
