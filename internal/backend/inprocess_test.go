package backend

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/midagedev/jongodb-differ/internal/scenario"
	"github.com/midagedev/jongodb-differ/internal/value"
)

// fakeIngress replies `{ok: 1}` to every request, echoing the request index
// so the test can assert command results stay ordered 1:1 with commands.
func fakeIngress() Ingress {
	return func(ctx context.Context, req Frame) (Frame, error) {
		resp, err := bson.Marshal(bson.D{{Key: "ok", Value: float64(1)}, {Key: "echoId", Value: req.RequestID}})
		if err != nil {
			return Frame{}, err
		}
		return Frame{RequestID: req.RequestID, Payload: resp}, nil
	}
}

func mustScenario(t *testing.T) scenario.Scenario {
	t.Helper()
	cmd1, err := scenario.NewScenarioCommand("insert", []scenario.PayloadField{
		{Key: "insert", Value: value.String("widgets")},
	})
	if err != nil {
		t.Fatalf("NewScenarioCommand: %v", err)
	}
	cmd2, err := scenario.NewScenarioCommand("find", []scenario.PayloadField{
		{Key: "find", Value: value.String("widgets")},
	})
	if err != nil {
		t.Fatalf("NewScenarioCommand: %v", err)
	}
	s, err := scenario.NewScenario("s1", "insert then find", []scenario.ScenarioCommand{cmd1, cmd2})
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	return s
}

func TestInProcessBackend_SuccessProducesOneResultPerCommand(t *testing.T) {
	b := NewInProcessBackend(fakeIngress, "testdb")
	out := b.Execute(context.Background(), mustScenario(t))
	if !out.Success {
		t.Fatalf("expected success, got errorMessage=%q", out.ErrorMessage)
	}
	if len(out.CommandResults) != 2 {
		t.Fatalf("expected 2 commandResults, got %d", len(out.CommandResults))
	}
	if out.CommandResults[0]["echoId"] != int64(0) || out.CommandResults[1]["echoId"] != int64(1) {
		t.Fatalf("expected commandResults ordered 1:1 with commands, got %+v", out.CommandResults)
	}
}

func TestInProcessBackend_HaltsOnFirstFailingCommand(t *testing.T) {
	failing := func() Ingress {
		calls := 0
		return func(ctx context.Context, req Frame) (Frame, error) {
			calls++
			if calls == 1 {
				resp, _ := bson.Marshal(bson.D{{Key: "ok", Value: float64(1)}})
				return Frame{Payload: resp}, nil
			}
			resp, _ := bson.Marshal(bson.D{{Key: "ok", Value: float64(0)}, {Key: "errmsg", Value: "boom"}, {Key: "code", Value: int32(99)}, {Key: "codeName", Value: "Boom"}})
			return Frame{Payload: resp}, nil
		}
	}
	b := NewInProcessBackend(failing, "testdb")
	out := b.Execute(context.Background(), mustScenario(t))
	if out.Success {
		t.Fatalf("expected failure")
	}
	want := "command 'find' failed at index 1: boom (code=99, codeName=Boom)"
	if out.ErrorMessage != want {
		t.Fatalf("errorMessage = %q, want %q", out.ErrorMessage, want)
	}
	if len(out.CommandResults) != 0 {
		t.Fatalf("expected empty commandResults on failure, got %+v", out.CommandResults)
	}
}
