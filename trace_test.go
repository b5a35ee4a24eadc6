package meta

import (
	"encoding/json"
	"testing"
)

func TestResolveWithTraceRecordsAttempts(t *testing.T) {
	store := newFakeStore()
	chain := newChain(store, "Child", "Parent")
	const key = "jackson:default:JsonClassType"

	ctx := NewContext(
		WithGroups("api"),
		WithDecorators(chain[1], Decorators{
			key: enabledOptions(map[string]any{"origin": "parent"}),
		}),
	)

	resolver, err := NewResolver(store)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	resolution, trace, err := resolver.ResolveWithTrace("JsonClassType", chain[0], ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolution.Found() {
		t.Fatalf("expected found, got %v", resolution.State)
	}
	if trace.ID == "" || trace.Key != "JsonClassType" {
		t.Fatalf("unexpected trace header: %+v", trace)
	}
	if len(trace.Attempts) == 0 {
		t.Fatalf("expected recorded attempts")
	}

	// The api group missed in both sources before the default group hit the
	// internal map at the parent type.
	first := trace.Attempts[0]
	if first.ConcreteKey != "jackson:api:JsonClassType" || first.Source != AttemptSourceStore || first.Found {
		t.Fatalf("unexpected first attempt: %+v", first)
	}
	last := trace.Attempts[len(trace.Attempts)-1]
	if !last.Found || last.Source != AttemptSourceInternal || last.TargetName != "Parent" || last.Depth != 1 {
		t.Fatalf("unexpected final attempt: %+v", last)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := newTrace("JsonProperty")
	trace.record(Attempt{ConcreteKey: "jackson:default:JsonProperty", Source: AttemptSourceStore, Found: true})

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	if !json.Valid(payload) {
		t.Fatalf("expected valid JSON payload")
	}

	restored, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if restored.ID != trace.ID || restored.Key != trace.Key || len(restored.Attempts) != 1 {
		t.Fatalf("round trip mismatch: %+v", restored)
	}
	if restored.Attempts[0].Source != AttemptSourceStore || !restored.Attempts[0].Found {
		t.Fatalf("unexpected attempt: %+v", restored.Attempts[0])
	}
}

func TestTraceFromJSONRejectsGarbage(t *testing.T) {
	if _, err := TraceFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNilTraceRecordIsNoop(t *testing.T) {
	var trace *Trace
	trace.record(Attempt{ConcreteKey: "k"}) // must not panic
}
