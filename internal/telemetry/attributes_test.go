// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestCaseAttributes(t *testing.T) {
	attrs := CaseAttributes("11001310300120190012300", "SUCCESS", 42, 2, false)
	if len(attrs) != 5 {
		t.Fatalf("Expected 5 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, CaseRadicadoKey, "11001310300120190012300")
	verifyInt64Attribute(t, attrs, CaseProcesoIDKey, 42)
	verifyInt64Attribute(t, attrs, CaseMatchesKey, 2)
	verifyBoolAttribute(t, attrs, CasePrivateKey, false)

	// A case never found carries no proceso id.
	if got := CaseAttributes("123456789012345", "NOT_FOUND", 0, 0, false); len(got) != 4 {
		t.Errorf("Expected 4 attributes without proceso id, got %d", len(got))
	}
}

func TestRunAttributes(t *testing.T) {
	attrs := RunAttributes("run-1", "schedule", 10, 2)
	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, RunIDKey, "run-1")
	verifyAttribute(t, attrs, RunTriggerKey, "schedule")
	verifyInt64Attribute(t, attrs, RunTotalKey, 10)

	if got := RunAttributes("", "", 1, 1); len(got) != 2 {
		t.Errorf("Expected 2 attributes, got %d", len(got))
	}
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes(errors.New("boom"), "upstream")
	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "upstream")
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyInt64Attribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != expectedValue {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
