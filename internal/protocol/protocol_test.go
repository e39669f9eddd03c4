package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/epokhe/kvs/internal/kvserr"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		NewGet("foo"),
		NewSet("foo", "bar"),
		NewRemove("foo"),
	}

	for _, want := range cases {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("Marshal(%+v) failed: %v", want, err)
		}

		var got Request
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", data, err)
		}
		if got != want {
			t.Errorf("round trip mismatch: got %+v, want %+v (wire: %s)", got, want, data)
		}
	}
}

func TestRequestWireShape(t *testing.T) {
	data, err := json.Marshal(NewGet("foo"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"Get":{"key":"foo"}}` {
		t.Errorf("unexpected wire shape: %s", data)
	}
}

func TestGetResponseFound(t *testing.T) {
	resp := GetOk("bar", true)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"Ok":"bar"}` {
		t.Errorf("unexpected wire shape: %s", data)
	}

	var decoded GetResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	value, found := decoded.Value()
	if !found || value != "bar" {
		t.Errorf("expected found=true value='bar', got found=%v value=%q", found, value)
	}
}

func TestGetResponseMissing(t *testing.T) {
	resp := GetOk("", false)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"Ok":null}` {
		t.Errorf("unexpected wire shape: %s", data)
	}

	var decoded GetResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, found := decoded.Value(); found {
		t.Error("expected found=false for a null Ok payload")
	}
}

func TestGetResponseErr(t *testing.T) {
	resp := GetErr("Key not found")
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded GetResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.IsOk() {
		t.Error("expected IsOk() false for an Err response")
	}
	if decoded.ErrMessage() != "Key not found" {
		t.Errorf("unexpected error message: %q", decoded.ErrMessage())
	}
}

func TestSetAndRemoveResponseRoundTrip(t *testing.T) {
	setData, err := json.Marshal(SetOk())
	if err != nil {
		t.Fatalf("Marshal(SetOk) failed: %v", err)
	}
	var set SetResponse
	if err := json.Unmarshal(setData, &set); err != nil || !set.IsOk() {
		t.Errorf("SetResponse round trip failed: err=%v ok=%v", err, set.IsOk())
	}

	removeData, err := json.Marshal(RemoveErr("Key not found"))
	if err != nil {
		t.Fatalf("Marshal(RemoveErr) failed: %v", err)
	}
	var remove RemoveResponse
	if err := json.Unmarshal(removeData, &remove); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if remove.IsOk() || remove.ErrMessage() != "Key not found" {
		t.Errorf("expected a Key not found error, got ok=%v msg=%q", remove.IsOk(), remove.ErrMessage())
	}
}

// TestStreamOfResponsesDecodesBackToBack mirrors how the client decodes a
// sequence of responses out of one persistent connection: a single
// json.Decoder reading concatenated, self-delimiting values.
func TestStreamOfResponsesDecodesBackToBack(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(GetOk("bar", true)); err != nil {
		t.Fatalf("encode 1 failed: %v", err)
	}
	if err := enc.Encode(SetOk()); err != nil {
		t.Fatalf("encode 2 failed: %v", err)
	}

	dec := json.NewDecoder(&buf)

	var r1 GetResponse
	if err := dec.Decode(&r1); err != nil {
		t.Fatalf("decode 1 failed: %v", err)
	}
	if value, found := r1.Value(); !found || value != "bar" {
		t.Errorf("unexpected first response: found=%v value=%q", found, value)
	}

	var r2 SetResponse
	if err := dec.Decode(&r2); err != nil {
		t.Fatalf("decode 2 failed: %v", err)
	}
	if !r2.IsOk() {
		t.Error("expected second response to be Ok")
	}
}

func TestAsErrorMapsKeyNotFound(t *testing.T) {
	err := AsError("Key not found")
	if err == nil || err.Error() != "Key not found" {
		t.Errorf("expected a Key not found error, got %v", err)
	}
	var kerr *kvserr.Error
	if !errors.As(err, &kerr) || kerr.Code() != kvserr.CodeKeyNotFound {
		t.Errorf("expected code %v, got %v", kvserr.CodeKeyNotFound, err)
	}
}
