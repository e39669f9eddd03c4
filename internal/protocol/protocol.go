// Package protocol defines the wire types exchanged between client and
// server: three Request variants and three matching Response variants,
// each encoded as an externally-tagged JSON object (`{"Get":{"key":...}}`).
// A concatenated stream of these values round-trips through a plain
// encoding/json.Decoder exactly like the on-disk record log does, so
// client and server never need explicit message framing.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/epokhe/kvs/internal/kvserr"
)

// RequestOp discriminates the three request variants.
type RequestOp string

const (
	OpGet    RequestOp = "Get"
	OpSet    RequestOp = "Set"
	OpRemove RequestOp = "Remove"
)

// Request is `Get{key} | Set{key, value} | Remove{key}`.
type Request struct {
	Op    RequestOp
	Key   string
	Value string // meaningful only when Op == OpSet
}

func NewGet(key string) Request        { return Request{Op: OpGet, Key: key} }
func NewSet(key, value string) Request { return Request{Op: OpSet, Key: key, Value: value} }
func NewRemove(key string) Request     { return Request{Op: OpRemove, Key: key} }

type getBody struct {
	Key string `json:"key"`
}

type setBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (r Request) MarshalJSON() ([]byte, error) {
	switch r.Op {
	case OpGet:
		return json.Marshal(map[string]getBody{"Get": {Key: r.Key}})
	case OpSet:
		return json.Marshal(map[string]setBody{"Set": {Key: r.Key, Value: r.Value}})
	case OpRemove:
		return json.Marshal(map[string]getBody{"Remove": {Key: r.Key}})
	default:
		return nil, fmt.Errorf("protocol: unknown request op %q", r.Op)
	}
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if body, ok := raw["Get"]; ok {
		var b getBody
		if err := json.Unmarshal(body, &b); err != nil {
			return err
		}
		*r = Request{Op: OpGet, Key: b.Key}
		return nil
	}
	if body, ok := raw["Set"]; ok {
		var b setBody
		if err := json.Unmarshal(body, &b); err != nil {
			return err
		}
		*r = Request{Op: OpSet, Key: b.Key, Value: b.Value}
		return nil
	}
	if body, ok := raw["Remove"]; ok {
		var b getBody
		if err := json.Unmarshal(body, &b); err != nil {
			return err
		}
		*r = Request{Op: OpRemove, Key: b.Key}
		return nil
	}

	return fmt.Errorf("protocol: unrecognized request shape %s", data)
}

// GetResponse is `Ok(Option<String>) | Err(String)`.
type GetResponse struct {
	ok    bool
	value *string
	err   string
}

func GetOk(value string, found bool) GetResponse {
	if !found {
		return GetResponse{ok: true}
	}
	v := value
	return GetResponse{ok: true, value: &v}
}

func GetErr(message string) GetResponse { return GetResponse{ok: false, err: message} }

func (r GetResponse) IsOk() bool         { return r.ok }
func (r GetResponse) Value() (string, bool) {
	if r.value == nil {
		return "", false
	}
	return *r.value, true
}
func (r GetResponse) ErrMessage() string { return r.err }

func (r GetResponse) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(map[string]*string{"Ok": r.value})
	}
	return json.Marshal(map[string]string{"Err": r.err})
}

func (r *GetResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if body, ok := raw["Ok"]; ok {
		if string(body) == "null" {
			*r = GetResponse{ok: true}
			return nil
		}
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return err
		}
		*r = GetResponse{ok: true, value: &s}
		return nil
	}
	if body, ok := raw["Err"]; ok {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return err
		}
		*r = GetResponse{ok: false, err: s}
		return nil
	}
	return fmt.Errorf("protocol: unrecognized GetResponse shape %s", data)
}

// unitResponse backs both SetResponse and RemoveResponse: `Ok(()) | Err(String)`.
type unitResponse struct {
	ok  bool
	err string
}

func (r unitResponse) IsOk() bool         { return r.ok }
func (r unitResponse) ErrMessage() string { return r.err }

func (r unitResponse) MarshalJSON() ([]byte, error) {
	if r.ok {
		return []byte(`{"Ok":null}`), nil
	}
	return json.Marshal(map[string]string{"Err": r.err})
}

func (r *unitResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw["Ok"]; ok {
		r.ok = true
		return nil
	}
	if body, ok := raw["Err"]; ok {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return err
		}
		r.ok = false
		r.err = s
		return nil
	}
	return fmt.Errorf("protocol: unrecognized response shape %s", data)
}

// SetResponse is the response to a Set request.
type SetResponse struct{ unitResponse }

func SetOk() SetResponse             { return SetResponse{unitResponse{ok: true}} }
func SetErr(message string) SetResponse { return SetResponse{unitResponse{ok: false, err: message}} }

// RemoveResponse is the response to a Remove request.
type RemoveResponse struct{ unitResponse }

func RemoveOk() RemoveResponse             { return RemoveResponse{unitResponse{ok: true}} }
func RemoveErr(message string) RemoveResponse {
	return RemoveResponse{unitResponse{ok: false, err: message}}
}

// AsError converts an Err-carrying message into the domain kvserr used by
// the client. A remote "Key not found" string is recognized and mapped back
// to kvserr.CodeKeyNotFound so callers can branch on it the same way they
// would against a local Store; any other message is wrapped as an opaque
// kvserr.StringErr since the wire protocol carries no richer error detail.
func AsError(message string) error {
	if message == "Key not found" {
		return kvserr.KeyNotFound("")
	}
	return kvserr.StringErr(message)
}
