package llm

import "encoding/json"

// jsonCodec implements grpc/encoding.Codec over plain JSON so the LLM
// client can speak gRPC without generated protobuf message types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return jsonCodecName }
