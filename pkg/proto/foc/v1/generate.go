package v1

// telemetry.pb.go is kept in sync with telemetry.proto by
// protoc-gen-go v1.3.x.
//go:generate protoc --go_out=paths=source_relative:. telemetry.proto
