// Package config holds the interpreter's host-resource knobs (spec
// §6.4) and validates an already-decoded knobs document against a JSON
// Schema, the way the teacher's types.Validator validates decoded
// parameter values rather than raw files.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wfl-lang/wflcore/runtime/iohost"
)

// ShellExecutionMode is iohost.ShellExecutionMode itself; knobs
// documents carry its string form in Knobs.ShellExecutionModeRaw.
type ShellExecutionMode = iohost.ShellExecutionMode

// MaxTimeoutSeconds is the spec §6.4 hard cap: "timeout_seconds, even
// if configured higher, is clamped to 300".
const MaxTimeoutSeconds = 300

// Knobs is the decoded configuration surface (spec §6.4). No other
// package in this module imports core/config; IoHostConfig projects
// it onto runtime/iohost's Config.
type Knobs struct {
	TimeoutSeconds          int                `json:"timeout_seconds"`
	MaxConcurrentProcesses  int                `json:"max_concurrent_processes"`
	MaxBufferSizeBytes      int                `json:"max_buffer_size_bytes"`
	ShellExecutionMode      ShellExecutionMode `json:"-"`
	ShellExecutionModeRaw   string             `json:"shell_execution_mode"`
	WarnOnShellExecution    bool               `json:"warn_on_shell_execution"`
	WarnOnOrphan            bool               `json:"warn_on_orphan"`
	KillOnShutdown          bool               `json:"kill_on_shutdown"`
	WebServerBindAddress    string             `json:"web_server_bind_address"`
}

// Default returns the interpreter's out-of-the-box knobs.
func Default() Knobs {
	return Knobs{
		TimeoutSeconds:         300,
		MaxConcurrentProcesses: 8,
		MaxBufferSizeBytes:     1 << 20,
		ShellExecutionMode:     iohost.ShellSanitized,
		ShellExecutionModeRaw:  "sanitized",
		WarnOnShellExecution:   true,
		WarnOnOrphan:           true,
		KillOnShutdown:         false,
		WebServerBindAddress:   "127.0.0.1:0",
	}
}

// Clamp enforces the hard timeout ceiling (spec §6.4) and resolves the
// string shell mode into its enum form.
func (k *Knobs) Clamp() error {
	if k.TimeoutSeconds <= 0 || k.TimeoutSeconds > MaxTimeoutSeconds {
		k.TimeoutSeconds = MaxTimeoutSeconds
	}
	switch strings.ToLower(k.ShellExecutionModeRaw) {
	case "", "sanitized":
		k.ShellExecutionMode = iohost.ShellSanitized
	case "disabled":
		k.ShellExecutionMode = iohost.ShellDisabled
	case "unrestricted":
		k.ShellExecutionMode = iohost.ShellUnrestricted
	default:
		return fmt.Errorf("unknown shell_execution_mode %q", k.ShellExecutionModeRaw)
	}
	return nil
}

// IoHostConfig projects Knobs onto the subset iohost.New needs.
func (k Knobs) IoHostConfig() iohost.Config {
	return iohost.Config{
		MaxConcurrentProcesses: k.MaxConcurrentProcesses,
		MaxBufferSizeBytes:     k.MaxBufferSizeBytes,
		ShellExecutionMode:     k.ShellExecutionMode,
		WarnOnShellExecution:   k.WarnOnShellExecution,
		WarnOnOrphan:           k.WarnOnOrphan,
		KillOnShutdown:         k.KillOnShutdown,
	}
}

// knobsSchema is the JSON Schema every decoded knobs document is
// checked against before Clamp runs (spec §6.4: bounds and enum
// membership are schema-enforced, not just clamp-enforced).
const knobsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "timeout_seconds": {"type": "integer", "minimum": 1},
    "max_concurrent_processes": {"type": "integer", "minimum": 1},
    "max_buffer_size_bytes": {"type": "integer", "minimum": 1},
    "shell_execution_mode": {"enum": ["disabled", "sanitized", "unrestricted"]},
    "warn_on_shell_execution": {"type": "boolean"},
    "warn_on_orphan": {"type": "boolean"},
    "kill_on_shutdown": {"type": "boolean"},
    "web_server_bind_address": {"type": "string"}
  }
}`

// Validator checks decoded knobs documents (as generic any, the
// json.Unmarshal target for a map[string]any) against knobsSchema
// before they're turned into a Knobs struct.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles knobsSchema once for reuse across scripts.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("knobs.json", strings.NewReader(knobsSchema)); err != nil {
		return nil, fmt.Errorf("compiling knobs schema: %w", err)
	}
	schema, err := compiler.Compile("knobs.json")
	if err != nil {
		return nil, fmt.Errorf("compiling knobs schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks a decoded knobs document. doc is typically the
// result of json.Unmarshal into a map[string]any.
func (v *Validator) Validate(doc any) error {
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid knobs: %w", err)
	}
	return nil
}

// Decode validates raw JSON bytes against knobsSchema and decodes them
// into a Knobs value with defaults applied for unset fields and the
// timeout clamp enforced.
func Decode(raw []byte, v *Validator) (Knobs, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Knobs{}, fmt.Errorf("decoding knobs: %w", err)
	}
	if v != nil {
		if err := v.Validate(doc); err != nil {
			return Knobs{}, err
		}
	}
	k := Default()
	if err := json.Unmarshal(raw, &k); err != nil {
		return Knobs{}, fmt.Errorf("decoding knobs: %w", err)
	}
	if err := k.Clamp(); err != nil {
		return Knobs{}, err
	}
	return k, nil
}
