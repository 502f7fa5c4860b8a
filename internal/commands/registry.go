// Package commands is the fixed command surface invoked by the frontend.
// Every transport (HTTP bridge, MCP, CLI) dispatches through a Registry.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cravetown/internal/apperr"
)

// Param describes one named command parameter.
type Param struct {
	Name        string
	Description string
	Required    bool
	// List marks array-of-string parameters.
	List bool
}

// Handler executes a command with its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Command is a registered command.
type Command struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Registry maps command names to handlers, keeping registration order.
type Registry struct {
	byName map[string]Command
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Command{}}
}

// Register adds cmd. Registering a name twice panics.
func (r *Registry) Register(cmd Command) {
	if _, dup := r.byName[cmd.Name]; dup {
		panic(fmt.Sprintf("commands: duplicate command %q", cmd.Name))
	}
	r.byName[cmd.Name] = cmd
	r.order = append(r.order, cmd.Name)
}

// Lookup returns the command called name.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Commands returns every command in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Invoke runs the command called name with JSON-encoded args.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	cmd, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("command %q: %w", name, apperr.ErrUnknownCommand)
	}
	return cmd.Handler(ctx, args)
}

// InvokeMap is Invoke with arguments supplied as a map.
func (r *Registry) InvokeMap(ctx context.Context, name string, args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	return r.Invoke(ctx, name, raw)
}

// decode unmarshals args into dst and validates it when dst implements
// validation.Validatable. Empty args decode as an empty object.
func decode(args json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidArgs, err)
	}
	if v, ok := dst.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidArgs, err)
		}
	}
	return nil
}

// typed adapts a function taking a decoded parameter struct into a Handler.
func typed[P any](fn func(ctx context.Context, p *P) (any, error)) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		p := new(P)
		if err := decode(args, p); err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}
