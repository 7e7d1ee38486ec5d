// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var (
	// ErrUnknownCommand is returned for a slash command that is not registered.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUploadUnavailable is returned when no uploader is configured.
	ErrUploadUnavailable = errors.New("document upload is not available")
)

// Uploader sends a document to the backend.
type Uploader interface {
	UploadDocument(ctx context.Context, path string) (*backend.UploadResult, error)
}

// Env is what a command handler acts on.
type Env struct {
	Chat     *chat.Orchestrator
	Uploader Uploader

	// Models is the catalog offered by /models. Nil means model.Catalog.
	Models []model.ModelInfo
}

func (e *Env) models() []model.ModelInfo {
	if e.Models != nil {
		return e.Models
	}
	return model.Catalog
}

// Reply is the outcome of a command.
type Reply struct {
	// Text is shown to the user.
	Text string

	// Quit asks the front end to exit.
	Quit bool
}

// Handler executes a command.
type Handler func(ctx context.Context, env *Env, args []string) (Reply, error)

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	Args []ArgDef

	Handler Handler

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeModel                 // Model id from the catalog
	ArgTypeFile                  // File path
	ArgTypeEnum                  // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute runs a parsed command.
func (r *Registry) Execute(ctx context.Context, env *Env, res ParseResult) (Reply, error) {
	if !res.IsCommand {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownCommand, res.RawInput)
	}
	if res.Command == nil {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnknownCommand, res.CommandName)
	}
	if err := ValidateArgs(res.Command, res.Args); err != nil {
		return Reply{}, err
	}
	return res.Command.Handler(ctx, env, res.Args)
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help",
		Category:    "Navigation",
		Handler:     r.handleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit talkchat",
		Usage:       "/quit",
		Category:    "Navigation",
		Handler:     handleQuit,
	})

	r.Register(&Command{
		Name:        "/history",
		Description: "Show the conversation so far",
		Usage:       "/history",
		Category:    "Conversation",
		Handler:     handleHistory,
	})

	r.Register(&Command{
		Name:        "/upload",
		Aliases:     []string{"/u"},
		Description: "Upload a PDF or text document",
		Usage:       "/upload <file>",
		Args: []ArgDef{
			{Name: "file", Required: true, Type: ArgTypeFile, Description: "Path to a .pdf or .txt file"},
		},
		Category: "Conversation",
		Handler:  handleUpload,
	})

	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Switch or show current model",
		Usage:       "/model [id]",
		Args: []ArgDef{
			{Name: "id", Required: false, Type: ArgTypeModel, Description: "Model id or display name"},
		},
		Category: "Model",
		Handler:  handleModel,
	})

	r.Register(&Command{
		Name:        "/models",
		Description: "List available models",
		Usage:       "/models",
		Category:    "Model",
		Handler:     handleModels,
	})
}

// =============================================================================
// COMPLETION TYPES
// =============================================================================

// Completion is a single completion candidate.
type Completion struct {
	// Value to insert
	Value string

	// Display text (may include formatting)
	Display string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int
}
