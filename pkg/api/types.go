// Package api implements the HTTP REST API and Prometheus metrics endpoint
// for an editing session.
package api

import (
	"github.com/psaab/blockedit/pkg/session"
)

// Response is the standard JSON response envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse holds session status information.
type StatusResponse struct {
	Uptime    string        `json:"uptime"`
	Start     string        `json:"start"`
	Elements  int           `json:"elements"`
	History   int           `json:"history"`
	CanUndo   bool          `json:"can_undo"`
	CanRedo   bool          `json:"can_redo"`
	Unsaved   bool          `json:"unsaved"`
	Selection *session.Info `json:"selection,omitempty"`
	Dragging  *session.Info `json:"dragging,omitempty"`
}

// DocumentResponse carries one rendering of the document.
type DocumentResponse struct {
	Format string `json:"format"`
	Output string `json:"output"`
}

// RefRequest names an element by path or ID. An empty ref is the selection.
type RefRequest struct {
	Ref string `json:"ref"`
}

// NavigateRequest moves the selection.
type NavigateRequest struct {
	Direction string `json:"direction"`
}

// ChooseRequest resolves a placeholder to an alternative (name or index).
type ChooseRequest struct {
	Ref    string `json:"ref"`
	Choice string `json:"choice"`
}

// TypeRequest sets the text of an input.
type TypeRequest struct {
	Ref  string `json:"ref"`
	Text string `json:"text"`
}

// TypeResponse reports the updated input and whether the text is valid.
type TypeResponse struct {
	Element session.Info `json:"element"`
	Warning string       `json:"warning,omitempty"`
}

// PasteRequest pastes the clipboard, or the given transfer text, onto ref.
type PasteRequest struct {
	Ref  string `json:"ref"`
	Text string `json:"text,omitempty"`
}

// TakeRequest starts dragging a toolbox block.
type TakeRequest struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
}

// TakeResponse carries the dragged block in transfer format.
type TakeResponse struct {
	Element session.Info `json:"element"`
	Text    string       `json:"text"`
}

// DropRequest drops the dragged block, or the given transfer text, onto ref.
type DropRequest struct {
	Ref  string `json:"ref"`
	Text string `json:"text,omitempty"`
}

// StoreRequest adds an element to a toolbox category. A nil Before appends.
type StoreRequest struct {
	Category string `json:"category"`
	Ref      string `json:"ref"`
	Before   *int   `json:"before,omitempty"`
}

// LayoutRequest applies indent, outdent or newline before the selection.
type LayoutRequest struct {
	Op string `json:"op"`
}

// FileRequest names a document file. An empty path uses the session's file.
type FileRequest struct {
	Path string `json:"path"`
}

// ExecRequest runs a shell command line.
type ExecRequest struct {
	Command string `json:"command"`
}

// ExecResponse holds the text output of a shell command.
type ExecResponse struct {
	Output string `json:"output"`
}

// HistoryResponse lists the undoable commands oldest first.
type HistoryResponse struct {
	Commands []string `json:"commands"`
	CanUndo  bool     `json:"can_undo"`
	CanRedo  bool     `json:"can_redo"`
}

// UndoResponse names the command that was undone or redone.
type UndoResponse struct {
	Command   string        `json:"command"`
	Selection *session.Info `json:"selection,omitempty"`
}
