package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/psaab/blockedit/pkg/command"
	"github.com/psaab/blockedit/pkg/editor"
	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/logging"
	"github.com/psaab/blockedit/pkg/session"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

// errorStatus maps session errors to HTTP status codes.
func errorStatus(err error) int {
	var pe *element.ParseError
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrInvalidOperation),
		errors.Is(err, command.ErrNothingToUndo),
		errors.Is(err, command.ErrNothingToRedo):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status != http.StatusConflict {
		s.logger.Debug("api request failed", "path", r.URL.Path,
			"principal", Principal(r.Context()), "err", err)
	}
	writeError(w, status, err.Error())
}

// decode reads a JSON request body into v. An empty body leaves v unchanged.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	st := s.sess.Stats()
	resp := StatusResponse{
		Uptime:   st.Uptime.Truncate(time.Second).String(),
		Start:    s.sess.Start(),
		Elements: st.Elements,
		History:  st.HistoryLen,
		CanUndo:  st.CanUndo,
		CanRedo:  st.CanRedo,
		Unsaved:  st.Dirty,
	}
	if sel, ok := s.sess.Selection(); ok {
		resp.Selection = &sel
	}
	if d, ok := s.sess.Dragging(); ok {
		resp.Dragging = &d
	}
	writeOK(w, resp)
}

// documentHandler renders the document. ?format= is one of document
// (transfer format, the default), outline, source or json.
func (s *Server) documentHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "document"
	}
	resp := DocumentResponse{Format: format}
	switch format {
	case "document":
		resp.Output = s.sess.Encode()
	case "outline":
		resp.Output = s.sess.Outline()
	case "source":
		resp.Output = s.sess.Source()
	case "json":
		data, err := s.sess.JSON()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Output = string(data)
	default:
		writeError(w, http.StatusBadRequest, "unsupported format: "+format)
		return
	}
	writeOK(w, resp)
}

func (s *Server) selectionHandler(w http.ResponseWriter, _ *http.Request) {
	sel, ok := s.sess.Selection()
	if !ok {
		writeError(w, http.StatusNotFound, session.ErrNoSelection.Error())
		return
	}
	writeOK(w, sel)
}

func (s *Server) choicesHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, s.sess.Choices())
}

func (s *Server) selectHandler(w http.ResponseWriter, r *http.Request) {
	var req RefRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.sess.Select(req.Ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, in)
}

func (s *Server) navigateHandler(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.sess.Navigate(req.Direction)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, in)
}

func (s *Server) chooseHandler(w http.ResponseWriter, r *http.Request) {
	var req ChooseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Choice == "" {
		writeError(w, http.StatusBadRequest, "choice is required")
		return
	}
	in, err := s.sess.Choose(req.Ref, req.Choice)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, in)
}

func (s *Server) typeHandler(w http.ResponseWriter, r *http.Request) {
	var req TypeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.sess.Type(req.Ref, req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := TypeResponse{Element: in}
	if !in.Valid {
		resp.Warning = "text does not match the terminal type"
	}
	writeOK(w, resp)
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	var req RefRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sess.Delete(req.Ref); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSelection(w)
}

func (s *Server) backspaceHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Backspace(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSelection(w)
}

func (s *Server) layoutHandler(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	op, err := session.ParseLayoutOp(req.Op)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sess.Layout(op); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSelection(w)
}

// writeSelection answers an edit with the resulting selection, or with an
// empty success when nothing is selected.
func (s *Server) writeSelection(w http.ResponseWriter) {
	if sel, ok := s.sess.Selection(); ok {
		writeOK(w, sel)
		return
	}
	writeOK(w, nil)
}

func (s *Server) copyHandler(w http.ResponseWriter, r *http.Request) {
	var req RefRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sess.Copy(req.Ref); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, ExecResponse{Output: s.sess.Clipboard()})
}

func (s *Server) clipboardHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, ExecResponse{Output: s.sess.Clipboard()})
}

func (s *Server) pasteHandler(w http.ResponseWriter, r *http.Request) {
	var req PasteRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var (
		in  session.Info
		err error
	)
	switch {
	case req.Text != "":
		in, err = s.sess.PasteText(req.Ref, req.Text)
	case req.Ref != "":
		if _, err = s.sess.Select(req.Ref); err == nil {
			in, err = s.sess.Paste()
		}
	default:
		in, err = s.sess.Paste()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, in)
}

func (s *Server) takeHandler(w http.ResponseWriter, r *http.Request) {
	var req TakeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text, err := s.sess.Take(req.Category, req.Index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, _ := s.sess.Dragging()
	writeOK(w, TakeResponse{Element: d, Text: text})
}

func (s *Server) dropHandler(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := s.sess.Drop(req.Ref, req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, in)
}

func (s *Server) cancelDragHandler(w http.ResponseWriter, _ *http.Request) {
	s.sess.CancelDrag()
	writeOK(w, nil)
}

// targetsHandler lists the elements the dragged block, the clipboard, or
// the ?text= transfer block may be dropped onto.
func (s *Server) targetsHandler(w http.ResponseWriter, r *http.Request) {
	targets, err := s.sess.Targets(r.URL.Query().Get("text"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if targets == nil {
		targets = []session.Info{}
	}
	writeOK(w, targets)
}

func (s *Server) paletteHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, s.sess.Palette())
}

func (s *Server) storeHandler(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	before := -1
	if req.Before != nil {
		before = *req.Before
	}
	if err := s.sess.Store(req.Category, req.Ref, before); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, s.sess.Palette())
}

func (s *Server) historyHandler(w http.ResponseWriter, _ *http.Request) {
	st := s.sess.Stats()
	cmds := s.sess.History()
	if cmds == nil {
		cmds = []string{}
	}
	writeOK(w, HistoryResponse{Commands: cmds, CanUndo: st.CanUndo, CanRedo: st.CanRedo})
}

func (s *Server) undoHandler(w http.ResponseWriter, r *http.Request) {
	s.replay(w, r, s.sess.Undo)
}

func (s *Server) redoHandler(w http.ResponseWriter, r *http.Request) {
	s.replay(w, r, s.sess.Redo)
}

func (s *Server) replay(w http.ResponseWriter, r *http.Request, fn func() (string, error)) {
	name, err := fn()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := UndoResponse{Command: name}
	if sel, ok := s.sess.Selection(); ok {
		resp.Selection = &sel
	}
	writeOK(w, resp)
}

func (s *Server) saveHandler(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	path, err := s.sess.Save(req.Path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("document saved via API", "path", path, "principal", Principal(r.Context()))
	writeOK(w, FileRequest{Path: path})
}

func (s *Server) loadHandler(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	path, err := s.sess.Load(req.Path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, FileRequest{Path: path})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Reset(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSelection(w)
}

// eventsHandler returns recent edit events, newest first.
// Supports ?limit=, ?op=, ?outcome= and ?symbol= filters.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}
	f := logging.EventFilter{
		Op:      q.Get("op"),
		Outcome: q.Get("outcome"),
		Symbol:  q.Get("symbol"),
	}
	var events []logging.EditEvent
	if f.IsEmpty() {
		events = s.sess.Events().Latest(limit)
	} else {
		events = s.sess.Events().LatestFiltered(limit, f)
	}
	if events == nil {
		events = []logging.EditEvent{}
	}
	writeOK(w, events)
}

func (s *Server) execHandler(w http.ResponseWriter, r *http.Request) {
	var req ExecRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.sess.Exec(req.Command)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, ExecResponse{Output: out})
}
