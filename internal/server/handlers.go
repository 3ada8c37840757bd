package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/modify"
	"github.com/jonathan/resume-editor/internal/pipeline"
	"github.com/jonathan/resume-editor/internal/server/middleware"
	"github.com/jonathan/resume-editor/internal/theme"
	"github.com/jonathan/resume-editor/internal/types"
)

// ChatRequest is the body of /v1/chat and /v1/chat/stream
type ChatRequest struct {
	Message  string          `json:"message" validate:"required"`
	Document json.RawMessage `json:"document"`
	JobText  string          `json:"job_text,omitempty"`
	JobURL   string          `json:"job_url,omitempty" validate:"omitempty,url"`
	Theme    *types.Theme    `json:"theme,omitempty" validate:"-"`
}

// IntentRequest is the body of /v1/intent
type IntentRequest struct {
	Message  string          `json:"message" validate:"required"`
	Document json.RawMessage `json:"document,omitempty"`
}

// ApplyRequest is the body of /v1/apply
type ApplyRequest struct {
	Document   json.RawMessage   `json:"document" validate:"required"`
	Operations []types.Operation `json:"operations" validate:"required,min=1,dive"`
}

// ApplyResponse is the result of /v1/apply
type ApplyResponse struct {
	Document any          `json:"document"`
	Diffs    []types.Diff `json:"diffs"`
}

// ScoreRequest is the body of /v1/score
type ScoreRequest struct {
	Document json.RawMessage `json:"document" validate:"required"`
	JobText  string          `json:"job_text"`
}

// ColorParseRequest is the body of /v1/colors/parse
type ColorParseRequest struct {
	Text string `json:"text" validate:"required"`
}

// ContrastRequest is the body of /v1/colors/contrast
type ContrastRequest struct {
	Foreground string `json:"foreground" validate:"required"`
	Background string `json:"background" validate:"required"`
	Level      string `json:"level,omitempty" validate:"omitempty,oneof=AA AAA"`
	Size       string `json:"size,omitempty" validate:"omitempty,oneof=normal large"`
}

// HistoryResponse is the result of undo and redo
type HistoryResponse struct {
	Current  *types.HistoryEntry `json:"current"`
	Timeline types.Timeline      `json:"timeline"`
}

// decode reads a JSON body into dst and runs its validation tags
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrValidation{Field: "body", Message: "request body is empty"}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError converts the first validator failure into an ErrValidation
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fe.Tag()
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		return &ErrValidation{Field: fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:], Message: msg}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// jsonFieldName makes validator report json names
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func decodeDocument(raw json.RawMessage) (any, error) {
	doc, err := document.Decode(raw)
	if err != nil {
		return nil, &ErrValidation{Field: "document", Message: err.Error()}
	}
	return doc, nil
}

func (s *Server) chatRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	var body ChatRequest
	if err := s.decode(w, r, &body); err != nil {
		return pipeline.Request{}, err
	}
	doc, err := decodeDocument(body.Document)
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		UserID:   middleware.GetUserID(r),
		Message:  body.Message,
		Document: doc,
		JobText:  body.JobText,
		JobURL:   body.JobURL,
		Theme:    body.Theme,
	}, nil
}

// handleChat runs one agent turn and returns its envelope
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := s.chatRequest(w, r)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.agent.Run(r.Context(), req))
}

// handleChatStream runs one agent turn, streaming a step event per
// orchestrator step and the envelope as the complete event
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.chatRequest(w, r)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	env := s.agent.Stream(r.Context(), req, func(event pipeline.ProgressEvent) {
		if err := stream.send("step", event); err != nil {
			s.logger.Debug("failed to write step event", zap.String("step", event.Step), zap.Error(err))
		}
	})
	if err := stream.send("complete", env); err != nil {
		s.logger.Warn("failed to write complete event", zap.Error(err))
		_ = stream.send("error", map[string]string{"error": "failed to send the result"})
	}
}

// handleIntent parses a message without applying it
func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var body IntentRequest
	if err := s.decode(w, r, &body); err != nil {
		s.errorFrom(w, err)
		return
	}
	doc, err := decodeDocument(body.Document)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	mod, err := s.parser.Parse(r.Context(), body.Message, document.Context(doc))
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, mod)
}

// handleApply applies operations in order. Any failure leaves the document
// unchanged and answers 400.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var body ApplyRequest
	if err := s.decode(w, r, &body); err != nil {
		s.errorFrom(w, err)
		return
	}
	doc, err := decodeDocument(body.Document)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	diffs := make([]types.Diff, 0, len(body.Operations))
	for _, op := range body.Operations {
		next, err := modify.Apply(doc, op)
		if err != nil {
			s.errorFrom(w, err)
			return
		}
		diffs = append(diffs, modify.Describe(doc, next, op))
		doc = next
	}
	s.jsonResponse(w, http.StatusOK, ApplyResponse{Document: doc, Diffs: diffs})
}

// handleScore scores a document against a job description
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var body ScoreRequest
	if err := s.decode(w, r, &body); err != nil {
		s.errorFrom(w, err)
		return
	}
	doc, err := decodeDocument(body.Document)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.scorer.Score(doc, body.JobText))
}

// handleColorParse finds a color and the element it applies to
func (s *Server) handleColorParse(w http.ResponseWriter, r *http.Request) {
	var body ColorParseRequest
	if err := s.decode(w, r, &body); err != nil {
		s.errorFrom(w, err)
		return
	}
	req, ok := theme.ParseColorRequest(body.Text)
	if !ok {
		s.errorFrom(w, &ErrValidation{Field: "text", Message: "no color found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, req)
}

// handleColorContrast checks two colors against WCAG
func (s *Server) handleColorContrast(w http.ResponseWriter, r *http.Request) {
	var body ContrastRequest
	if err := s.decode(w, r, &body); err != nil {
		s.errorFrom(w, err)
		return
	}
	if body.Level == "" {
		body.Level = theme.LevelAA
	}
	if body.Size == "" {
		body.Size = theme.SizeNormal
	}

	result, err := theme.ValidateWCAG(body.Foreground, body.Background, body.Level, body.Size)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleHistory returns the caller's timeline
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorFrom(w, &ErrUnavailable{Feature: "history"})
		return
	}
	t, err := s.history.Timeline(r.Context(), middleware.GetUserID(r))
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, t)
}

// handleUndo moves the caller's latest edit onto the redo stack
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorFrom(w, &ErrUnavailable{Feature: "history"})
		return
	}
	current, t, err := s.history.Undo(r.Context(), middleware.GetUserID(r))
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, HistoryResponse{Current: current, Timeline: t})
}

// handleRedo reapplies the caller's most recently undone edit
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorFrom(w, &ErrUnavailable{Feature: "history"})
		return
	}
	current, t, err := s.history.Redo(r.Context(), middleware.GetUserID(r))
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, HistoryResponse{Current: current, Timeline: t})
}
