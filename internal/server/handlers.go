package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/ragbot-core/server/internal/bot/model"
	"github.com/ragbot-core/server/internal/bot/prompts"
	errx "github.com/ragbot-core/server/internal/core/error"
	"github.com/ragbot-core/server/internal/search"
	logx "github.com/ragbot-core/server/pkg/logger"
)

// ChatService runs one chat exchange; implemented by chain.Runner.
type ChatService interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
	Stream(ctx context.Context, in model.QueryInput) (*schema.StreamReader[string], error)
}

// Answerer answers a question over the retrieval pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Searcher runs a live web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

const botUserType = "Bot"

// BotMessage is the payload returned by every chat endpoint.
type BotMessage struct {
	UserType string    `json:"user_type"`
	NickName string    `json:"nick_name,omitempty"`
	Message  string    `json:"message"`
	SendDate time.Time `json:"send_date"`
}

// SearchReply extends BotMessage with the raw search hits that grounded it.
type SearchReply struct {
	BotMessage
	Sources []search.Result `json:"sources"`
}

type botRequest struct {
	Message  string `json:"message"`
	NickName string `json:"nickName"`
	Role     string `json:"role"`
}

func (s *Server) botReply(text string) BotMessage {
	return BotMessage{
		UserType: botUserType,
		NickName: s.botName,
		Message:  text,
		SendDate: time.Now().UTC(),
	}
}

// decodeBotRequest parses the body and validates the required fields.
// Validation failures are rejected before any upstream call.
func decodeBotRequest(r *http.Request, required ...string) (botRequest, error) {
	var req botRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return req, errx.InvalidInput("malformed request body")
	}
	for _, field := range required {
		var v string
		switch field {
		case "message":
			v = req.Message
		case "nickName":
			v = req.NickName
		case "role":
			v = req.Role
		}
		if strings.TrimSpace(v) == "" {
			return req, errx.InvalidInput(field + " is required")
		}
	}
	return req, nil
}

// handleSimple serves POST /bot/simple: single turn, no history.
func (s *Server) handleSimple(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	req, err := decodeBotRequest(r, "message")
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := s.chat.Invoke(r.Context(), model.QueryInput{
		Query:   req.Message,
		Persona: s.simplePersona,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, s.botReply(reply))
}

// handleHistory serves POST /bot/history: nickName keys the conversation.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	req, err := decodeBotRequest(r, "message", "nickName")
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := s.chat.Invoke(r.Context(), model.QueryInput{
		SessionID: req.NickName,
		Query:     req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, s.botReply(reply))
}

// handleStream serves POST /bot/stream: the reply is written as plain text
// fragments; history is recorded once the full response has accumulated.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	req, err := decodeBotRequest(r, "message", "nickName")
	if err != nil {
		writeError(w, err)
		return
	}

	sr, err := s.chat.Stream(r.Context(), model.QueryInput{
		SessionID: req.NickName,
		Query:     req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	defer sr.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	flusher, _ := w.(http.Flusher)

	for {
		chunk, err := sr.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			// headers are gone; all we can do is stop the stream
			logx.Error().Err(err).Msg("response stream aborted")
			return
		}
		if chunk == "" {
			continue
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// handleTranslate serves POST /bot/translate: the caller-supplied role
// becomes the system instruction for this single exchange.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	req, err := decodeBotRequest(r, "message", "role")
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := s.chat.Invoke(r.Context(), model.QueryInput{
		Query:   req.Message,
		Persona: req.Role,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, s.botReply(reply))
}

// handleSearch serves POST /bot/search: live web results are injected as
// prompt context and returned alongside the finalized reply.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	req, err := decodeBotRequest(r, "message", "nickName")
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.searcher.Search(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := s.chat.Invoke(r.Context(), model.QueryInput{
		SessionID: req.NickName,
		Query:     req.Message,
		Context:   prompts.RenderSearchContext(search.FormatContext(results)),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, SearchReply{BotMessage: s.botReply(reply), Sources: results})
}

// handleQnA serves POST /qna: the retrieval pipeline runs against the
// configured source document, then answers through the QA prompt.
func (s *Server) handleQnA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	req, err := decodeBotRequest(r, "message", "nickName")
	if err != nil {
		writeError(w, err)
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, s.botReply(answer))
}

type articleRequest struct {
	Title           string `json:"title"`
	Contents        string `json:"contents"`
	CreatedMemberID int    `json:"created_memberid"`
}

// handleArticles serves GET (list) and POST (create) on /article.
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeOK(w, s.articles.List())
	case http.MethodPost:
		var req articleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errx.InvalidInput("malformed request body"))
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeError(w, errx.InvalidInput("title is required"))
			return
		}
		ip, _, _ := strings.Cut(r.RemoteAddr, ":")
		writeOK(w, s.articles.Create(req.Title, req.Contents, req.CreatedMemberID, ip))
	default:
		writeMethodNotAllowed(w)
	}
}

// handleArticleByID serves GET, PUT and DELETE on /article/{id}.
func (s *Server) handleArticleByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/article/"))
	if err != nil {
		writeError(w, errx.InvalidInput("invalid article id"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		a, err := s.articles.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, a)
	case http.MethodPut:
		var req articleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errx.InvalidInput("malformed request body"))
			return
		}
		a, err := s.articles.Update(id, req.Title, req.Contents)
		if err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, a)
	case http.MethodDelete:
		if err := s.articles.Delete(id); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, nil)
	default:
		writeMethodNotAllowed(w)
	}
}
