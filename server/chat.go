package server

import (
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/mlmentor/mlmentor/ai/assistant"
	"github.com/mlmentor/mlmentor/store"
)

const defaultChatName = "New chat"

type chatResponse struct {
	UID       string              `json:"uid"`
	Name      string              `json:"name"`
	Messages  []store.ChatMessage `json:"messages"`
	UpdatedTs int64               `json:"updatedTs"`
}

func toChatResponse(chat *store.Chat) *chatResponse {
	messages := chat.Messages
	if messages == nil {
		messages = []store.ChatMessage{}
	}
	return &chatResponse{
		UID:       chat.UID,
		Name:      chat.Name,
		Messages:  messages,
		UpdatedTs: chat.UpdatedTs,
	}
}

func (s *Server) listChats(c echo.Context) error {
	userID := currentUserID(c)
	chats, err := s.Store.ListChats(c.Request().Context(), &store.FindChat{UserID: &userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list chats")
	}

	resp := make([]*chatResponse, 0, len(chats))
	for _, chat := range chats {
		resp = append(resp, toChatResponse(chat))
	}
	return c.JSON(http.StatusOK, resp)
}

type createChatRequest struct {
	Name string `json:"name"`
}

func (s *Server) createChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultChatName
	}

	now := time.Now().Unix()
	chat, err := s.Store.CreateChat(c.Request().Context(), &store.Chat{
		UID:       shortuuid.New(),
		Name:      name,
		UserID:    currentUserID(c),
		Messages:  []store.ChatMessage{},
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create chat")
	}
	return c.JSON(http.StatusOK, toChatResponse(chat))
}

type renameChatRequest struct {
	Name string `json:"name"`
}

func (s *Server) renameChat(c echo.Context) error {
	var req renameChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	chat, err := s.findOwnChat(c)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	updated, err := s.Store.UpdateChat(c.Request().Context(), &store.UpdateChat{
		ID:        chat.ID,
		Name:      &name,
		UpdatedTs: &now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rename chat")
	}
	return c.JSON(http.StatusOK, toChatResponse(updated))
}

func (s *Server) deleteChat(c echo.Context) error {
	chat, err := s.findOwnChat(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteChat(c.Request().Context(), &store.DeleteChat{ID: chat.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete chat")
	}
	return c.NoContent(http.StatusNoContent)
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type postMessageResponse struct {
	Reply string        `json:"reply"`
	Chat  *chatResponse `json:"chat"`
}

// postMessage runs one assistant turn: append the user message, run the
// graph, and persist the transcript only when the turn fully succeeds.
func (s *Server) postMessage(c echo.Context) error {
	if s.graph == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "assistant is not configured")
	}

	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	chat, err := s.findOwnChat(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := s.turnSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "server is busy")
	}
	defer s.turnSemaphore.Release(1)

	state := &assistant.State{Messages: toAssistantMessages(chat.Messages)}
	state.Messages = append(state.Messages, assistant.Message{Role: assistant.RoleUser, Content: content})

	if err := s.graph.Run(ctx, state); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to generate a reply")
	}

	messages := toStoreMessages(state.Messages)
	now := time.Now().Unix()
	update := &store.UpdateChat{
		ID:        chat.ID,
		Messages:  &messages,
		UpdatedTs: &now,
	}
	if len(chat.Messages) == 0 && (chat.Name == "" || chat.Name == defaultChatName) {
		name := autoTitle(content)
		update.Name = &name
	}

	updated, err := s.Store.UpdateChat(ctx, update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist chat")
	}

	reply := state.Messages[len(state.Messages)-1].Content
	return c.JSON(http.StatusOK, &postMessageResponse{Reply: reply, Chat: toChatResponse(updated)})
}

// findOwnChat loads the chat from the :uid parameter, scoped to the caller.
func (s *Server) findOwnChat(c echo.Context) (*store.Chat, error) {
	uid := c.Param("uid")
	userID := currentUserID(c)
	chat, err := s.Store.GetChat(c.Request().Context(), &store.FindChat{UID: &uid, UserID: &userID})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to find chat")
	}
	if chat == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "chat not found")
	}
	return chat, nil
}

func toAssistantMessages(messages []store.ChatMessage) []assistant.Message {
	out := make([]assistant.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, assistant.Message{Role: assistant.Role(m.Role), Content: m.Content})
	}
	return out
}

func toStoreMessages(messages []assistant.Message) []store.ChatMessage {
	out := make([]store.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, store.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// autoTitle derives a chat name from the first message: the first six words,
// title-cased.
func autoTitle(content string) string {
	words := strings.Fields(content)
	if len(words) > 6 {
		words = words[:6]
	}
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	title := strings.Join(words, " ")
	if title == "" {
		return defaultChatName
	}
	return title
}
