package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiBase = "https://discord.com/api/v10"

// ErrUnknownMessage — сообщение удалено или никогда не существовало (404).
// Лидерборд по этой ошибке публикует себя заново вместо правки.
var ErrUnknownMessage = errors.New("discord: unknown message")

// Session — REST-часть клиента: отправка/правка сообщений, регистрация
// команд, ответы на интеракции. Gateway живёт отдельно.
type Session struct {
	http  *http.Client
	token string
	appID string

	base string // переопределение для тестов; пусто в продакшене
}

func NewSession(token, appID string) *Session {
	return &Session{
		http:  &http.Client{Timeout: 10 * time.Second},
		token: token,
		appID: appID,
	}
}

func (s *Session) url(path string) string {
	if s.base != "" {
		return s.base + path
	}
	return apiBase + path
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url(path), rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUnknownMessage
	}
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("discord: %s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SendEmbed — публикует embed в канал, возвращает id сообщения.
func (s *Session) SendEmbed(ctx context.Context, channelID string, emb *Embed) (string, error) {
	var msg struct {
		ID string `json:"id"`
	}
	err := s.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages",
		map[string]any{"embeds": []*Embed{emb}}, &msg)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditEmbed — правит существующее сообщение на месте.
func (s *Session) EditEmbed(ctx context.Context, channelID, messageID string, emb *Embed) error {
	return s.do(ctx, http.MethodPatch, "/channels/"+channelID+"/messages/"+messageID,
		map[string]any{"embeds": []*Embed{emb}}, nil)
}

// BulkRegisterCommands — PUT перезаписывает весь набор глобальных команд,
// поэтому повторная регистрация на реконнекте безопасна.
func (s *Session) BulkRegisterCommands(ctx context.Context, cmds []ApplicationCommand) error {
	return s.do(ctx, http.MethodPut, "/applications/"+s.appID+"/commands", cmds, nil)
}

const respondChannelMessage = 4

// RespondToInteraction — синхронный ответ на slash-команду.
func (s *Session) RespondToInteraction(ctx context.Context, i *Interaction, content string) error {
	return s.do(ctx, http.MethodPost, "/interactions/"+i.ID+"/"+i.Token+"/callback",
		map[string]any{
			"type": respondChannelMessage,
			"data": map[string]any{"content": content},
		}, nil)
}
