package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T, handler http.HandlerFunc) *Session {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := NewSession("token", "app1")
	s.base = srv.URL
	return s
}

func TestSendEmbed(t *testing.T) {
	s := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/channels/ch1/messages", r.URL.Path)
		assert.Equal(t, "Bot token", r.Header.Get("Authorization"))

		var body struct {
			Embeds []Embed `json:"embeds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Embeds, 1)
		assert.Equal(t, "hello", body.Embeds[0].Title)

		w.Write([]byte(`{"id":"m1"}`))
	})

	id, err := s.SendEmbed(context.Background(), "ch1", &Embed{Title: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "m1", id)
}

func TestEditEmbedUnknownMessage(t *testing.T) {
	s := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	err := s.EditEmbed(context.Background(), "ch1", "m-deleted", &Embed{})
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestBulkRegisterCommands(t *testing.T) {
	s := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/applications/app1/commands", r.URL.Path)
		w.Write([]byte(`[]`))
	})

	err := s.BulkRegisterCommands(context.Background(), []ApplicationCommand{{Name: "track"}})
	assert.NoError(t, err)
}

func TestRespondToInteraction(t *testing.T) {
	s := testSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/interactions/i1/tok/callback", r.URL.Path)
		var body struct {
			Type int `json:"type"`
			Data struct {
				Content string `json:"content"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, respondChannelMessage, body.Type)
		assert.Equal(t, "ok", body.Data.Content)
		w.WriteHeader(http.StatusNoContent)
	})

	err := s.RespondToInteraction(context.Background(), &Interaction{ID: "i1", Token: "tok"}, "ok")
	assert.NoError(t, err)
}

func TestInteractionStringOption(t *testing.T) {
	raw := `{"id":"i1","type":2,"data":{"name":"track","options":[{"name":"nick","value":"Kot#EUNE"}]}}`
	var i Interaction
	require.NoError(t, json.Unmarshal([]byte(raw), &i))
	assert.Equal(t, "Kot#EUNE", i.StringOption("nick"))
	assert.Equal(t, "", i.StringOption("missing"))
}
