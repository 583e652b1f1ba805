package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/tftwatch/internal/discord"
	"example.com/tftwatch/internal/riotapi"
)

// ---------- фейки ----------

type fakeRiot struct {
	live    map[string]bool
	match   map[string]*riotapi.MatchSummary
	rank    map[string]riotapi.LeagueEntry
	resolve map[string]string // "Name#Tag" -> puuid

	liveErr, matchErr, rankErr error
}

func (f *fakeRiot) ResolveRiotID(_ context.Context, name, tag string) (string, error) {
	if p, ok := f.resolve[name+"#"+tag]; ok {
		return p, nil
	}
	return "", riotapi.ErrNotFound
}

func (f *fakeRiot) ActiveGame(_ context.Context, puuid string) (bool, error) {
	if f.liveErr != nil {
		return false, f.liveErr
	}
	return f.live[puuid], nil
}

func (f *fakeRiot) RankEntry(_ context.Context, puuid string) (riotapi.LeagueEntry, error) {
	if f.rankErr != nil {
		return riotapi.LeagueEntry{}, f.rankErr
	}
	return f.rank[puuid], nil
}

func (f *fakeRiot) LatestMatch(_ context.Context, puuid string) (*riotapi.MatchSummary, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	return f.match[puuid], nil
}

type sent struct {
	channel string
	emb     *discord.Embed
}

type edited struct {
	channel, message string
}

type fakePub struct {
	sends   []sent
	edits   []edited
	replies []string

	editErr error
	nextID  int
}

func (f *fakePub) SendEmbed(_ context.Context, channelID string, emb *discord.Embed) (string, error) {
	f.nextID++
	f.sends = append(f.sends, sent{channel: channelID, emb: emb})
	return fmt.Sprintf("m%d", f.nextID), nil
}

func (f *fakePub) EditEmbed(_ context.Context, channelID, messageID string, _ *discord.Embed) error {
	f.edits = append(f.edits, edited{channel: channelID, message: messageID})
	return f.editErr
}

func (f *fakePub) RespondToInteraction(_ context.Context, _ *discord.Interaction, content string) error {
	f.replies = append(f.replies, content)
	return nil
}

func (f *fakePub) alerts() []sent {
	var out []sent
	for _, s := range f.sends {
		if s.channel == "alerts" {
			out = append(out, s)
		}
	}
	return out
}

func testBot(t *testing.T, riot statsAPI, pub publisher) *Bot {
	t.Helper()
	b := New()
	b.riot = riot
	b.pub = pub
	b.store = tempStore(t)
	b.alertChannel = "alerts"
	b.topChannel = "top"
	return b
}

// ---------- сценарии цикла ----------

func TestCycleScenarioLiveThenResult(t *testing.T) {
	base := "EUN1_1"
	riot := &fakeRiot{
		live:  map[string]bool{"p1": true},
		match: map[string]*riotapi.MatchSummary{"p1": {ID: base, Placement: 6}},
		rank:  map[string]riotapi.LeagueEntry{"p1": {QueueType: "RANKED_TFT", Tier: "GOLD", Rank: "II", LeaguePoints: 42}},
	}
	pub := &fakePub{}
	b := testBot(t, riot, pub)
	b.store.Add(PlayerRecord{Name: "Kot#EUNE", PUUID: "p1", LastMatchID: &base})

	// цикл 1: игрок зашёл в игру
	b.runCycle(context.Background())

	alerts := pub.alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].emb.Title, "[LIVE]")
	assert.Contains(t, alerts[0].emb.Title, "Kot#EUNE")

	players := b.store.Players()
	require.Len(t, players, 1)
	assert.True(t, players[0].InGame)

	// цикл 2: вышел из игры, появился новый матч с 3-м местом
	riot.live["p1"] = false
	riot.match["p1"] = &riotapi.MatchSummary{ID: "EUN1_2", Placement: 3, GoldLeft: 4, LastRound: 30, Time: 1700000000000}

	b.runCycle(context.Background())

	alerts = pub.alerts()
	require.Len(t, alerts, 2, "выход из игры сам по себе не алерт")
	res := alerts[1].emb
	assert.Contains(t, res.Title, "Kot#EUNE")
	assert.Equal(t, 0x2ECC71, res.Color, "топ-4 из восьми красим зелёным")
	assert.Equal(t, "#3", res.Fields[0].Value)
	assert.Equal(t, "2023-11-14T22:13:20Z", res.Timestamp, "штамп — время матча, не отправки")

	players = b.store.Players()
	assert.False(t, players[0].InGame)
	require.NotNil(t, players[0].LastMatchID)
	assert.Equal(t, "EUN1_2", *players[0].LastMatchID)
	assert.Equal(t, "GOLD II", players[0].Rank)
	assert.Equal(t, 42, players[0].LP)
}

func TestCycleBadPlacementColoredRed(t *testing.T) {
	base := "EUN1_1"
	riot := &fakeRiot{
		match: map[string]*riotapi.MatchSummary{"p1": {ID: "EUN1_2", Placement: 8}},
		rank:  map[string]riotapi.LeagueEntry{"p1": {QueueType: "RANKED_TFT", Tier: "GOLD", Rank: "II"}},
	}
	pub := &fakePub{}
	b := testBot(t, riot, pub)
	b.store.Add(PlayerRecord{Name: "Kot#EUNE", PUUID: "p1", LastMatchID: &base})

	b.runCycle(context.Background())

	alerts := pub.alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, 0xE74C3C, alerts[0].emb.Color)
}

func TestCycleUpstreamErrorsDegradeToNoChange(t *testing.T) {
	base := "EUN1_1"
	riot := &fakeRiot{
		liveErr:  errors.New("riot api: status 503"),
		matchErr: errors.New("riot api: status 503"),
	}
	pub := &fakePub{}
	b := testBot(t, riot, pub)
	b.store.Add(PlayerRecord{Name: "Kot#EUNE", PUUID: "p1", InGame: false, LastMatchID: &base, Rank: "GOLD II", LP: 42})

	b.runCycle(context.Background())

	assert.Empty(t, pub.alerts(), "ошибки апстрима не должны давать событий")
	players := b.store.Players()
	assert.False(t, players[0].InGame)
	assert.Equal(t, "EUN1_1", *players[0].LastMatchID)
	assert.Equal(t, "GOLD II", players[0].Rank)

	// лидерборд обновляется даже в полностью неудачный цикл
	require.Len(t, pub.sends, 1)
	assert.Equal(t, "top", pub.sends[0].channel)
}

func TestCyclePersistsEachPlayerBeforeNext(t *testing.T) {
	riot := &fakeRiot{
		live: map[string]bool{"p1": true, "p2": true},
	}
	pub := &fakePub{}
	b := testBot(t, riot, pub)
	b.store.Add(PlayerRecord{Name: "Kot#EUNE", PUUID: "p1"})
	b.store.Add(PlayerRecord{Name: "Pies#EUNE", PUUID: "p2"})

	b.runCycle(context.Background())

	// перечитываем снапшот с диска: обе мутации долетели
	re := NewStore(b.store.path)
	require.NoError(t, re.Load())
	for _, p := range re.Players() {
		assert.True(t, p.InGame, p.Name)
	}
}

// ---------- сверка лидерборда ----------

func TestLeaderboardFirstPublishStoresMessageID(t *testing.T) {
	pub := &fakePub{}
	b := testBot(t, &fakeRiot{}, pub)
	b.store.Add(PlayerRecord{Name: "Kot#EUNE", PUUID: "p1", Rank: "GOLD II", LP: 42})

	b.updateLeaderboard(context.Background())

	require.Len(t, pub.sends, 1)
	assert.Empty(t, pub.edits)
	assert.Equal(t, "m1", b.store.TopMessageID())
	assert.Contains(t, pub.sends[0].emb.Description, "Kot#EUNE")
}

func TestLeaderboardEditsExistingMessageInPlace(t *testing.T) {
	pub := &fakePub{}
	b := testBot(t, &fakeRiot{}, pub)
	b.store.SetTopMessageID("m1")

	b.updateLeaderboard(context.Background())

	require.Len(t, pub.edits, 1, "ровно одна правка")
	assert.Equal(t, "m1", pub.edits[0].message)
	assert.Empty(t, pub.sends, "нового сообщения не создаём")
	assert.Equal(t, "m1", b.store.TopMessageID())
}

func TestLeaderboardRepublishesWhenMessageDeleted(t *testing.T) {
	pub := &fakePub{editErr: discord.ErrUnknownMessage}
	b := testBot(t, &fakeRiot{}, pub)
	b.store.SetTopMessageID("m-deleted")

	b.updateLeaderboard(context.Background())

	require.Len(t, pub.edits, 1)
	require.Len(t, pub.sends, 1, "сообщение удалили — публикуем заново")
	assert.Equal(t, "m1", b.store.TopMessageID())
}

func TestLeaderboardTransientEditErrorDoesNotDuplicate(t *testing.T) {
	pub := &fakePub{editErr: errors.New("discord: status 500")}
	b := testBot(t, &fakeRiot{}, pub)
	b.store.SetTopMessageID("m1")

	b.updateLeaderboard(context.Background())

	require.Len(t, pub.edits, 1)
	assert.Empty(t, pub.sends, "транзиентная ошибка правки — не повод плодить дубликаты")
	assert.Equal(t, "m1", b.store.TopMessageID())
}

func TestLeaderboardEmptyRosterPlaceholder(t *testing.T) {
	emb := buildLeaderboard(nil)
	assert.Contains(t, emb.Description, "/track")
}

func TestLeaderboardShowsLiveStatus(t *testing.T) {
	emb := buildLeaderboard([]PlayerRecord{
		{Name: "Kot#EUNE", Rank: "GOLD II", LP: 42, InGame: true},
		{Name: "Pies#EUNE"},
	})
	assert.Contains(t, emb.Description, "В ИГРЕ")
	assert.Contains(t, emb.Description, "AFK")
	assert.Contains(t, emb.Description, "UNRANKED", "пустой ранг показываем как UNRANKED")
}
