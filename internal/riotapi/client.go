package riotapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound — апстрим ответил 404: аккаунта/матча/лиги не существует.
// Отличаем от транспортных ошибок, чтобы логировать их по-разному,
// хотя для монитора оба исхода значат «ничего не изменилось».
var ErrNotFound = errors.New("riot api: not found")

type Config struct {
	APIKey   string `json:"api_key"`
	Region   string `json:"region"`   // маршрутизация: europe, americas, asia
	Platform string `json:"platform"` // платформа: eun1, euw1, na1...
}

type Client struct {
	http     *http.Client
	key      string
	region   string
	platform string

	base string // переопределение хоста для тестов; пусто в продакшене
}

// LeagueEntry — запись ранговой очереди RANKED_TFT.
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
}

// Display — строка вида "GOLD II" (UNRANKED без дивизиона).
func (e LeagueEntry) Display() string {
	return strings.TrimSpace(e.Tier + " " + e.Rank)
}

// MatchSummary — итог одного матча для конкретного игрока.
// Живёт один цикл опроса, нигде не сохраняется.
type MatchSummary struct {
	ID        string
	Placement int
	GoldLeft  int
	LastRound int
	Time      int64 // game_datetime, epoch millis
}

func New(cfg Config) *Client {
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		key:      cfg.APIKey,
		region:   cfg.Region,
		platform: cfg.Platform,
	}
}

func (c *Client) regionURL(path string) string {
	if c.base != "" {
		return c.base + path
	}
	return fmt.Sprintf("https://%s.api.riotgames.com%s", c.region, path)
}

func (c *Client) platformURL(path string) string {
	if c.base != "" {
		return c.base + path
	}
	return fmt.Sprintf("https://%s.api.riotgames.com%s", c.platform, path)
}

// getJSON — один GET с классификацией статуса. 404 → ErrNotFound,
// прочие не-2xx → ошибка со статусом. Ключ уходит заголовком, не в URL.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Riot-Token", c.key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("riot api: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ResolveRiotID — Nick#Tag → puuid через account-v1 (регинальный кластер).
func (c *Client) ResolveRiotID(ctx context.Context, name, tag string) (string, error) {
	var acc struct {
		PUUID string `json:"puuid"`
	}
	u := c.regionURL("/riot/account/v1/accounts/by-riot-id/" +
		url.PathEscape(name) + "/" + url.PathEscape(tag))
	if err := c.getJSON(ctx, u, &acc); err != nil {
		return "", err
	}
	if acc.PUUID == "" {
		return "", ErrNotFound
	}
	return acc.PUUID, nil
}

// ActiveGame — true, только если апстрим подтвердил активный матч.
// 404 здесь штатный ответ «не в игре», а не ошибка.
func (c *Client) ActiveGame(ctx context.Context, puuid string) (bool, error) {
	u := c.platformURL("/tft/spectator/v1/active-games/by-puuid/" + url.PathEscape(puuid))
	err := c.getJSON(ctx, u, nil)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RankEntry — ранг в RANKED_TFT. Лига до сих пор ходит по summonerId,
// поэтому сначала разворачиваем puuid через tft/summoner.
// Отсутствие записи RANKED_TFT — это UNRANKED, 0 LP, не ошибка.
func (c *Client) RankEntry(ctx context.Context, puuid string) (LeagueEntry, error) {
	var summ struct {
		ID string `json:"id"`
	}
	u := c.platformURL("/tft/summoner/v1/summoners/by-puuid/" + url.PathEscape(puuid))
	if err := c.getJSON(ctx, u, &summ); err != nil {
		return LeagueEntry{}, err
	}

	var entries []LeagueEntry
	u = c.platformURL("/tft/league/v1/entries/by-summoner/" + url.PathEscape(summ.ID))
	if err := c.getJSON(ctx, u, &entries); err != nil && !errors.Is(err, ErrNotFound) {
		return LeagueEntry{}, err
	}
	for _, e := range entries {
		if e.QueueType == "RANKED_TFT" {
			return e, nil
		}
	}
	return LeagueEntry{QueueType: "RANKED_TFT", Tier: "UNRANKED"}, nil
}

// LatestMatch — последний завершённый матч игрока: список id (count=1),
// затем детали. Пустая история → (nil, nil).
func (c *Client) LatestMatch(ctx context.Context, puuid string) (*MatchSummary, error) {
	var ids []string
	u := c.regionURL("/tft/match/v1/matches/by-puuid/" + url.PathEscape(puuid) + "/ids?count=1")
	if err := c.getJSON(ctx, u, &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	matchID := ids[0]

	var detail struct {
		Info struct {
			GameDatetime int64 `json:"game_datetime"`
			Participants []struct {
				PUUID     string `json:"puuid"`
				Placement int    `json:"placement"`
				GoldLeft  int    `json:"gold_left"`
				LastRound int    `json:"last_round"`
			} `json:"participants"`
		} `json:"info"`
	}
	u = c.regionURL("/tft/match/v1/matches/" + url.PathEscape(matchID))
	if err := c.getJSON(ctx, u, &detail); err != nil {
		return nil, err
	}

	for _, p := range detail.Info.Participants {
		if p.PUUID == puuid {
			return &MatchSummary{
				ID:        matchID,
				Placement: p.Placement,
				GoldLeft:  p.GoldLeft,
				LastRound: p.LastRound,
				Time:      detail.Info.GameDatetime,
			}, nil
		}
	}
	return nil, fmt.Errorf("riot api: match %s: participant not in response", matchID)
}
