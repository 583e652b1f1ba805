package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"example.com/tftwatch/internal/discord"
)

func displayRank(rank string) string {
	if rank == "" {
		return "UNRANKED"
	}
	return rank
}

// buildLeaderboard — сводка по всему ростеру в один embed.
func buildLeaderboard(players []PlayerRecord) *discord.Embed {
	var sb strings.Builder
	for _, p := range players {
		status := "💤 AFK"
		if p.InGame {
			status = "🔴 **В ИГРЕ**"
		}
		fmt.Fprintf(&sb, "**%s** — %s (%d LP)\nСтатус: %s\n\n", p.Name, displayRank(p.Rank), p.LP, status)
	}
	desc := sb.String()
	if desc == "" {
		desc = "Пока пусто — добавь игрока через /track"
	}
	return &discord.Embed{
		Title:       "🏆 TFT LEADERBOARD",
		Color:       0xF1C40F,
		Description: desc,
		Timestamp:   discord.Now(),
	}
}

// updateLeaderboard — сверка с опубликованным сообщением: правим на месте,
// а если его удалили руками — публикуем заново и запоминаем новый id.
// Транзиентная ошибка правки дубликат НЕ создаёт, просто ждём следующий цикл.
func (b *Bot) updateLeaderboard(ctx context.Context) {
	emb := buildLeaderboard(b.store.Players())

	if id := b.store.TopMessageID(); id != "" {
		err := b.pub.EditEmbed(ctx, b.topChannel, id, emb)
		if err == nil {
			return
		}
		if !errors.Is(err, discord.ErrUnknownMessage) {
			log.Printf("[top] edit: %v", err)
			return
		}
		// сообщение пропало — проваливаемся в публикацию нового
	}

	id, err := b.pub.SendEmbed(ctx, b.topChannel, emb)
	if err != nil {
		log.Printf("[top] send: %v", err)
		return
	}
	b.store.SetTopMessageID(id)
	if err := b.store.Save(); err != nil {
		log.Printf("[store] save: %v", err)
	}
}
