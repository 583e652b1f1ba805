package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"example.com/tftwatch/internal/discord"
	"example.com/tftwatch/internal/riotapi"
)

// startScan — запускает фоновый цикл опроса. Один тикер, один цикл за раз:
// time.Ticker схлопывает пропущенные тики, так что затянувшийся цикл просто
// сдвигает следующий, а не запускает параллельный.
func (b *Bot) startScan(ctx context.Context, interval time.Duration) {
	b.scanMu.Lock()
	if b.scanning {
		b.scanMu.Unlock()
		return
	}
	b.scanning = true
	b.scanStop = make(chan struct{})
	b.scanMu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				// гейтвей в реконнекте? уведомления всё равно не дойдут —
				// пропускаем тик, следующий сам всё догонит
				if b.gw != nil && !b.gw.IsConnected() {
					continue
				}
				b.runCycle(ctx)
			case <-b.scanStop:
				return
			}
		}
	}()
}

func (b *Bot) stopScan() {
	b.scanMu.Lock()
	defer b.scanMu.Unlock()
	if !b.scanning {
		return
	}
	close(b.scanStop)
	b.scanning = false
}

// runCycle — один полный проход: каждый игрок последовательно, после каждой
// мутации — персист, в конце цикла — обновление лидерборда (всегда, даже без
// переходов: статус live/AFK должен оставаться свежим).
//
// Любая ошибка апстрима деградирует до «ничего не изменилось» для этого
// игрока в этом цикле: пропущенный цикл безвреден, интервал опроса и есть
// наш retry.
func (b *Bot) runCycle(ctx context.Context) {
	for _, rec := range b.store.Players() {
		rec := rec

		live, err := b.riot.ActiveGame(ctx, rec.PUUID)
		if err != nil {
			log.Printf("[monitor] live %s: %v", rec.Name, err)
			live = false
		}

		match, err := b.riot.LatestMatch(ctx, rec.PUUID)
		if err != nil {
			log.Printf("[monitor] match %s: %v", rec.Name, err)
			match = nil
		}

		events, dirty := advance(&rec, live, match, func() (riotapi.LeagueEntry, bool) {
			entry, err := b.riot.RankEntry(ctx, rec.PUUID)
			if err != nil {
				log.Printf("[monitor] rank %s: %v", rec.Name, err)
				return riotapi.LeagueEntry{}, false
			}
			return entry, true
		})

		// сначала персист, потом уведомления: упав между ними, потеряем
		// алерт, но никогда не продублируем его после рестарта
		if dirty {
			b.store.SetPlayer(rec)
			if err := b.store.Save(); err != nil {
				log.Printf("[store] save: %v", err)
			}
		}

		for _, ev := range events {
			b.notify(ctx, ev)
		}
	}

	b.updateLeaderboard(ctx)
}

// notify — рендер и отправка одного события. Ошибки доставки только
// логируются: пропавший алерт не должен останавливать ни цикл, ни процесс.
func (b *Bot) notify(ctx context.Context, ev Event) {
	var emb *discord.Embed

	switch e := ev.(type) {
	case EnteredGame:
		emb = &discord.Embed{
			Title:     fmt.Sprintf("🚀 [LIVE] %s начал игру!", e.Player),
			Color:     0x5865F2,
			Timestamp: discord.Now(),
		}
	case MatchCompleted:
		color := 0xE74C3C
		if goodPlacement(e.Placement) {
			color = 0x2ECC71
		}
		// штамп — время самого матча, а не момент отправки
		ts := discord.Now()
		if e.Time > 0 {
			ts = time.UnixMilli(e.Time).UTC().Format(time.RFC3339)
		}
		emb = &discord.Embed{
			Title: fmt.Sprintf("🏁 Результат: %s", e.Player),
			Color: color,
			Fields: []discord.EmbedField{
				{Name: "Место", Value: fmt.Sprintf("#%d", e.Placement), Inline: true},
				{Name: "Ранг", Value: fmt.Sprintf("%s (%d LP)", displayRank(e.Rank), e.LP), Inline: true},
				{Name: "Раунд", Value: fmt.Sprintf("%d (золота: %d)", e.LastRound, e.GoldLeft), Inline: true},
			},
			Footer:    &discord.EmbedFooter{Text: "Матч: " + e.MatchID},
			Timestamp: ts,
		}
	default:
		return
	}

	if _, err := b.pub.SendEmbed(ctx, b.alertChannel, emb); err != nil {
		log.Printf("[notify] send: %v", err)
	}
}
