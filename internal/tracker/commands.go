package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"example.com/tftwatch/internal/discord"
	"example.com/tftwatch/internal/riotapi"
)

var slashCommands = []discord.ApplicationCommand{
	{
		Name:        "track",
		Description: "Следить за игроком (Riot API)",
		Options: []discord.CommandOption{
			{Type: discord.OptionString, Name: "nick", Description: "Nick#Tag", Required: true},
		},
	},
	{
		Name:        "untrack",
		Description: "Убрать игрока из слежки",
		Options: []discord.CommandOption{
			{Type: discord.OptionString, Name: "nick", Description: "Nick#Tag", Required: true},
		},
	},
}

// splitHandle — "Nick#Tag" → (Nick, Tag).
func splitHandle(s string) (name, tag string, ok bool) {
	name, tag, ok = strings.Cut(s, "#")
	if !ok || name == "" || tag == "" {
		return "", "", false
	}
	return name, tag, true
}

func (b *Bot) handleInteraction(i *discord.Interaction) {
	if i.Type != discord.InteractionApplicationCommand {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	say := func(msg string) {
		if err := b.pub.RespondToInteraction(ctx, i, msg); err != nil {
			log.Printf("[cmd] respond: %v", err)
		}
	}

	switch i.Data.Name {
	case "track":
		nick := i.StringOption("nick")
		name, tag, ok := splitHandle(nick)
		if !ok {
			say("❌ Формат: Nick#Tag")
			return
		}
		if _, exists := b.store.FindByName(nick); exists {
			say(fmt.Sprintf("**%s** уже отслеживается.", nick))
			return
		}

		puuid, err := b.riot.ResolveRiotID(ctx, name, tag)
		if err != nil {
			// любая ошибка на этой границе — «не нашли»: лучше не взять
			// игрока, чем взять неразрешённого
			if !errors.Is(err, riotapi.ErrNotFound) {
				log.Printf("[cmd] resolve %s: %v", nick, err)
			}
			say("❌ Игрок с таким ID не найден.")
			return
		}

		// свежая запись: LastMatchID=nil — сентинел «матчей ещё не видели»,
		// первый наблюдённый матч станет базой и уведомления не даст
		b.store.Add(PlayerRecord{Name: nick, PUUID: puuid})
		if err := b.store.Save(); err != nil {
			log.Printf("[store] save: %v", err)
		}
		say(fmt.Sprintf("✅ Теперь слежу за **%s** через Riot API.", nick))

	case "untrack":
		nick := i.StringOption("nick")
		if !b.store.RemoveByName(nick) {
			say(fmt.Sprintf("**%s** и так не отслеживается.", nick))
			return
		}
		if err := b.store.Save(); err != nil {
			log.Printf("[store] save: %v", err)
		}
		say(fmt.Sprintf("Убрал **%s** из слежки.", nick))

	default:
		say("Неизвестная команда.")
	}
}
