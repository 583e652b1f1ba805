package tracker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"example.com/tftwatch/internal/discord"
	"example.com/tftwatch/internal/riotapi"
)

// statsAPI — то, что монитору нужно от Riot API.
type statsAPI interface {
	ResolveRiotID(ctx context.Context, name, tag string) (string, error)
	ActiveGame(ctx context.Context, puuid string) (bool, error)
	RankEntry(ctx context.Context, puuid string) (riotapi.LeagueEntry, error)
	LatestMatch(ctx context.Context, puuid string) (*riotapi.MatchSummary, error)
}

// publisher — то, что монитору нужно от Discord REST.
type publisher interface {
	SendEmbed(ctx context.Context, channelID string, emb *discord.Embed) (string, error)
	EditEmbed(ctx context.Context, channelID, messageID string, emb *discord.Embed) error
	RespondToInteraction(ctx context.Context, i *discord.Interaction, content string) error
}

// commandRegistrar — узкий интерфейс под единственный вызов регистрации.
type commandRegistrar interface {
	BulkRegisterCommands(ctx context.Context, cmds []discord.ApplicationCommand) error
}

type Bot struct {
	pub  publisher
	reg  commandRegistrar
	gw   *discord.Gateway
	riot statsAPI

	store *Store

	alertChannel string
	topChannel   string
	interval     time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// чтобы не регистрировать команды повторно при серии быстрых реконнектов
	readyMu   sync.Mutex
	lastReady time.Time

	// монитор
	scanMu   sync.Mutex
	scanning bool
	scanStop chan struct{}
}

func New() *Bot {
	return &Bot{interval: time.Minute}
}

func (b *Bot) SetDiscord(token, appID string) {
	sess := discord.NewSession(token, appID)
	b.pub = sess
	b.reg = sess
	b.gw = discord.NewGateway(token)

	b.gw.OnConnecting = func() { log.Println("[discord] connecting...") }

	// КЛЮЧЕВОЕ: READY приходит и на первом коннекте, и на каждом реконнекте —
	// PUT-регистрация команд идемпотентна, поэтому просто повторяем её
	b.gw.OnReady = func() {
		log.Println("[discord] ready")
		b.registerCommands()
	}

	b.gw.OnError = func(err error) { log.Println("[discord] err:", err) }

	b.gw.OnInteraction = func(i *discord.Interaction) {
		b.handleInteraction(i)
	}
}

func (b *Bot) SetRiot(c *riotapi.Client) {
	b.riot = c
}

func (b *Bot) SetChannels(alertChannelID, topChannelID string) {
	b.alertChannel = alertChannelID
	b.topChannel = topChannelID
}

func (b *Bot) SetPollInterval(d time.Duration) {
	if d > 0 {
		b.interval = d
	}
}

// UseStore — подключает ростер с диска. Битый или отсутствующий файл даёт
// пустой ростер (Store сам логирует предупреждение), это не ошибка.
func (b *Bot) UseStore(path string) error {
	st := NewStore(path)
	if err := st.Load(); err != nil {
		return err
	}
	b.store = st
	return nil
}

func (b *Bot) Start() error {
	if b == nil {
		return errors.New("бот не инициализирован")
	}
	if b.gw == nil || b.pub == nil {
		return errors.New("модуль discord не инициализирован")
	}
	if b.riot == nil {
		return errors.New("модуль riot api не инициализирован")
	}
	if b.store == nil {
		return errors.New("ростер не подключен (вызови UseStore)")
	}

	b.mu.Lock()
	if b.stopCh != nil {
		b.mu.Unlock()
		return errors.New("уже запущен")
	}
	b.stopCh = make(chan struct{})
	stopCh := b.stopCh
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	if err := b.gw.Connect(ctx); err != nil {
		cancel()
		b.mu.Lock()
		b.stopCh = nil
		b.mu.Unlock()
		return err
	}

	b.startScan(ctx, b.interval)

	// сторож для остановки
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		<-stopCh
		b.stopScan()
		cancel()
		b.gw.Disconnect()
	}()

	return nil
}

func (b *Bot) Stop() {
	b.mu.Lock()
	ch := b.stopCh
	b.stopCh = nil
	b.mu.Unlock()

	if ch != nil {
		close(ch)   // безопасно: повторный Stop() ничего не делает
		b.wg.Wait() // дождёмся остановки фоновых горутин
	}
}

func (b *Bot) registerCommands() {
	// антидребезг: READY может прилететь несколько раз подряд
	b.readyMu.Lock()
	if time.Since(b.lastReady) < 2*time.Second {
		b.readyMu.Unlock()
		return
	}
	b.lastReady = time.Now()
	b.readyMu.Unlock()

	if b.reg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := b.reg.BulkRegisterCommands(ctx, slashCommands); err != nil {
		log.Println("[discord] register commands:", err)
	}
}
