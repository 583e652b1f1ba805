package tracker

import "example.com/tftwatch/internal/riotapi"

// Event — то, что цикл монитора хочет донести до канала уведомлений.
type Event interface {
	event()
}

// EnteredGame — игрок зашёл в матч (переход inGame false→true).
type EnteredGame struct {
	Player string
}

// MatchCompleted — появился новый завершённый матч.
type MatchCompleted struct {
	Player    string
	Placement int
	Rank      string
	LP        int
	MatchID   string
	GoldLeft  int
	LastRound int
	Time      int64 // game_datetime матча, epoch millis
}

func (EnteredGame) event()    {}
func (MatchCompleted) event() {}

// goodPlacement — топ-4 лобби из восьми считается хорошим результатом.
// Движок отдаёт placement как есть, это чисто раскраска уведомления.
const placementCutoff = 4

func goodPlacement(p int) bool {
	return p <= placementCutoff
}

// rankFn — ленивое получение ранга: дёргаем API только когда увидели новый
// матч. ok=false значит «не получилось», тогда оставляем прежние ранг и LP.
type rankFn func() (riotapi.LeagueEntry, bool)

// advance — сердце монитора: сравнивает запись игрока со свежим состоянием
// апстрима и применяет переходы. Порядок фиксированный: сначала live-статус,
// затем результат матча, так что «доиграл и сразу начал новый» даёт оба
// события за один цикл, live первым.
//
// Возвращает события для отправки и dirty=true, если запись изменилась и её
// надо персистить. Повторный вызов с теми же данными апстрима ничего не
// меняет и событий не даёт.
func advance(rec *PlayerRecord, live bool, match *riotapi.MatchSummary, rank rankFn) (events []Event, dirty bool) {
	// 1. live-переход: вход в игру анонсируем, выход — нет
	//    (его и так видно по последующему уведомлению о результате)
	if live && !rec.InGame {
		rec.InGame = true
		dirty = true
		events = append(events, EnteredGame{Player: rec.Name})
	} else if !live && rec.InGame {
		rec.InGame = false
		dirty = true
	}

	// 2. результат матча
	if match != nil && (rec.LastMatchID == nil || *rec.LastMatchID != match.ID) {
		first := rec.LastMatchID == nil
		id := match.ID
		rec.LastMatchID = &id
		if entry, ok := rank(); ok {
			rec.Rank = entry.Display()
			rec.LP = entry.LeaguePoints
		}
		dirty = true

		// первый увиденный матч — это базовая линия, молчим
		if !first {
			events = append(events, MatchCompleted{
				Player:    rec.Name,
				Placement: match.Placement,
				Rank:      rec.Rank,
				LP:        rec.LP,
				MatchID:   match.ID,
				GoldLeft:  match.GoldLeft,
				LastRound: match.LastRound,
				Time:      match.Time,
			})
		}
	}

	// 3. ничего не случилось — dirty=false, запись не перезаписываем
	return events, dirty
}
