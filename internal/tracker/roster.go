package tracker

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// PlayerRecord — отслеживаемый игрок. Name и PUUID неизменны после /track,
// остальное мутирует только цикл монитора (и /untrack удаляет запись целиком).
//
// LastMatchID == nil — сентинел «ещё не видели ни одного матча»: ровно это
// состояние глушит самое первое уведомление, чтобы взятый на трекинг игрок
// не получил алерт за матч, сыгранный до начала слежки.
type PlayerRecord struct {
	Name        string  `json:"name"`
	PUUID       string  `json:"puuid"`
	InGame      bool    `json:"inGame"`
	LastMatchID *string `json:"lastMatchId"`
	Rank        string  `json:"rank"`
	LP          int     `json:"lp"`
}

// Roster — единица персистентности: игроки плюс id опубликованного
// лидерборда. Сохраняется целиком после каждой мутации.
type Roster struct {
	Players          []PlayerRecord `json:"players"`
	LastTopMessageID string         `json:"lastTopMessageId,omitempty"`
}

// Store — JSON-снапшот ростера на диске. Save перезаписывает файл целиком,
// никакого инкрементального формата.
type Store struct {
	mu   sync.Mutex
	path string
	data Roster
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.path
	_ = os.MkdirAll(filepath.Dir(f), 0755)
	b, err := os.ReadFile(f)
	if err != nil {
		if os.IsNotExist(err) {
			return s.saveLocked() // создаём пустой
		}
		return err
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		// битая база — не повод падать, начинаем с чистого ростера
		log.Printf("[store] повреждённая база %s, сбрасываю: %v", f, err)
		s.data = Roster{}
	}
	return nil
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	b, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0644)
}

// Players — копия списка; вызывающий не может задеть внутреннее состояние.
func (s *Store) Players() []PlayerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]PlayerRecord, len(s.data.Players))
	copy(cp, s.data.Players)
	return cp
}

func (s *Store) FindByName(name string) (PlayerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.Players {
		if p.Name == name {
			return p, true
		}
	}
	return PlayerRecord{}, false
}

func (s *Store) Add(rec PlayerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Players = append(s.data.Players, rec)
}

func (s *Store) RemoveByName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlayerRecord, 0, len(s.data.Players))
	removed := false
	for _, p := range s.data.Players {
		if p.Name == name {
			removed = true
			continue
		}
		out = append(out, p)
	}
	s.data.Players = out
	return removed
}

// SetPlayer — заменяет запись с тем же PUUID обновлённой версией.
func (s *Store) SetPlayer(rec PlayerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Players {
		if s.data.Players[i].PUUID == rec.PUUID {
			s.data.Players[i] = rec
			return
		}
	}
}

func (s *Store) TopMessageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastTopMessageID
}

func (s *Store) SetTopMessageID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LastTopMessageID = id
}
