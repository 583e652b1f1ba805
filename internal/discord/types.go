package discord

import "time"

// Embed — обычный message embed (подмножество полей, которое нам нужно).
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// Now — timestamp в формате, который ждёт Discord.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ApplicationCommand — описание slash-команды для bulk-регистрации.
type ApplicationCommand struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

const OptionString = 3

type CommandOption struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
}

const InteractionApplicationCommand = 2

// Interaction — входящее INTERACTION_CREATE (только то, что разбираем).
type Interaction struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Type  int    `json:"type"`
	Data  struct {
		Name    string `json:"name"`
		Options []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"options"`
	} `json:"data"`
}

// StringOption — значение строковой опции по имени, "" если нет.
func (i *Interaction) StringOption(name string) string {
	for _, o := range i.Data.Options {
		if o.Name == name {
			return o.Value
		}
	}
	return ""
}
