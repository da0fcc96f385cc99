package game

import "github.com/janpfeifer/GoTales/internal/content"

// Character is a story hero the child can pick.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Color       string `json:"color"`       // CSS colour of the character's card and badge.
	PromptDesc  string `json:"prompt_desc"` // How the character is described to the generative service.
}

// Characters is the roster offered on the character selection page.
var Characters = []Character{
	{ID: "robot", Name: "Robo", Emoji: "🤖", Description: "Akıllı Robot", Color: "#60a5fa", PromptDesc: "sevimli, mavi bir oyuncak robot"},
	{ID: "princess", Name: "Peri", Emoji: "🧚‍♀️", Description: "Orman Perisi", Color: "#f472b6", PromptDesc: "sihirli değneği olan küçük şirin bir orman perisi"},
	{ID: "dino", Name: "Dino", Emoji: "🦖", Description: "Yeşil Dinozor", Color: "#4ade80", PromptDesc: "arkadaş canlısı, gülümseyen yeşil bebek dinozor"},
	{ID: "cat", Name: "Pamuk", Emoji: "🐱", Description: "Uzaylı Kedi", Color: "#c084fc", PromptDesc: "turuncu tüylü, astronot başlığı takan tatlı bir kedi"},
}

// CharacterByID returns the character with the given id, or nil.
func CharacterByID(id string) *Character {
	for i := range Characters {
		if Characters[i].ID == id {
			return &Characters[i]
		}
	}
	return nil
}

// FallbackSymbols returns the characters' emoji, in roster order: they fill the memory deck
// when there are not enough saved drawings.
func FallbackSymbols() []content.Source {
	symbols := make([]content.Source, 0, len(Characters))
	for _, c := range Characters {
		symbols = append(symbols, content.Symbol(c.Emoji))
	}
	return symbols
}
