package models

type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag"`
}

// Group это группа из четырёх команд, порядок команд фиксирован жеребьёвкой.
type Group struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Teams []string `json:"teams"`
}

func (g *Group) HasTeam(teamID string) bool {
	for _, id := range g.Teams {
		if id == teamID {
			return true
		}
	}
	return false
}
