// Package fixtures holds the seed data of the simulated tournament: the
// roster, the group draw and the match schedule.
package fixtures

import "github.com/Dosada05/worldcup-simulator/models"

var teams = []models.Team{
	{ID: "mex", Name: "Mexico", Code: "MEX", Flag: "🇲🇽"},
	{ID: "ecu", Name: "Ecuador", Code: "ECU", Flag: "🇪🇨"},
	{ID: "sen", Name: "Senegal", Code: "SEN", Flag: "🇸🇳"},
	{ID: "ned", Name: "Netherlands", Code: "NED", Flag: "🇳🇱"},

	{ID: "usa", Name: "United States", Code: "USA", Flag: "🇺🇸"},
	{ID: "eng", Name: "England", Code: "ENG", Flag: "🏴\U000E0067\U000E0062\U000E0065\U000E006E\U000E0067\U000E007F"},
	{ID: "irn", Name: "Iran", Code: "IRN", Flag: "🇮🇷"},
	{ID: "nzl", Name: "New Zealand", Code: "NZL", Flag: "🇳🇿"},

	{ID: "arg", Name: "Argentina", Code: "ARG", Flag: "🇦🇷"},
	{ID: "ksa", Name: "Saudi Arabia", Code: "KSA", Flag: "🇸🇦"},
	{ID: "pol", Name: "Poland", Code: "POL", Flag: "🇵🇱"},
	{ID: "pan", Name: "Panama", Code: "PAN", Flag: "🇵🇦"},

	{ID: "fra", Name: "France", Code: "FRA", Flag: "🇫🇷"},
	{ID: "aus", Name: "Australia", Code: "AUS", Flag: "🇦🇺"},
	{ID: "den", Name: "Denmark", Code: "DEN", Flag: "🇩🇰"},
	{ID: "tun", Name: "Tunisia", Code: "TUN", Flag: "🇹🇳"},

	{ID: "esp", Name: "Spain", Code: "ESP", Flag: "🇪🇸"},
	{ID: "crc", Name: "Costa Rica", Code: "CRC", Flag: "🇨🇷"},
	{ID: "ger", Name: "Germany", Code: "GER", Flag: "🇩🇪"},
	{ID: "jpn", Name: "Japan", Code: "JPN", Flag: "🇯🇵"},

	{ID: "can", Name: "Canada", Code: "CAN", Flag: "🇨🇦"},
	{ID: "bel", Name: "Belgium", Code: "BEL", Flag: "🇧🇪"},
	{ID: "mar", Name: "Morocco", Code: "MAR", Flag: "🇲🇦"},
	{ID: "cro", Name: "Croatia", Code: "CRO", Flag: "🇭🇷"},

	{ID: "bra", Name: "Brazil", Code: "BRA", Flag: "🇧🇷"},
	{ID: "srb", Name: "Serbia", Code: "SRB", Flag: "🇷🇸"},
	{ID: "sui", Name: "Switzerland", Code: "SUI", Flag: "🇨🇭"},
	{ID: "cmr", Name: "Cameroon", Code: "CMR", Flag: "🇨🇲"},

	{ID: "por", Name: "Portugal", Code: "POR", Flag: "🇵🇹"},
	{ID: "gha", Name: "Ghana", Code: "GHA", Flag: "🇬🇭"},
	{ID: "uru", Name: "Uruguay", Code: "URU", Flag: "🇺🇾"},
	{ID: "kor", Name: "South Korea", Code: "KOR", Flag: "🇰🇷"},
}

var groups = []models.Group{
	{ID: "A", Name: "Group A", Teams: []string{"mex", "ecu", "sen", "ned"}},
	{ID: "B", Name: "Group B", Teams: []string{"usa", "eng", "irn", "nzl"}},
	{ID: "C", Name: "Group C", Teams: []string{"arg", "ksa", "pol", "pan"}},
	{ID: "D", Name: "Group D", Teams: []string{"fra", "aus", "den", "tun"}},
	{ID: "E", Name: "Group E", Teams: []string{"esp", "crc", "ger", "jpn"}},
	{ID: "F", Name: "Group F", Teams: []string{"can", "bel", "mar", "cro"}},
	{ID: "G", Name: "Group G", Teams: []string{"bra", "srb", "sui", "cmr"}},
	{ID: "H", Name: "Group H", Teams: []string{"por", "gha", "uru", "kor"}},
}

// Teams returns the roster keyed by team ID.
func Teams() map[string]models.Team {
	result := make(map[string]models.Team, len(teams))
	for _, t := range teams {
		result[t.ID] = t
	}
	return result
}

// TeamList returns the roster in draw order.
func TeamList() []models.Team {
	result := make([]models.Team, len(teams))
	copy(result, teams)
	return result
}

func Groups() []models.Group {
	result := make([]models.Group, len(groups))
	for i, g := range groups {
		result[i] = g
		result[i].Teams = append([]string(nil), g.Teams...)
	}
	return result
}

func Group(id string) (models.Group, bool) {
	for _, g := range Groups() {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}
