package catalog

import (
	"slices"
	"sort"
)

// continentOf maps production-country names to their continent. Countries
// missing here still count at country level but never roll up to a continent.
var continentOf = map[string]string{
	"Afghanistan":            "Asia",
	"Albania":                "Europe",
	"Algeria":                "Africa",
	"Andorra":                "Europe",
	"Angola":                 "Africa",
	"Argentina":              "South America",
	"Armenia":                "Asia",
	"Australia":              "Oceania",
	"Austria":                "Europe",
	"Azerbaijan":             "Asia",
	"Bahamas":                "North America",
	"Bahrain":                "Asia",
	"Bangladesh":             "Asia",
	"Barbados":               "North America",
	"Belarus":                "Europe",
	"Belgium":                "Europe",
	"Belize":                 "North America",
	"Benin":                  "Africa",
	"Bermuda":                "North America",
	"Bhutan":                 "Asia",
	"Bolivia":                "South America",
	"Bosnia and Herzegovina": "Europe",
	"Botswana":               "Africa",
	"Brazil":                 "South America",
	"Brunei":                 "Asia",
	"Bulgaria":               "Europe",
	"Burkina Faso":           "Africa",
	"Cambodia":               "Asia",
	"Cameroon":               "Africa",
	"Canada":                 "North America",
	"Cayman Islands":         "North America",
	"Chile":                  "South America",
	"China":                  "Asia",
	"Colombia":               "South America",
	"Congo":                  "Africa",
	"Costa Rica":             "North America",
	"Croatia":                "Europe",
	"Cuba":                   "North America",
	"Cyprus":                 "Asia",
	"Czech Republic":         "Europe",
	"Denmark":                "Europe",
	"Dominican Republic":     "North America",
	"Ecuador":                "South America",
	"Egypt":                  "Africa",
	"El Salvador":            "North America",
	"Estonia":                "Europe",
	"Ethiopia":               "Africa",
	"Faroe Islands":          "Europe",
	"Finland":                "Europe",
	"France":                 "Europe",
	"Georgia":                "Asia",
	"Germany":                "Europe",
	"Ghana":                  "Africa",
	"Greece":                 "Europe",
	"Guatemala":              "North America",
	"Hong Kong":              "Asia",
	"Hungary":                "Europe",
	"Iceland":                "Europe",
	"India":                  "Asia",
	"Indonesia":              "Asia",
	"Iran":                   "Asia",
	"Iraq":                   "Asia",
	"Ireland":                "Europe",
	"Israel":                 "Asia",
	"Italy":                  "Europe",
	"Jamaica":                "North America",
	"Japan":                  "Asia",
	"Jordan":                 "Asia",
	"Kazakhstan":             "Asia",
	"Kenya":                  "Africa",
	"Kuwait":                 "Asia",
	"Kyrgyzstan":             "Asia",
	"Latvia":                 "Europe",
	"Lebanon":                "Asia",
	"Libya":                  "Africa",
	"Liechtenstein":          "Europe",
	"Lithuania":              "Europe",
	"Luxembourg":             "Europe",
	"Malawi":                 "Africa",
	"Malaysia":               "Asia",
	"Malta":                  "Europe",
	"Mauritius":              "Africa",
	"Mexico":                 "North America",
	"Moldova":                "Europe",
	"Monaco":                 "Europe",
	"Mongolia":               "Asia",
	"Montenegro":             "Europe",
	"Morocco":                "Africa",
	"Namibia":                "Africa",
	"Nepal":                  "Asia",
	"Netherlands":            "Europe",
	"New Zealand":            "Oceania",
	"Nicaragua":              "North America",
	"Nigeria":                "Africa",
	"North Macedonia":        "Europe",
	"Norway":                 "Europe",
	"Pakistan":               "Asia",
	"Palestine":              "Asia",
	"Panama":                 "North America",
	"Paraguay":               "South America",
	"Peru":                   "South America",
	"Philippines":            "Asia",
	"Poland":                 "Europe",
	"Portugal":               "Europe",
	"Puerto Rico":            "North America",
	"Qatar":                  "Asia",
	"Romania":                "Europe",
	"Russia":                 "Europe",
	"Saudi Arabia":           "Asia",
	"Senegal":                "Africa",
	"Serbia":                 "Europe",
	"Singapore":              "Asia",
	"Slovakia":               "Europe",
	"Slovenia":               "Europe",
	"South Africa":           "Africa",
	"South Korea":            "Asia",
	"Spain":                  "Europe",
	"Sri Lanka":              "Asia",
	"Sweden":                 "Europe",
	"Switzerland":            "Europe",
	"Syria":                  "Asia",
	"Taiwan":                 "Asia",
	"Tanzania":               "Africa",
	"Thailand":               "Asia",
	"Trinidad and Tobago":    "North America",
	"Tunisia":                "Africa",
	"Turkey":                 "Asia",
	"Uganda":                 "Africa",
	"Ukraine":                "Europe",
	"United Arab Emirates":   "Asia",
	"United Kingdom":         "Europe",
	"United States":          "North America",
	"Uruguay":                "South America",
	"Uzbekistan":             "Asia",
	"Venezuela":              "South America",
	"Vietnam":                "Asia",
	"Yugoslavia":             "Europe",
	"Zimbabwe":               "Africa",
}

// ContinentOf returns the continent a country belongs to.
func ContinentOf(country string) (string, bool) {
	c, ok := continentOf[country]
	return c, ok
}

// Continents returns every continent known to the lookup table, sorted.
func Continents() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range continentOf {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// CountriesOf returns the countries in countries that map to continent,
// preserving input order.
func CountriesOf(continent string, countries []string) []string {
	var out []string
	for _, c := range countries {
		if continentOf[c] == continent && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
