package catalog

// countryCodes expands ISO 3166-1 alpha-2 codes found in raw exports to the
// names used by the continent table.
var countryCodes = map[string]string{
	"AF": "Afghanistan",
	"AL": "Albania",
	"DZ": "Algeria",
	"AD": "Andorra",
	"AO": "Angola",
	"AR": "Argentina",
	"AM": "Armenia",
	"AU": "Australia",
	"AT": "Austria",
	"AZ": "Azerbaijan",
	"BS": "Bahamas",
	"BH": "Bahrain",
	"BD": "Bangladesh",
	"BB": "Barbados",
	"BY": "Belarus",
	"BE": "Belgium",
	"BZ": "Belize",
	"BJ": "Benin",
	"BM": "Bermuda",
	"BT": "Bhutan",
	"BO": "Bolivia",
	"BA": "Bosnia and Herzegovina",
	"BW": "Botswana",
	"BR": "Brazil",
	"BN": "Brunei",
	"BG": "Bulgaria",
	"BF": "Burkina Faso",
	"KH": "Cambodia",
	"CM": "Cameroon",
	"CA": "Canada",
	"KY": "Cayman Islands",
	"CL": "Chile",
	"CN": "China",
	"CO": "Colombia",
	"CG": "Congo",
	"CR": "Costa Rica",
	"HR": "Croatia",
	"CU": "Cuba",
	"CY": "Cyprus",
	"CZ": "Czech Republic",
	"DK": "Denmark",
	"DO": "Dominican Republic",
	"EC": "Ecuador",
	"EG": "Egypt",
	"SV": "El Salvador",
	"EE": "Estonia",
	"ET": "Ethiopia",
	"FO": "Faroe Islands",
	"FI": "Finland",
	"FR": "France",
	"GE": "Georgia",
	"DE": "Germany",
	"GH": "Ghana",
	"GR": "Greece",
	"GT": "Guatemala",
	"HK": "Hong Kong",
	"HU": "Hungary",
	"IS": "Iceland",
	"IN": "India",
	"ID": "Indonesia",
	"IR": "Iran",
	"IQ": "Iraq",
	"IE": "Ireland",
	"IL": "Israel",
	"IT": "Italy",
	"JM": "Jamaica",
	"JP": "Japan",
	"JO": "Jordan",
	"KZ": "Kazakhstan",
	"KE": "Kenya",
	"KW": "Kuwait",
	"KG": "Kyrgyzstan",
	"LV": "Latvia",
	"LB": "Lebanon",
	"LY": "Libya",
	"LI": "Liechtenstein",
	"LT": "Lithuania",
	"LU": "Luxembourg",
	"MW": "Malawi",
	"MY": "Malaysia",
	"MT": "Malta",
	"MU": "Mauritius",
	"MX": "Mexico",
	"MD": "Moldova",
	"MC": "Monaco",
	"MN": "Mongolia",
	"ME": "Montenegro",
	"MA": "Morocco",
	"NA": "Namibia",
	"NP": "Nepal",
	"NL": "Netherlands",
	"NZ": "New Zealand",
	"NI": "Nicaragua",
	"NG": "Nigeria",
	"MK": "North Macedonia",
	"NO": "Norway",
	"PK": "Pakistan",
	"PS": "Palestine",
	"PA": "Panama",
	"PY": "Paraguay",
	"PE": "Peru",
	"PH": "Philippines",
	"PL": "Poland",
	"PT": "Portugal",
	"PR": "Puerto Rico",
	"QA": "Qatar",
	"RO": "Romania",
	"RU": "Russia",
	"SA": "Saudi Arabia",
	"SN": "Senegal",
	"RS": "Serbia",
	"SG": "Singapore",
	"SK": "Slovakia",
	"SI": "Slovenia",
	"ZA": "South Africa",
	"KR": "South Korea",
	"ES": "Spain",
	"LK": "Sri Lanka",
	"SE": "Sweden",
	"CH": "Switzerland",
	"SY": "Syria",
	"TW": "Taiwan",
	"TZ": "Tanzania",
	"TH": "Thailand",
	"TT": "Trinidad and Tobago",
	"TN": "Tunisia",
	"TR": "Turkey",
	"UG": "Uganda",
	"UA": "Ukraine",
	"AE": "United Arab Emirates",
	"GB": "United Kingdom",
	"US": "United States",
	"UY": "Uruguay",
	"UZ": "Uzbekistan",
	"VE": "Venezuela",
	"VN": "Vietnam",
	"ZW": "Zimbabwe",
}
