// Package patterns provides shared regex patterns and helper functions for travel email parsing.
// This file contains the airline and airport code tables.

package patterns

// Airport describes an airport known to the extractor.
type Airport struct {
	Code        string `json:"code"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
}

// DefaultAirlines maps airline designators to carrier names. Both 2-letter
// IATA and 3-letter ICAO designators are listed. Designators containing
// digits (7C, 5J) are left out because the flight-number matchers only
// accept letter prefixes.
var DefaultAirlines = map[string]string{
	// Korea.
	"KE": "Korean Air", "KAL": "Korean Air",
	"OZ": "Asiana Airlines", "AAR": "Asiana Airlines",
	"LJ": "Jin Air", "JNA": "Jin Air",
	"TW": "T'way Air", "TWB": "T'way Air",
	"BX": "Air Busan", "ABL": "Air Busan",
	"RS": "Air Seoul", "ASV": "Air Seoul",
	"ZE": "Eastar Jet", "ESR": "Eastar Jet",
	"YP": "Air Premia", "APZ": "Air Premia",

	// Japan and China.
	"JL": "Japan Airlines", "JAL": "Japan Airlines",
	"NH": "All Nippon Airways", "ANA": "All Nippon Airways",
	"MM": "Peach Aviation", "APJ": "Peach Aviation",
	"CA": "Air China", "CCA": "Air China",
	"MU": "China Eastern", "CES": "China Eastern",
	"CZ": "China Southern", "CSN": "China Southern",
	"CX": "Cathay Pacific", "CPA": "Cathay Pacific",
	"BR": "EVA Air", "EVA": "EVA Air",
	"CI": "China Airlines", "CAL": "China Airlines",

	// South-east Asia and Oceania.
	"SQ": "Singapore Airlines", "SIA": "Singapore Airlines",
	"TG": "Thai Airways", "THA": "Thai Airways",
	"VN": "Vietnam Airlines", "HVN": "Vietnam Airlines",
	"VJ": "VietJet Air", "VJC": "VietJet Air",
	"PR": "Philippine Airlines", "PAL": "Philippine Airlines",
	"MH": "Malaysia Airlines", "MAS": "Malaysia Airlines",
	"GA": "Garuda Indonesia", "GIA": "Garuda Indonesia",
	"AK": "AirAsia", "AXM": "AirAsia",
	"QF": "Qantas", "QFA": "Qantas",
	"NZ": "Air New Zealand", "ANZ": "Air New Zealand",

	// Americas.
	"AA": "American Airlines", "AAL": "American Airlines",
	"DL": "Delta Air Lines", "DAL": "Delta Air Lines",
	"UA": "United Airlines", "UAL": "United Airlines",
	"AS": "Alaska Airlines", "ASA": "Alaska Airlines",
	"WN": "Southwest Airlines", "SWA": "Southwest Airlines",
	"AC": "Air Canada", "ACA": "Air Canada",
	"HA": "Hawaiian Airlines", "HAL": "Hawaiian Airlines",

	// Europe and Middle East.
	"BA": "British Airways", "BAW": "British Airways",
	"AF": "Air France", "AFR": "Air France",
	"KL": "KLM", "KLM": "KLM",
	"LH": "Lufthansa", "DLH": "Lufthansa",
	"LX": "Swiss", "SWR": "Swiss",
	"OS": "Austrian Airlines", "AUA": "Austrian Airlines",
	"AY": "Finnair", "FIN": "Finnair",
	"IB": "Iberia", "IBE": "Iberia",
	"AZ": "ITA Airways", "ITY": "ITA Airways",
	"LO": "LOT Polish Airlines", "LOT": "LOT Polish Airlines",
	"TK": "Turkish Airlines", "THY": "Turkish Airlines",
	"EK": "Emirates", "UAE": "Emirates",
	"QR": "Qatar Airways", "QTR": "Qatar Airways",
	"EY": "Etihad Airways", "ETD": "Etihad Airways",
	"FR": "Ryanair", "RYR": "Ryanair",
	"EZY": "easyJet",
}

// DefaultAirports maps IATA airport codes to their location.
// Extractors match codes case-sensitively, so "sea" or "Mad" never hit this table.
var DefaultAirports = map[string]Airport{
	// Korea.
	"ICN": {Code: "ICN", City: "Seoul", CountryCode: "KR", CountryName: "South Korea"},
	"GMP": {Code: "GMP", City: "Seoul", CountryCode: "KR", CountryName: "South Korea"},
	"PUS": {Code: "PUS", City: "Busan", CountryCode: "KR", CountryName: "South Korea"},
	"CJU": {Code: "CJU", City: "Jeju", CountryCode: "KR", CountryName: "South Korea"},
	"TAE": {Code: "TAE", City: "Daegu", CountryCode: "KR", CountryName: "South Korea"},

	// Japan.
	"NRT": {Code: "NRT", City: "Tokyo", CountryCode: "JP", CountryName: "Japan"},
	"HND": {Code: "HND", City: "Tokyo", CountryCode: "JP", CountryName: "Japan"},
	"KIX": {Code: "KIX", City: "Osaka", CountryCode: "JP", CountryName: "Japan"},
	"ITM": {Code: "ITM", City: "Osaka", CountryCode: "JP", CountryName: "Japan"},
	"FUK": {Code: "FUK", City: "Fukuoka", CountryCode: "JP", CountryName: "Japan"},
	"CTS": {Code: "CTS", City: "Sapporo", CountryCode: "JP", CountryName: "Japan"},
	"OKA": {Code: "OKA", City: "Okinawa", CountryCode: "JP", CountryName: "Japan"},
	"NGO": {Code: "NGO", City: "Nagoya", CountryCode: "JP", CountryName: "Japan"},

	// Greater China.
	"PEK": {Code: "PEK", City: "Beijing", CountryCode: "CN", CountryName: "China"},
	"PKX": {Code: "PKX", City: "Beijing", CountryCode: "CN", CountryName: "China"},
	"PVG": {Code: "PVG", City: "Shanghai", CountryCode: "CN", CountryName: "China"},
	"SHA": {Code: "SHA", City: "Shanghai", CountryCode: "CN", CountryName: "China"},
	"HKG": {Code: "HKG", City: "Hong Kong", CountryCode: "HK", CountryName: "Hong Kong"},
	"TPE": {Code: "TPE", City: "Taipei", CountryCode: "TW", CountryName: "Taiwan"},
	"MFM": {Code: "MFM", City: "Macau", CountryCode: "MO", CountryName: "Macau"},

	// South-east Asia.
	"SIN": {Code: "SIN", City: "Singapore", CountryCode: "SG", CountryName: "Singapore"},
	"BKK": {Code: "BKK", City: "Bangkok", CountryCode: "TH", CountryName: "Thailand"},
	"DMK": {Code: "DMK", City: "Bangkok", CountryCode: "TH", CountryName: "Thailand"},
	"HKT": {Code: "HKT", City: "Phuket", CountryCode: "TH", CountryName: "Thailand"},
	"SGN": {Code: "SGN", City: "Ho Chi Minh City", CountryCode: "VN", CountryName: "Vietnam"},
	"HAN": {Code: "HAN", City: "Hanoi", CountryCode: "VN", CountryName: "Vietnam"},
	"DAD": {Code: "DAD", City: "Da Nang", CountryCode: "VN", CountryName: "Vietnam"},
	"MNL": {Code: "MNL", City: "Manila", CountryCode: "PH", CountryName: "Philippines"},
	"CEB": {Code: "CEB", City: "Cebu", CountryCode: "PH", CountryName: "Philippines"},
	"KUL": {Code: "KUL", City: "Kuala Lumpur", CountryCode: "MY", CountryName: "Malaysia"},
	"CGK": {Code: "CGK", City: "Jakarta", CountryCode: "ID", CountryName: "Indonesia"},
	"DPS": {Code: "DPS", City: "Denpasar", CountryCode: "ID", CountryName: "Indonesia"},

	// Oceania.
	"SYD": {Code: "SYD", City: "Sydney", CountryCode: "AU", CountryName: "Australia"},
	"MEL": {Code: "MEL", City: "Melbourne", CountryCode: "AU", CountryName: "Australia"},
	"BNE": {Code: "BNE", City: "Brisbane", CountryCode: "AU", CountryName: "Australia"},
	"AKL": {Code: "AKL", City: "Auckland", CountryCode: "NZ", CountryName: "New Zealand"},
	"GUM": {Code: "GUM", City: "Guam", CountryCode: "GU", CountryName: "Guam"},

	// North America.
	"LAX": {Code: "LAX", City: "Los Angeles", CountryCode: "US", CountryName: "United States"},
	"SFO": {Code: "SFO", City: "San Francisco", CountryCode: "US", CountryName: "United States"},
	"JFK": {Code: "JFK", City: "New York", CountryCode: "US", CountryName: "United States"},
	"EWR": {Code: "EWR", City: "Newark", CountryCode: "US", CountryName: "United States"},
	"ORD": {Code: "ORD", City: "Chicago", CountryCode: "US", CountryName: "United States"},
	"ATL": {Code: "ATL", City: "Atlanta", CountryCode: "US", CountryName: "United States"},
	"SEA": {Code: "SEA", City: "Seattle", CountryCode: "US", CountryName: "United States"},
	"DFW": {Code: "DFW", City: "Dallas", CountryCode: "US", CountryName: "United States"},
	"IAD": {Code: "IAD", City: "Washington", CountryCode: "US", CountryName: "United States"},
	"HNL": {Code: "HNL", City: "Honolulu", CountryCode: "US", CountryName: "United States"},
	"LAS": {Code: "LAS", City: "Las Vegas", CountryCode: "US", CountryName: "United States"},
	"YVR": {Code: "YVR", City: "Vancouver", CountryCode: "CA", CountryName: "Canada"},
	"YYZ": {Code: "YYZ", City: "Toronto", CountryCode: "CA", CountryName: "Canada"},
	"MEX": {Code: "MEX", City: "Mexico City", CountryCode: "MX", CountryName: "Mexico"},

	// Europe.
	"LHR": {Code: "LHR", City: "London", CountryCode: "GB", CountryName: "United Kingdom"},
	"LGW": {Code: "LGW", City: "London", CountryCode: "GB", CountryName: "United Kingdom"},
	"CDG": {Code: "CDG", City: "Paris", CountryCode: "FR", CountryName: "France"},
	"ORY": {Code: "ORY", City: "Paris", CountryCode: "FR", CountryName: "France"},
	"FRA": {Code: "FRA", City: "Frankfurt", CountryCode: "DE", CountryName: "Germany"},
	"MUC": {Code: "MUC", City: "Munich", CountryCode: "DE", CountryName: "Germany"},
	"AMS": {Code: "AMS", City: "Amsterdam", CountryCode: "NL", CountryName: "Netherlands"},
	"MAD": {Code: "MAD", City: "Madrid", CountryCode: "ES", CountryName: "Spain"},
	"BCN": {Code: "BCN", City: "Barcelona", CountryCode: "ES", CountryName: "Spain"},
	"FCO": {Code: "FCO", City: "Rome", CountryCode: "IT", CountryName: "Italy"},
	"MXP": {Code: "MXP", City: "Milan", CountryCode: "IT", CountryName: "Italy"},
	"ZRH": {Code: "ZRH", City: "Zurich", CountryCode: "CH", CountryName: "Switzerland"},
	"VIE": {Code: "VIE", City: "Vienna", CountryCode: "AT", CountryName: "Austria"},
	"PRG": {Code: "PRG", City: "Prague", CountryCode: "CZ", CountryName: "Czech Republic"},
	"HEL": {Code: "HEL", City: "Helsinki", CountryCode: "FI", CountryName: "Finland"},
	"IST": {Code: "IST", City: "Istanbul", CountryCode: "TR", CountryName: "Turkey"},
	"LIS": {Code: "LIS", City: "Lisbon", CountryCode: "PT", CountryName: "Portugal"},

	// Middle East.
	"DXB": {Code: "DXB", City: "Dubai", CountryCode: "AE", CountryName: "United Arab Emirates"},
	"AUH": {Code: "AUH", City: "Abu Dhabi", CountryCode: "AE", CountryName: "United Arab Emirates"},
	"DOH": {Code: "DOH", City: "Doha", CountryCode: "QA", CountryName: "Qatar"},
}
