package tax

import "strings"

// LookupStateCode maps a state name, abbreviation or two-digit code to the GST
// state code. Case, spacing and "&" versus "AND" are ignored.
func LookupStateCode(s string) (string, bool) {
	key := strings.ReplaceAll(NormalizeState(s), "&", " AND ")
	key = NormalizeState(key)
	if key == "" {
		return "", false
	}
	if _, ok := stateCodes[key]; ok {
		return key, true
	}
	code, ok := stateNames[key]
	return code, ok
}

// canonicalState returns the GST code of a known state and the normalised
// input otherwise.
func canonicalState(s string) string {
	if code, ok := LookupStateCode(s); ok {
		return code
	}
	return NormalizeState(s)
}

// GST state codes.
var stateCodes = map[string]string{
	"01": "JAMMU AND KASHMIR",
	"02": "HIMACHAL PRADESH",
	"03": "PUNJAB",
	"04": "CHANDIGARH",
	"05": "UTTARAKHAND",
	"06": "HARYANA",
	"07": "DELHI",
	"08": "RAJASTHAN",
	"09": "UTTAR PRADESH",
	"10": "BIHAR",
	"11": "SIKKIM",
	"12": "ARUNACHAL PRADESH",
	"13": "NAGALAND",
	"14": "MANIPUR",
	"15": "MIZORAM",
	"16": "TRIPURA",
	"17": "MEGHALAYA",
	"18": "ASSAM",
	"19": "WEST BENGAL",
	"20": "JHARKHAND",
	"21": "ODISHA",
	"22": "CHHATTISGARH",
	"23": "MADHYA PRADESH",
	"24": "GUJARAT",
	"26": "DADRA AND NAGAR HAVELI AND DAMAN AND DIU",
	"27": "MAHARASHTRA",
	"29": "KARNATAKA",
	"30": "GOA",
	"31": "LAKSHADWEEP",
	"32": "KERALA",
	"33": "TAMIL NADU",
	"34": "PUDUCHERRY",
	"35": "ANDAMAN AND NICOBAR ISLANDS",
	"36": "TELANGANA",
	"37": "ANDHRA PRADESH",
	"38": "LADAKH",
}

var stateAliases = map[string]string{
	"JK": "01", "HP": "02", "PB": "03", "CH": "04", "UK": "05", "UT": "05",
	"HR": "06", "DL": "07", "RJ": "08", "UP": "09", "BR": "10", "SK": "11",
	"AR": "12", "NL": "13", "MN": "14", "MZ": "15", "TR": "16", "ML": "17",
	"AS": "18", "WB": "19", "JH": "20", "OD": "21", "OR": "21", "CG": "22",
	"CT": "22", "MP": "23", "GJ": "24", "DN": "26", "DD": "26", "MH": "27",
	"KA": "29", "GA": "30", "LD": "31", "KL": "32", "TN": "33", "PY": "34",
	"AN": "35", "TS": "36", "TG": "36", "AP": "37", "LA": "38",

	"ORISSA":                 "21",
	"UTTARANCHAL":            "05",
	"CHATTISGARH":            "22",
	"PONDICHERRY":            "34",
	"NCT OF DELHI":           "07",
	"NEW DELHI":              "07",
	"DAMAN AND DIU":          "26",
	"DADRA AND NAGAR HAVELI": "26",
}

// stateNames indexes every name and alias by its code.
var stateNames = func() map[string]string {
	out := make(map[string]string, len(stateCodes)+len(stateAliases))
	for code, name := range stateCodes {
		out[name] = code
	}
	for alias, code := range stateAliases {
		out[alias] = code
	}
	return out
}()
