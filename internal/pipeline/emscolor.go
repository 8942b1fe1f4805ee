package pipeline

import (
	"regexp"
	"strings"
)

// EMSUnknown is what DecodeEMS returns for codes it cannot read.
const EMSUnknown = "???"

// emsTokens maps an EMS token to category/value pairs.
var emsTokens = map[string][]string{
	"01": {"white", "van"},
	"02": {"white", "harlequin"},
	"03": {"white", "bicolor"},
	"09": {"white", "with white"},
	"11": {"tips", "shaded"},
	"12": {"tips", "tipped"},
	"21": {"tabby", "tabby"},
	"22": {"tabby", "classic tabby"},
	"23": {"tabby", "mackerel tabby"},
	"24": {"tabby", "spotted tabby"},
	"33": {"point", "point"},
	"61": {"eyes", "blue"},
	"62": {"eyes", "orange"},
	"63": {"eyes", "odd"},
	"64": {"eyes", "green"},
	"s":  {"metal", "silver", "smoke", "smoke"},
	"y":  {"metal", "golden"},
	"u":  {"sun", "sunshine"},
	"a":  {"base", "blue"},
	"c":  {"base", "lilac"},
	"d":  {"base", "red"},
	"e":  {"base", "cream"},
	"f":  {"base", "black", "tortie", "tortie", "seal", "seal"},
	"g":  {"base", "blue", "tortie", "tortie"},
	"n":  {"base", "black", "seal", "seal"},
	"w":  {"base", "white"},
}

var emsOrder = []string{"base", "sun", "metal", "tips", "tortie", "tabby", "point", "white", "eyes"}

var emsSpace = regexp.MustCompile(`\s+`)

// DecodeEMS turns an EMS cat color code such as "ns 22" into English
// ("black smoke classic tabby"). The first group is read one letter at a
// time, later groups as whole numeric tokens. Any unknown token yields
// EMSUnknown.
func DecodeEMS(code string) string {
	groups := emsSpace.Split(code, -1)
	tokens := strings.Split(groups[0], "")
	if len(tokens) == 0 {
		tokens = []string{""}
	}
	tokens = append(tokens, groups[1:]...)

	h := make(map[string]string)
	for _, tok := range tokens {
		pairs, ok := emsTokens[tok]
		if !ok {
			return EMSUnknown
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			h[pairs[i]] = pairs[i+1]
		}
	}

	// Only tabbies and tipped cats are silver; the rest are smoke.
	if h["tabby"] == "" && h["tips"] == "" {
		if smoke, ok := h["smoke"]; ok {
			h["metal"] = smoke
		}
	}
	if h["point"] != "" {
		if seal, ok := h["seal"]; ok {
			h["base"] = seal
		}
	}
	if eyes, ok := h["eyes"]; ok {
		h["eyes"] = "with " + eyes + " eyes"
	}

	parts := make([]string, 0, len(emsOrder))
	for _, cat := range emsOrder {
		if v, ok := h[cat]; ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
