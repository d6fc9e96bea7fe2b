package resolve_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raidline/internal/domain"
	"raidline/internal/resolve"
)

var roster = []string{
	"Walnut Waffle", "Cosa58", "dark0l1ght", "snippro34", "croptus", "xXmarie91Xx", "kyzerjo88",
	"Franstuk", "SuperFayaChonch", "BAB x WaZZa", "LiVe x GamIing", "Hartog31", "DarkLucifiel77",
	"Striikers", "frwyx", "CarNaGe4720", "Jezehbell", "KLaeXy", "karibNkilla", "Omega Gips",
	"Neofighter", "NaughtySoft", "affectevil",
}

var tagNoise = [][]string{nil, {"backup"}, {"raid"}, {"jds"}, {"+DenisSurvivor"}, {"-Foobar"}}

func TestResolveGamerTag(t *testing.T) {
	tests := map[string][]string{
		"Walnut Waffle":   {"WalnutWaffle", "Wolnut Waffl", "walnut waffle"},
		"Cosa58":          {"cosa", "COSA", "CoSa558", "Kosa", "Cosa58"},
		"dark0l1ght":      {"DarkLight", "dark01lght"},
		"snippro34":       {"snippro", "Snipro34", "snippro34"},
		"croptus":         {"croptus7490", "KROptUs"},
		"xXmarie91Xx":     {"xxMarie", "Mariexx", "xxmariexx"},
		"kyzerjo88":       {"kyzerjo"},
		"SuperFayaChonch": {"SUperFayaChon"},
		"BAB x WaZZa":     {"babwazza", "bab x waza"},
		"LiVe x GamIing":  {"live x gamling"},
		"DarkLucifiel77":  {"darklucifel"},
		"Striikers":       {"strikers"},
		"Jezehbell":       {"Jezebell"},
		"Omega Gips":      {"OmegaGips", "omega gips"},
	}
	for want, inputs := range tests {
		for _, in := range inputs {
			for _, sign := range []string{"", "+", "-"} {
				for _, noise := range tagNoise {
					tokens := strings.Fields(sign + in)
					tokens = append(tokens, noise...)
					got, err := resolve.ResolveGamerTag(tokens, roster)
					require.NoError(t, err, "%q", tokens)
					assert.Equal(t, want, got.Tag, "%q", tokens)
					assert.Equal(t, sign != "-", got.Addition, "%q", tokens)
					assert.Equal(t, len(noise), len(got.Remaining), "%q", tokens)
				}
			}
		}
	}
}

func TestResolveGamerTagRejects(t *testing.T) {
	for _, text := range []string{"backup", "+DenisSurvivor", "raid", "jds", "25/07"} {
		_, err := resolve.ResolveGamerTag(strings.Fields(text), roster)
		assert.ErrorIs(t, err, domain.ErrNoMatch, text)
	}
	_, err := resolve.ResolveGamerTag(nil, roster)
	assert.ErrorIs(t, err, domain.ErrMissingArgument)
	_, err = resolve.ResolveGamerTag([]string{"cosa"}, nil)
	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestResolveGamerTagTies(t *testing.T) {
	_, err := resolve.ResolveGamerTag([]string{"cosa"}, []string{"Cosa58", "Cosa77"})
	require.ErrorIs(t, err, domain.ErrAmbiguous)

	_, err = resolve.ResolveGamerTag([]string{"Losa"}, []string{"Cosa58", "Kosa"})
	require.ErrorIs(t, err, domain.ErrAmbiguous)

	// A longer query can break the tie.
	got, err := resolve.ResolveGamerTag([]string{"-Omega", "B", "jds"}, []string{"Omega A", "Omega B"})
	require.NoError(t, err)
	assert.Equal(t, "Omega B", got.Tag)
	assert.False(t, got.Addition)
	assert.Equal(t, []string{"jds"}, got.Remaining)
}

func TestResolveGamerTagSequence(t *testing.T) {
	tokens := strings.Fields("+darklucifel -croptus -strikers frwyx")
	var got []resolve.TagMatch
	for len(tokens) > 0 {
		m, err := resolve.ResolveGamerTag(tokens, roster)
		require.NoError(t, err)
		got = append(got, resolve.TagMatch{Tag: m.Tag, Addition: m.Addition})
		tokens = m.Remaining
	}
	assert.Equal(t, []resolve.TagMatch{
		{Tag: "DarkLucifiel77", Addition: true},
		{Tag: "croptus", Addition: false},
		{Tag: "Striikers", Addition: false},
		{Tag: "frwyx", Addition: true},
	}, got)
}

func TestResolveGamerTagEveryRegisteredTag(t *testing.T) {
	all := append([]string{"Player1", "Player2", "1234"}, roster...)
	for _, tag := range all {
		got, err := resolve.ResolveGamerTag(strings.Fields(tag), all)
		require.NoError(t, err, tag)
		assert.Equal(t, tag, got.Tag)
		assert.Empty(t, got.Remaining, tag)
	}
}

func TestResolveGamerTagDigits(t *testing.T) {
	players := []string{"Player1", "Player2"}
	got, err := resolve.ResolveGamerTag([]string{"Player1"}, players)
	require.NoError(t, err)
	assert.Equal(t, "Player1", got.Tag)

	got, err = resolve.ResolveGamerTag([]string{"-playr2", "jds"}, players)
	require.NoError(t, err)
	assert.Equal(t, "Player2", got.Tag)
	assert.False(t, got.Addition)
	assert.Equal(t, []string{"jds"}, got.Remaining)

	for _, text := range []string{"Player3", "player"} {
		_, err = resolve.ResolveGamerTag([]string{text}, players)
		assert.ErrorIs(t, err, domain.ErrAmbiguous, text)
	}

	numeric := []string{"1234", "Alice"}
	got, err = resolve.ResolveGamerTag([]string{"+1234"}, numeric)
	require.NoError(t, err)
	assert.Equal(t, "1234", got.Tag)
	for _, text := range []string{"5678", "-", "+"} {
		_, err = resolve.ResolveGamerTag([]string{text}, numeric)
		assert.ErrorIs(t, err, domain.ErrNoMatch, text)
	}
}
