package resolve

import (
	"slices"

	"raidline/internal/domain"
	"raidline/internal/match"
)

var baseAliases = map[domain.Kind][]string{
	domain.Leviathan:         {"leviathan", "calus"},
	domain.EaterOfWorlds:     {"dévoreur de mondes", "dévoreur", "argos", "mondes"},
	domain.SpireOfStars:      {"flèche", "flèche d'étoiles", "étoiles"},
	domain.CrownOfSorrow:     {"couronne", "couronne du malheur"},
	domain.LastWish:          {"dernier voeu", "dernier vœu", "riven", "voeu", "vœu"},
	domain.ScourgeOfThePast:  {"fléau", "fléau du passé"},
	domain.GardenOfSalvation: {"jds", "jardin", "jardin du salut"},
	domain.VaultOfGlass:      {"caveau de verre", "caveau"},
	domain.CroptasEnd:        {"la chute de cropta", "chute de cropta", "cropta"},
	domain.TheTakenKing:      {"la chute du roi", "chute du roi", "oryx", "la chute d'oryx"},
	domain.WrathOfTheMachine: {"la fureur mécanique", "fureur mécanique", "fureur", "axis"},
}

type aliasSet struct {
	kind   domain.Kind
	names  []string
	folded []string
}

// aliasTable is built once and never written afterwards.
var aliasTable = buildAliasTable()

func buildAliasTable() []aliasSet {
	byKind := make(map[domain.Kind][]string, len(domain.Kinds()))
	for kind, names := range baseAliases {
		byKind[kind] = names
		if prestige, ok := kind.Prestige(); ok {
			derived := make([]string, len(names))
			for i, n := range names {
				derived[i] = n + " prestige"
			}
			byKind[prestige] = derived
		}
	}
	var table []aliasSet
	for _, kind := range domain.Kinds() {
		names, ok := byKind[kind]
		if !ok {
			continue
		}
		set := aliasSet{kind: kind, names: names}
		for _, n := range names {
			set.folded = append(set.folded, match.Fold(n, match.Activities))
		}
		table = append(table, set)
	}
	return table
}

// Aliases returns the known names of kind.
func Aliases(kind domain.Kind) []string {
	for _, set := range aliasTable {
		if set.kind == kind {
			return slices.Clone(set.names)
		}
	}
	return nil
}
