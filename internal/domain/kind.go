package domain

import "fmt"

// Kind identifies a raid encounter.
type Kind int

const (
	KindUnknown Kind = iota
	Leviathan
	LeviathanPrestige
	EaterOfWorlds
	EaterOfWorldsPrestige
	SpireOfStars
	SpireOfStarsPrestige
	CrownOfSorrow
	LastWish
	ScourgeOfThePast
	GardenOfSalvation
	VaultOfGlass
	VaultOfGlassPrestige
	CroptasEnd
	CroptasEndPrestige
	TheTakenKing
	TheTakenKingPrestige
	WrathOfTheMachine
	WrathOfTheMachinePrestige
)

type kindInfo struct {
	name     string
	display  string
	prestige Kind
}

var kinds = map[Kind]kindInfo{
	Leviathan:                 {"LEVIATHAN", "Léviathan", LeviathanPrestige},
	LeviathanPrestige:         {"LEVIATHAN_PRESTIGE", "Léviathan - Prestige", KindUnknown},
	EaterOfWorlds:             {"EATER_OF_WORLDS", "Dévoreur de mondes", EaterOfWorldsPrestige},
	EaterOfWorldsPrestige:     {"EATER_OF_WORLDS_PRESTIGE", "Dévoreur de mondes - Prestige", KindUnknown},
	SpireOfStars:              {"SPIRE_OF_STARS", "Flèche d'étoiles", SpireOfStarsPrestige},
	SpireOfStarsPrestige:      {"SPIRE_OF_STARS_PRESTIGE", "Flèche d'étoiles - Prestige", KindUnknown},
	CrownOfSorrow:             {"CROWN_OF_SORROW", "Couronne du malheur", KindUnknown},
	LastWish:                  {"LAST_WISH", "Dernier vœu", KindUnknown},
	ScourgeOfThePast:          {"SCOURGE_OF_THE_PAST", "Fléau du passé", KindUnknown},
	GardenOfSalvation:         {"GARDEN_OF_SALVATION", "Jardin du salut", KindUnknown},
	VaultOfGlass:              {"VAULT_OF_GLASS", "Caveau de verre", VaultOfGlassPrestige},
	VaultOfGlassPrestige:      {"VAULT_OF_GLASS_PRESTIGE", "Caveau de verre - Prestige", KindUnknown},
	CroptasEnd:                {"CROPTAS_END", "La chute de Cropta", CroptasEndPrestige},
	CroptasEndPrestige:        {"CROPTAS_END_PRESTIGE", "La chute de Cropta - Prestige", KindUnknown},
	TheTakenKing:              {"THE_TAKEN_KING", "La chute du roi", TheTakenKingPrestige},
	TheTakenKingPrestige:      {"THE_TAKEN_KING_PRESTIGE", "La chute du roi - Prestige", KindUnknown},
	WrathOfTheMachine:         {"WRATH_OF_THE_MACHINE", "La fureur mécanique", WrathOfTheMachinePrestige},
	WrathOfTheMachinePrestige: {"WRATH_OF_THE_MACHINE_PRESTIGE", "La fureur mécanique - Prestige", KindUnknown},
}

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := Leviathan; k <= WrathOfTheMachinePrestige; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DisplayName is the French label shown to players.
func (k Kind) DisplayName() string {
	if info, ok := kinds[k]; ok {
		return info.display
	}
	return k.String()
}

// Prestige returns the prestige variant of a base kind.
func (k Kind) Prestige() (Kind, bool) {
	info, ok := kinds[k]
	if !ok || info.prestige == KindUnknown {
		return KindUnknown, false
	}
	return info.prestige, true
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// ParseKind maps a serialized name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, info := range kinds {
		if info.name == name {
			return k, nil
		}
	}
	return KindUnknown, Errorf(ErrValidation, "type d'activité inconnu : %q", name)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, Errorf(ErrValidation, "type d'activité invalide : %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(data []byte) error {
	parsed, err := ParseKind(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
