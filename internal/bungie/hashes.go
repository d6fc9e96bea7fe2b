package bungie

import "raidline/internal/domain"

// activityKinds maps Destiny 2 activity hashes to raid kinds. Several
// hashes share a kind: a raid gets a new hash per rotation or mode.
var activityKinds = map[uint32]domain.Kind{
	1875726950: domain.Leviathan,
	2693136600: domain.Leviathan,
	2693136601: domain.Leviathan,
	2693136602: domain.Leviathan,
	2693136603: domain.Leviathan,
	2693136604: domain.Leviathan,
	2693136605: domain.Leviathan,
	417231112:  domain.LeviathanPrestige,
	757116822:  domain.LeviathanPrestige,
	1685065161: domain.LeviathanPrestige,
	3446541099: domain.LeviathanPrestige,
	3879860661: domain.LeviathanPrestige,
	2449714930: domain.LeviathanPrestige,
	2164432138: domain.EaterOfWorlds,
	3089205900: domain.EaterOfWorlds,
	809170886:  domain.EaterOfWorldsPrestige,
	119944200:  domain.SpireOfStars,
	3213556450: domain.SpireOfStarsPrestige,
	3333172150: domain.CrownOfSorrow,
	2122313384: domain.LastWish,
	548750096:  domain.ScourgeOfThePast,
	2812525063: domain.ScourgeOfThePast,
	2659723068: domain.GardenOfSalvation,
}

// KindOf returns the raid kind of an activity hash.
func KindOf(hash uint32) (domain.Kind, bool) {
	k, ok := activityKinds[hash]
	return k, ok
}
