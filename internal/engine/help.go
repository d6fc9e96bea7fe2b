package engine

import (
	"strings"

	"raidline/internal/intent"
	"raidline/internal/render"
)

const helpTemplate = `Commandes disponibles :
  {m} <activité> [date] [+|-]<joueur> ...         inscrit ou retire des joueurs, crée l'activité si une date est donnée
  {m} backup <activité> [date] [+|-]<joueur> ...  même chose pour les remplaçants
  {m} date <activité> [ancienne date] <nouvelle date>
  {m} milestone <activité> [date] <texte>
  {m} finish <activité> [date]
  {m} clear <activité> [date]                     vide l'escouade
  {m} remove <activité> [date]
  {m} clearpast                                   supprime les activités passées
  {m} clearall                                    supprime toutes les activités
  {m} images                                      affiches du planning
  {m} sync                                        synchronise joueurs et niveaux
  {m} lastsync                                    date de la dernière synchronisation
  {m} help
Dates : "mardi 21h", "17/08", "demain 20h30", "12 août".
`

func helpText(marker string) string {
	if marker == "" {
		marker = intent.DefaultMarker
	}
	return strings.ReplaceAll(helpTemplate, "{m}", marker) + render.Legend
}
