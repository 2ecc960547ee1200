// Package autopopulate fills a campaign draft from free-form intake-form answers.
//
// Every heuristic is table driven: synonym lists select the answer for a field, and
// keyword tables map answers onto campaign types, countries, languages, currencies and
// budget minimums. The engine itself only sequences the lookups and builds notifications.
package autopopulate

import (
	"strings"

	"github.com/unyte/adconnect/pkg/models"
)

// Field names a draft field the engine knows how to look up.
type Field string

const (
	FieldName      Field = "name"
	FieldObjective Field = "objective"
	FieldGeography Field = "geography"
	FieldLanguage  Field = "language"
	FieldStartDate Field = "start_date"
	FieldEndDate   Field = "end_date"
	FieldBudget    Field = "budget"
	FieldPlatforms Field = "platforms"
	FieldCurrency  Field = "currency"
)

// FieldSynonyms lists, per field, the question phrases that identify its answer.
var FieldSynonyms = map[Field][]string{
	FieldName: {
		"campaign name",
		"name of campaign",
		"campaign title",
		"ad name",
		"advertisement name",
	},
	FieldObjective: {
		"objective",
		"goal",
		"key result",
		"kpi",
		"target",
		"purpose",
	},
	FieldGeography: {
		"geography",
		"target geography",
		"target geographies",
		"location",
		"country",
		"region",
	},
	FieldLanguage: {
		"language",
		"languages",
		"target language",
		"audience language",
	},
	FieldStartDate: {
		"start date",
		"campaign start",
		"begin date",
		"launch date",
		"go live date",
	},
	FieldEndDate: {
		"end date",
		"campaign end",
		"finish date",
		"completion date",
		"close date",
	},
	FieldBudget: {
		"budget",
		"media spend",
		"ad spend",
		"spend",
		"investment",
	},
	FieldPlatforms: {
		"platform",
		"channel",
		"media mix",
		"networks",
	},
	FieldCurrency: {
		"currency",
	},
}

// FindAnswer returns the answer of the first form entry whose question contains any of the
// synonyms, compared case-insensitively. Entries are scanned in form order and, within an
// entry, synonyms in listed order. Entries with a blank answer are skipped.
func FindAnswer(form *models.StructuredFormData, synonyms []string) (string, bool) {
	entry, ok := findEntry(form, synonyms)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(entry.Answer), true
}

// FindField is FindAnswer over the synonym table of a known field.
func FindField(form *models.StructuredFormData, field Field) (string, bool) {
	return FindAnswer(form, FieldSynonyms[field])
}

func findEntry(form *models.StructuredFormData, synonyms []string) (models.FormQuestion, bool) {
	entries := matchingEntries(form, synonyms)
	if len(entries) == 0 {
		return models.FormQuestion{}, false
	}

	return entries[0], true
}

// matchingEntries returns, in form order, every entry with a non-blank answer whose question
// contains one of the synonyms.
func matchingEntries(form *models.StructuredFormData, synonyms []string) []models.FormQuestion {
	if !form.HasFormData() {
		return nil
	}

	lowered := make([]string, 0, len(synonyms))
	for _, s := range synonyms {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}

	var matches []models.FormQuestion

	for _, entry := range form.FormData {
		if strings.TrimSpace(entry.Answer) == "" {
			continue
		}

		question := strings.ToLower(entry.Question)
		for _, synonym := range lowered {
			if strings.Contains(question, synonym) {
				matches = append(matches, entry)

				break
			}
		}
	}

	return matches
}
