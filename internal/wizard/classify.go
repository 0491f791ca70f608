package wizard

import (
	"strings"

	"github.com/m3rciful/stockbot/internal/catalog"
)

var (
	// DefaultPhoneCategories are category names that select the phone track.
	DefaultPhoneCategories = []string{"phones", "телефоны"}
	// DefaultUsedConditions are condition names that ask for battery and kit details.
	DefaultUsedConditions = []string{"used", "б/у"}
)

// Classifier maps categories to tracks and conditions to the used sub-flow.
// Names are compared after trimming and lower-casing.
type Classifier struct {
	phoneCategories map[string]struct{}
	usedConditions  map[string]struct{}
}

// NewClassifier builds a classifier; empty lists fall back to the defaults.
func NewClassifier(phoneCategories, usedConditions []string) Classifier {
	if len(phoneCategories) == 0 {
		phoneCategories = DefaultPhoneCategories
	}
	if len(usedConditions) == 0 {
		usedConditions = DefaultUsedConditions
	}
	return Classifier{
		phoneCategories: nameSet(phoneCategories),
		usedConditions:  nameSet(usedConditions),
	}
}

// Classify returns the track used to collect items of the category.
func (c Classifier) Classify(category catalog.Category) Track {
	if _, ok := c.phoneCategories[normalize(category.Name)]; ok {
		return TrackPhone
	}
	return TrackGeneric
}

// IsUsed reports whether the condition triggers the extended phone questions.
func (c Classifier) IsUsed(condition catalog.Option) bool {
	_, ok := c.usedConditions[normalize(condition.Name)]
	return ok
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = normalize(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
