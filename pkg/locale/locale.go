// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package locale models per-language text bundles such as story titles and bodies.

A [Text] is an explicit {locale: string} mapping. Reading it goes through
[Text.Resolve], which applies a defined fallback order instead of probing
optional fields:

 1. the caller's preferred locales, exact key first, then BCP-47 matching ("fr-CA" -> "fr");
 2. the platform fallback chain [Fallback] (French, English, Arabic);
 3. any remaining non-empty entry, in key order.
*/
package locale

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Fallback is the platform-wide locale order applied after the caller's preferences.
var Fallback = []language.Tag{language.French, language.English, language.Arabic}

// Text maps a BCP-47 locale key to its localized value.
type Text map[string]string

// Resolve returns the best value for the preferred locales, or "" for an empty bundle.
func (t Text) Resolve(preferred ...string) string {
	keys := t.keys()
	if len(keys) == 0 {
		return ""
	}

	// Exact keys win over tag matching.
	for _, want := range preferred {
		if value := t[want]; strings.TrimSpace(value) != "" {
			return value
		}
	}

	supportedKeys, matcher := t.matcher(keys)
	if matcher != nil {
		for _, want := range preferred {
			tag, err := language.Parse(want)
			if err != nil {
				continue
			}
			if value, ok := match(matcher, supportedKeys, t, tag); ok {
				return value
			}
		}

		for _, tag := range Fallback {
			if value, ok := match(matcher, supportedKeys, t, tag); ok {
				return value
			}
		}
	}

	return t[keys[0]]
}

// Merge returns a copy of t overlaid with every non-empty entry of edits.
func (t Text) Merge(edits Text) Text {
	merged := make(Text, len(t)+len(edits))
	for key, value := range t {
		merged[key] = value
	}
	for key, value := range edits {
		if strings.TrimSpace(value) != "" {
			merged[key] = value
		}
	}
	return merged
}

// IsEmpty reports whether no locale carries a non-blank value.
func (t Text) IsEmpty() bool {
	return len(t.keys()) == 0
}

// keys returns the sorted keys holding non-blank values.
func (t Text) keys() []string {
	keys := make([]string, 0, len(t))
	for key, value := range t {
		if strings.TrimSpace(value) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// matcher builds a language matcher over the parseable keys.
func (t Text) matcher(keys []string) ([]string, language.Matcher) {
	supportedKeys := make([]string, 0, len(keys))
	tags := make([]language.Tag, 0, len(keys))
	for _, key := range keys {
		tag, err := language.Parse(key)
		if err != nil {
			continue
		}
		supportedKeys = append(supportedKeys, key)
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return supportedKeys, language.NewMatcher(tags)
}

// match accepts only confident matches; a "No" match would silently pick the first key.
func match(matcher language.Matcher, supportedKeys []string, t Text, tag language.Tag) (string, bool) {
	_, index, confidence := matcher.Match(tag)
	if confidence < language.High || index >= len(supportedKeys) {
		return "", false
	}
	return t[supportedKeys[index]], true
}
