// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// ModelInfo describes a model the user can pick.
type ModelInfo struct {
	// ID is the model identifier sent to the endpoint.
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`
}

// Label returns the display name, falling back to the ID.
func (m ModelInfo) Label() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// DefaultModel is used when no model is configured.
var DefaultModel = ModelInfo{ID: "meta-llama/llama-3.3-8b-instruct:free", Name: "Llama 3.3 8B Instruct"}

// Catalog lists the models offered by the model picker.
var Catalog = []ModelInfo{
	{ID: "mistralai/mistral-small-3.2-24b-instruct:free", Name: "Mistral Small 3.2 24B"},
	{ID: "openai/gpt-oss-20b:free", Name: "gpt-oss-20b"},
	{ID: "meta-llama/llama-3.3-8b-instruct:free", Name: "Llama 3.3 8B Instruct"},
}

// LookupModel resolves an identifier or a case-insensitive display name.
// Unknown identifiers are returned as-is so any endpoint model can be used.
func LookupModel(nameOrID string) (ModelInfo, bool) {
	nameOrID = strings.TrimSpace(nameOrID)
	for _, m := range Catalog {
		if m.ID == nameOrID || strings.EqualFold(m.Name, nameOrID) {
			return m, true
		}
	}
	return ModelInfo{ID: nameOrID}, false
}
