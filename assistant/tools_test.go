//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scarolan/music-store-assistant/catalog"
)

// The tool names are part of the conversation contract: prompts, recorded
// sessions and the admin approval feed all refer to them. These tests pin
// them down so a rename does not slip through unnoticed.

func TestMusicToolNames(t *testing.T) {
	set := musicTools(catalog.NewService(nil))
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{
		"get_albums_by_artist",
		"get_tracks_by_artist",
		"check_for_songs",
		"get_artists_by_genre",
		"list_genres",
	}, names)
	for name := range set {
		assert.False(t, gatedToolNames[name], "music tool %s must not be gated", name)
	}
}

func TestSupportToolNames(t *testing.T) {
	set := supportTools(catalog.NewService(nil))
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{
		"get_customer_info",
		"get_invoice",
		"list_invoices",
		"process_refund",
	}, names)
	assert.True(t, gatedToolNames["process_refund"])
}
