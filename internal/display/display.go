// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package display composes what a chat view shows from committed history
// and the live buffer, and decides when the view follows new content.
package display

import (
	"github.com/jeranaias/talkchat/internal/model"
)

// Entry is one rendered message.
type Entry struct {
	Role    model.Role
	Content string
	// Provisional marks the live, uncommitted assistant reply.
	Provisional bool
}

// Compose returns committed history in order, followed by one provisional
// assistant entry while streaming. Once streaming stops the provisional
// entry is gone: a completed turn is already part of history, and an
// aborted or failed one has nothing to show.
func Compose(history []model.Message, streaming bool, buffer string) []Entry {
	n := len(history)
	if streaming {
		n++
	}
	entries := make([]Entry, 0, n)
	for _, m := range history {
		entries = append(entries, Entry{Role: m.Role, Content: m.Content})
	}
	if streaming {
		entries = append(entries, Entry{Role: model.RoleAssistant, Content: buffer, Provisional: true})
	}
	return entries
}

// =============================================================================
// AUTO-FOLLOW
// =============================================================================

const (
	// DefaultFollowThreshold is the distance from the bottom, in scroll
	// units, within which the view keeps following new content.
	DefaultFollowThreshold = 80

	// UnitsPerRow converts terminal rows to scroll units.
	UnitsPerRow = 16
)

// Follower decides whether a view should scroll to newly arrived content.
type Follower struct {
	Threshold int
}

// NewFollower returns a Follower using DefaultFollowThreshold.
func NewFollower() Follower {
	return Follower{Threshold: DefaultFollowThreshold}
}

// NearBottom reports whether the viewport is within the threshold of the
// bottom. Measurements must be taken before the new content is applied.
func (f Follower) NearBottom(scrollHeight, scrollTop, clientHeight int) bool {
	threshold := f.Threshold
	if threshold <= 0 {
		threshold = DefaultFollowThreshold
	}
	return scrollHeight-scrollTop-clientHeight < threshold
}

// NearBottomRows is NearBottom for row-based terminal views.
func (f Follower) NearBottomRows(totalRows, offsetRow, visibleRows int) bool {
	return f.NearBottom(totalRows*UnitsPerRow, offsetRow*UnitsPerRow, visibleRows*UnitsPerRow)
}
