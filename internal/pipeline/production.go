package pipeline

import (
	"reelsmith/internal/media"
	"reelsmith/internal/workspace"
)

// production carries the assets one job has produced so far. It is owned by
// the stage handlers of a single run.
type production struct {
	ws        *workspace.Workspace
	narration media.Asset
	captions  string
	// background is the resolved background video.
	background media.Asset
	// video starts as the background and becomes the subtitled render when
	// the subtitle ladder succeeds.
	video media.Asset
	// audio starts as the narration and becomes the mix when the mix ladder
	// succeeds.
	audio media.Asset
	final string
}
