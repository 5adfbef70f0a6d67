package main

import (
	"context"

	"github.com/rs/zerolog/log"
)

// EditorView applies adjustments to a staged asset. Nothing leaves the editor
// until Save.
type EditorView struct {
	compositor *Compositor
	source     RasterAsset
	meta       StagingMeta
	adj        Adjustments
	preview    RasterAsset
}

// NewEditorView enters the editor with the payload of the previous stage. An
// empty payload means the editor was not reached through the pipeline.
func NewEditorView(ctx context.Context, compositor *Compositor, s Staging) (*EditorView, error) {
	if s.Empty() || s.Asset().IsZero() {
		return nil, ErrMissingStaging
	}
	s = s.Clone()

	e := &EditorView{
		compositor: compositor,
		adj:        NeutralAdjustments(),
	}
	switch {
	case s.Crop != nil:
		e.source = s.Crop.Asset
		e.meta = s.Crop.StagingMeta
	case s.Edit != nil:
		e.source = s.Edit.EditedAsset
		e.meta = s.Edit.StagingMeta
	}
	if err := e.recompute(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *EditorView) Adjustments() Adjustments { return e.adj }
func (e *EditorView) Preview() RasterAsset     { return e.preview }
func (e *EditorView) Source() RasterAsset      { return e.source }
func (e *EditorView) Meta() StagingMeta        { return e.meta }

// Adjust replaces the whole adjustment state, clamping out of range values,
// and recomputes the preview from it. On failure the previous state is kept.
func (e *EditorView) Adjust(ctx context.Context, adj Adjustments) (RasterAsset, error) {
	prev := e.adj
	e.adj = adj.Clamp()
	if err := e.recompute(ctx); err != nil {
		e.adj = prev
		return RasterAsset{}, err
	}
	return e.preview, nil
}

func (e *EditorView) Reset(ctx context.Context) (RasterAsset, error) {
	return e.Adjust(ctx, NeutralAdjustments())
}

func (e *EditorView) recompute(ctx context.Context) error {
	out, err := e.compositor.Composite(ctx, e.source, e.adj)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Stringer("adjustments", e.adj).Msg("failed to render preview")
		return err
	}
	e.preview = out
	return nil
}

// Save returns the payload for the customization view: the rendered asset with
// the metadata the editor was entered with.
func (e *EditorView) Save(ctx context.Context) Staging {
	log.Ctx(ctx).Info().
		Stringer("adjustments", e.adj).
		Str("project", e.meta.ProjectName).
		Msg("saved edit")
	return NewEditStaging(e.preview, e.meta)
}

type EditorState struct {
	Adjustments Adjustments `json:"adjustments"`
	Filter      string      `json:"filter"`
	Presets     []Preset    `json:"presets"`
	Preview     RasterAsset `json:"preview"`
	StagingMeta
}

func (e *EditorView) State() EditorState {
	return EditorState{
		Adjustments: e.adj,
		Filter:      e.adj.Filters().String(),
		Presets:     Presets(),
		Preview:     e.preview,
		StagingMeta: e.meta,
	}
}
