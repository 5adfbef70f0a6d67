package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// CustomizeView is the upload → crop → commit stage. It owns its own copy of
// every artifact; payloads from the editor arrive through Resume.
type CustomizeView struct {
	catalog    Catalog
	rasterizer Rasterizer

	productID string
	source    *SourceImage
	region    *RegionController
	asset     RasterAsset
	edited    bool
	meta      StagingMeta
}

func NewCustomizeView(catalog Catalog, rasterizer Rasterizer) *CustomizeView {
	v := &CustomizeView{
		catalog:    catalog,
		rasterizer: rasterizer,
		region:     NewRegionController(),
		meta: StagingMeta{
			FormatSelection: FormatSelection{Label: catalog.Default},
			PaperType:       PaperMatte,
		},
	}
	v.applyRatio()
	return v
}

func (v *CustomizeView) SetProduct(id string) {
	v.productID = id
}

// Upload replaces the source image. Any previous crop is discarded.
func (v *CustomizeView) Upload(ctx context.Context, r io.Reader, name string) error {
	src, err := DecodeSource(ctx, r, name)
	if err != nil {
		return err
	}
	v.source = src
	v.asset = RasterAsset{}
	v.edited = false
	v.region.Reset()
	log.Ctx(ctx).Info().Str("filename", name).Msg("image uploaded")
	return nil
}

// SetContainer records the measured box the crop region is dragged in.
func (v *CustomizeView) SetContainer(s Size) {
	v.region.SetContainer(s)
}

func (v *CustomizeView) SelectFormat(label string) error {
	if label != CustomFormat {
		if _, ok := v.catalog.Lookup(label); !ok {
			return invalid("format", fmt.Sprintf("unknown format %q", label))
		}
	}
	v.meta.Label = label
	v.applyRatio()
	return nil
}

// SetCustomDimensions selects the custom format. The region is only resized
// once both dimensions are positive.
func (v *CustomizeView) SetCustomDimensions(width, height float64) {
	v.meta.Label = CustomFormat
	v.meta.CustomWidth = width
	v.meta.CustomHeight = height
	v.applyRatio()
}

func (v *CustomizeView) applyRatio() {
	ratio, ok := v.meta.Ratio(v.catalog)
	if !ok {
		return
	}
	if err := v.region.SetRatio(ratio); err != nil {
		log.Warn().Err(err).Str("format", v.meta.Label).Msg("ignoring format ratio")
	}
}

func (v *CustomizeView) SetPaperType(p PaperType) error {
	if !p.Valid() {
		return invalid("paper_type", fmt.Sprintf("unknown paper type %q", p))
	}
	v.meta.PaperType = p
	return nil
}

func (v *CustomizeView) SetProjectName(name string) {
	v.meta.ProjectName = name
}

// PointerDown, PointerMove and PointerUp drive the region while no crop is
// showing.
func (v *CustomizeView) PointerDown(p Point) bool {
	if !v.asset.IsZero() {
		return false
	}
	return v.region.PointerDown(p)
}

func (v *CustomizeView) PointerMove(p Point) bool {
	return v.region.PointerMove(p)
}

func (v *CustomizeView) PointerUp() {
	v.region.PointerUp()
}

// ApplyCrop exports the selected region. display is the rendered size of the
// image at the time of the click.
func (v *CustomizeView) ApplyCrop(ctx context.Context, display Size) (RasterAsset, error) {
	if !v.source.Ready() || display.Empty() {
		return RasterAsset{}, ErrInputNotReady
	}
	if !v.asset.IsZero() {
		return RasterAsset{}, invalid("crop", "start a new crop first")
	}

	v.region.PointerUp()
	native := ToNativeRect(v.region.Region(), display, v.source.Native())
	asset, err := v.rasterizer.Export(ctx, v.source, native)
	if err != nil {
		return RasterAsset{}, err
	}
	v.asset = asset
	v.edited = false
	v.region.Commit()
	return asset, nil
}

// NewCrop discards the current crop and makes the region draggable again.
func (v *CustomizeView) NewCrop() {
	v.asset = RasterAsset{}
	v.edited = false
	v.region.Reset()
}

// OpenEditor builds the payload for the editor.
func (v *CustomizeView) OpenEditor() (Staging, error) {
	if v.asset.IsZero() {
		return Staging{}, ErrInputNotReady
	}
	return NewCropStaging(v.asset, v.meta), nil
}

// Resume seeds the view from a payload returned by another stage.
func (v *CustomizeView) Resume(s Staging) error {
	s = s.Clone()
	switch {
	case s.Edit != nil:
		v.asset = s.Edit.EditedAsset
		v.edited = true
	case s.Crop != nil:
		v.asset = s.Crop.Asset
		v.edited = false
	default:
		return ErrMissingStaging
	}
	v.meta = s.Meta()
	if !v.meta.PaperType.Valid() {
		v.meta.PaperType = PaperMatte
	}
	v.applyRatio()
	v.region.Commit()
	return nil
}

// Commit appends the current asset to the cart. Nothing is written when
// validation fails.
func (v *CustomizeView) Commit(ctx context.Context, cart CartWriter) (string, error) {
	if v.asset.IsZero() {
		return "", invalid("crop", "apply the crop first")
	}
	if blank(v.meta.ProjectName) {
		return "", invalid("project_name", "a project name is required")
	}
	if err := v.meta.FormatSelection.validate(v.catalog); err != nil {
		return "", err
	}

	id := cart.AddLineItem(LineItemInput{
		ProductID:   v.productID,
		ProductName: customProductName,
		Asset:       v.asset,
		Format:      v.meta.FormatSelection.String(),
		PaperType:   v.meta.PaperType.Label(),
		ProjectName: v.meta.ProjectName,
		Price:       v.meta.Price(v.catalog),
	})
	log.Ctx(ctx).Info().
		Str("line_item_id", id).
		Str("project", v.meta.ProjectName).
		Str("format", v.meta.FormatSelection.String()).
		Bool("edited", v.edited).
		Msg("added to cart")
	return id, nil
}

type SourceState struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type CustomizeState struct {
	ProductID   string       `json:"product_id"`
	Source      *SourceState `json:"source"`
	Region      Rect         `json:"region"`
	RegionState RegionState  `json:"region_state"`
	Container   Size         `json:"container"`
	Asset       RasterAsset  `json:"asset"`
	Edited      bool         `json:"edited"`
	StagingMeta
	Price     float64 `json:"price"`
	CanCrop   bool    `json:"can_crop"`
	CanEdit   bool    `json:"can_edit"`
	CanCommit bool    `json:"can_commit"`
}

func (v *CustomizeView) State() CustomizeState {
	st := CustomizeState{
		ProductID:   v.productID,
		Region:      v.region.Region(),
		RegionState: v.region.State(),
		Container:   v.region.Container(),
		Asset:       v.asset,
		Edited:      v.edited,
		StagingMeta: v.meta,
		Price:       v.meta.Price(v.catalog),
		CanCrop:     v.source.Ready() && v.asset.IsZero(),
		CanEdit:     !v.asset.IsZero(),
		CanCommit:   !v.asset.IsZero() && !blank(v.meta.ProjectName),
	}
	if v.source.Ready() {
		n := v.source.Native()
		st.Source = &SourceState{Name: v.source.Name(), Width: int(n.Width), Height: int(n.Height)}
	}
	return st
}
