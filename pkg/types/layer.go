package types

import "time"

// LayerType is the structural kind of a stack entry.
type LayerType string

// Structural kinds. Groups appear in the stack as a start marker above their
// children and an end marker below them.
const (
	LayerContent    LayerType = "content"
	LayerGroupStart LayerType = "groupStart"
	LayerGroupEnd   LayerType = "groupEnd"
)

// LayerKind is the derived sub-kind of a content layer.
type LayerKind string

// Layer kinds recognised from the layer payload. Adjustment layers report
// the name of their adjustment class (for example "curves").
const (
	KindNormal         LayerKind = "normal"
	KindText           LayerKind = "text"
	KindSmartObject    LayerKind = "smartObject"
	Kind3D             LayerKind = "3D"
	KindVideo          LayerKind = "video"
	KindSolidColor     LayerKind = "solidColor"
	KindGradientFill   LayerKind = "gradientFill"
	KindPatternFill    LayerKind = "patternFill"
	KindBrightness     LayerKind = "brightnessContrast"
	KindLevels         LayerKind = "levels"
	KindCurves         LayerKind = "curves"
	KindExposure       LayerKind = "exposure"
	KindVibrance       LayerKind = "vibrance"
	KindHueSaturation  LayerKind = "hueSaturation"
	KindColorBalance   LayerKind = "colorBalance"
	KindBlackAndWhite  LayerKind = "blackAndWhite"
	KindPhotoFilter    LayerKind = "photoFilter"
	KindChannelMixer   LayerKind = "channelMixer"
	KindColorLookup    LayerKind = "colorLookup"
	KindInvert         LayerKind = "invert"
	KindPosterize      LayerKind = "posterize"
	KindThreshold      LayerKind = "threshold"
	KindGradientMap    LayerKind = "gradientMap"
	KindSelectiveColor LayerKind = "selectiveColor"
)

// BlendMode is a layer compositing mode.
type BlendMode string

// Blend modes.
const (
	BlendPassThrough  BlendMode = "passThrough"
	BlendNormal       BlendMode = "normal"
	BlendDissolve     BlendMode = "dissolve"
	BlendDarken       BlendMode = "darken"
	BlendMultiply     BlendMode = "multiply"
	BlendColorBurn    BlendMode = "colorBurn"
	BlendLinearBurn   BlendMode = "linearBurn"
	BlendDarkerColor  BlendMode = "darkerColor"
	BlendLighten      BlendMode = "lighten"
	BlendScreen       BlendMode = "screen"
	BlendColorDodge   BlendMode = "colorDodge"
	BlendLinearDodge  BlendMode = "linearDodge"
	BlendLighterColor BlendMode = "lighterColor"
	BlendOverlay      BlendMode = "overlay"
	BlendSoftLight    BlendMode = "softLight"
	BlendHardLight    BlendMode = "hardLight"
	BlendVividLight   BlendMode = "vividLight"
	BlendLinearLight  BlendMode = "linearLight"
	BlendPinLight     BlendMode = "pinLight"
	BlendHardMix      BlendMode = "hardMix"
	BlendDifference   BlendMode = "difference"
	BlendExclusion    BlendMode = "exclusion"
	BlendSubtract     BlendMode = "subtract"
	BlendDivide       BlendMode = "divide"
	BlendHue          BlendMode = "hue"
	BlendSaturation   BlendMode = "saturation"
	BlendColor        BlendMode = "color"
	BlendLuminosity   BlendMode = "luminosity"
)

// LayerColor is the display color tag of a layer.
type LayerColor string

// Color tags.
const (
	ColorNone   LayerColor = "none"
	ColorRed    LayerColor = "red"
	ColorOrange LayerColor = "orange"
	ColorYellow LayerColor = "yellow"
	ColorGreen  LayerColor = "green"
	ColorBlue   LayerColor = "blue"
	ColorViolet LayerColor = "violet"
	ColorGray   LayerColor = "gray"
)

// Channel selects the source channel of an apply-image operation.
type Channel string

// Source channels.
const (
	ChannelComposite Channel = "RGB"
	ChannelRed       Channel = "red"
	ChannelGreen     Channel = "green"
	ChannelBlue      Channel = "blue"
)

// Bounds is a layer rectangle in document pixels.
type Bounds struct {
	Top    float64 `json:"top" yaml:"top"`
	Left   float64 `json:"left" yaml:"left"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Right  float64 `json:"right" yaml:"right"`
}

// Width returns Right - Left.
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Height returns Bottom - Top.
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// Locks is the composite lock state of a layer.
type Locks struct {
	All          bool `json:"all"`
	Pixels       bool `json:"pixels"`
	Position     bool `json:"position"`
	Transparency bool `json:"transparency"`
}

// Comp is a layer comp available inside a smart object.
type Comp struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Size is a width and height in pixels.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Transform is the placed transform of a smart object: the x,y pairs of
// its top-left, top-right, bottom-right and bottom-left corners.
type Transform [8]float64

// Width returns the placed width along the top edge.
func (t Transform) Width() float64 { return t[2] - t[0] }

// Height returns the placed height along the right edge.
func (t Transform) Height() float64 { return t[5] - t[1] }

// HSB is a color in hue (degrees), saturation and brightness (percent).
type HSB struct {
	Hue        float64
	Saturation float64
	Brightness float64
}

// LayerSummary is a flat view of a layer used by listings.
type LayerSummary struct {
	Index   int       `json:"index"`
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Type    LayerType `json:"type"`
	Visible bool      `json:"visible"`
	Depth   int       `json:"depth"`
}

// Modified converts a layerTime value in seconds to a time.
func Modified(seconds float64) time.Time {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
