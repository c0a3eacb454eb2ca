package layers

import (
	"fmt"

	"github.com/mesh-intelligence/lifter/pkg/descriptor"
	"github.com/mesh-intelligence/lifter/pkg/types"
)

var layerTypes = descriptor.NewEnumTable("layerSectionType", map[types.LayerType]string{
	types.LayerContent:    "layerSectionContent",
	types.LayerGroupStart: "layerSectionStart",
	types.LayerGroupEnd:   "layerSectionEnd",
})

var blendModes = descriptor.NewEnumTable("blendMode", map[types.BlendMode]string{
	types.BlendPassThrough:  "passThrough",
	types.BlendNormal:       "normal",
	types.BlendDissolve:     "dissolve",
	types.BlendDarken:       "darken",
	types.BlendMultiply:     "multiply",
	types.BlendColorBurn:    "colorBurn",
	types.BlendLinearBurn:   "linearBurn",
	types.BlendDarkerColor:  "darkerColor",
	types.BlendLighten:      "lighten",
	types.BlendScreen:       "screen",
	types.BlendColorDodge:   "colorDodge",
	types.BlendLinearDodge:  "linearDodge",
	types.BlendLighterColor: "lighterColor",
	types.BlendOverlay:      "overlay",
	types.BlendSoftLight:    "softLight",
	types.BlendHardLight:    "hardLight",
	types.BlendVividLight:   "vividLight",
	types.BlendLinearLight:  "linearLight",
	types.BlendPinLight:     "pinLight",
	types.BlendHardMix:      "hardMix",
	types.BlendDifference:   "difference",
	types.BlendExclusion:    "exclusion",
	types.BlendSubtract:     "blendSubtraction",
	types.BlendDivide:       "blendDivide",
	types.BlendHue:          "hue",
	types.BlendSaturation:   "saturation",
	types.BlendColor:        "color",
	types.BlendLuminosity:   "luminosity",
})

var layerColors = descriptor.NewEnumTable("color", map[types.LayerColor]string{
	types.ColorNone:   "none",
	types.ColorRed:    "red",
	types.ColorOrange: "orange",
	types.ColorYellow: "yellowColor",
	types.ColorGreen:  "grain",
	types.ColorBlue:   "blue",
	types.ColorViolet: "violet",
	types.ColorGray:   "gray",
})

var channels = descriptor.NewEnumTable("channel", map[types.Channel]string{
	types.ChannelComposite: "RGB",
	types.ChannelRed:       "red",
	types.ChannelGreen:     "grain",
	types.ChannelBlue:      "blue",
})

// adjustmentKinds maps adjustment payload classes to layer kinds.
var adjustmentKinds = map[string]types.LayerKind{
	"solidColorLayer":     types.KindSolidColor,
	"gradientLayer":       types.KindGradientFill,
	"patternLayer":        types.KindPatternFill,
	"brightnessEvent":     types.KindBrightness,
	"levels":              types.KindLevels,
	"curves":              types.KindCurves,
	"exposure":            types.KindExposure,
	"vibrance":            types.KindVibrance,
	"hueSaturation":       types.KindHueSaturation,
	"colorBalance":        types.KindColorBalance,
	"blackAndWhite":       types.KindBlackAndWhite,
	"photoFilter":         types.KindPhotoFilter,
	"channelMixer":        types.KindChannelMixer,
	"colorLookup":         types.KindColorLookup,
	"invert":              types.KindInvert,
	"posterization":       types.KindPosterize,
	"thresholdClassEvent": types.KindThreshold,
	"gradientMapClass":    types.KindGradientMap,
	"selectiveColor":      types.KindSelectiveColor,
}

// detectKind derives the layer kind from a full content layer descriptor.
func detectKind(d *descriptor.Descriptor) types.LayerKind {
	switch {
	case d.Has("textKey"):
		return types.KindText
	case d.Has(keySmartObject):
		return types.KindSmartObject
	case d.Has("layer3D"):
		return types.Kind3D
	case d.Has("videoLayer"):
		return types.KindVideo
	}
	list, err := d.GetList("adjustment")
	if err != nil || len(list) == 0 || list[0].Kind != descriptor.KindObject {
		return types.KindNormal
	}
	class := list[0].Object.Class
	if kind, ok := adjustmentKinds[class]; ok {
		return kind
	}
	return types.LayerKind(class)
}

// decodeBounds reads a rectangle object.
func decodeBounds(d *descriptor.Descriptor) (types.Bounds, error) {
	var b types.Bounds
	fields := []struct {
		key string
		dst *float64
	}{
		{"top", &b.Top},
		{"left", &b.Left},
		{"bottom", &b.Bottom},
		{"right", &b.Right},
	}
	for _, f := range fields {
		v, err := d.GetNumber(f.key)
		if err != nil {
			return types.Bounds{}, fmt.Errorf("decode bounds: %w", err)
		}
		*f.dst = v
	}
	return b, nil
}

// decodeTransform reads an 8-number placed transform list.
func decodeTransform(list []descriptor.Value) (types.Transform, error) {
	var t types.Transform
	if len(list) != len(t) {
		return t, fmt.Errorf("%w: transform has %d values, want %d", descriptor.ErrWrongType, len(list), len(t))
	}
	for i, v := range list {
		f, ok := v.Number()
		if !ok {
			return t, fmt.Errorf("%w: transform value %d is %s", descriptor.ErrWrongType, i, v.Kind)
		}
		t[i] = f
	}
	return t, nil
}

// enumValue converts a native tag or its plain string form to T.
func enumValue[T ~string](v any) (T, bool) {
	switch x := v.(type) {
	case T:
		return x, true
	case string:
		return T(x), true
	}
	return "", false
}
