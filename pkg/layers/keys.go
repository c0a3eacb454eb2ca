package layers

// Wire classes.
const (
	classLayer        = "layer"
	classDocument     = "document"
	classProperty     = "property"
	classChannel      = "channel"
	classPath         = "path"
	classLayerSection = "layerSection"
	classLayerLocking = "layerLocking"
	classCalculation  = "calculation"
	classHSBColor     = "HSBColorClass"
	classOffset       = "offset"
)

// Enumeration types and values used in addresses.
const (
	enumOrdinal      = "ordinal"
	ordTarget        = "targetEnum"
	ordFront         = "front"
	ordBack          = "back"
	ordForward       = "forwardEnum"
	ordBackward      = "backwardEnum"
	ordMerged        = "merged"
	enumChannel      = "channel"
	channelMask      = "mask"
	channelRGB       = "RGB"
	enumPath         = "path"
	pathVectorMask   = "vectorMask"
	propBackground   = "background"
	propSelection    = "selection"
	enumSelectionMod = "selectionModifierType"
	selAdd           = "addToSelection"
)

// Remote commands.
const (
	cmdSet            = "set"
	cmdShow           = "show"
	cmdHide           = "hide"
	cmdMove           = "move"
	cmdMake           = "make"
	cmdDelete         = "delete"
	cmdDuplicate      = "duplicate"
	cmdSelect         = "select"
	cmdDeselect       = "deselect"
	cmdSelectNone     = "selectNoLayers"
	cmdApplyImage     = "applyImageEvent"
	cmdInvert         = "invert"
	cmdFill           = "fill"
	cmdMerge          = "mergeLayersNew"
	cmdRasterize      = "rasterizeLayer"
	cmdRefineEdge     = "refineSelectionEdge"
	cmdTransform      = "transform"
	cmdNewPlaced      = "newPlacedLayer"
	cmdPlacedCopy     = "placedLayerMakeCopy"
	cmdPlacedEdit     = "placedLayerEditContents"
	cmdPlacedToLinked = "placedLayerConvertToLinked"
	cmdPlacedRelink   = "placedLayerRelinkToFile"
	cmdPlacedSetComp  = "setPlacedLayerComp"
	cmdPlace          = "placeEvent"
	cmdQuery          = "get"
)

// Payload keys.
const (
	keyTarget          = "null"
	keyTo              = "to"
	keyUsing           = "using"
	keyFrom            = "from"
	keyAt              = "at"
	keyNew             = "new"
	keyWith            = "with"
	keyApply           = "apply"
	keyMakeVisible     = "makeVisible"
	keySelectionMod    = "selectionModifier"
	keyToggleOptions   = "toggleOptionsPalette"
	keyWhat            = "what"
	keyLinked          = "linked"
	keyCompID          = "compID"
	keyVersion         = "version"
	keyAdjustment      = "adjustment"
	keyLayerCount      = "numberOfLayers"
	keyHasBackground   = "hasBackgroundLayer"
	keyTargetLayerIDs  = "targetLayersIDs"
	keyResolution      = "resolution"
	keyDocumentID      = "documentID"
	keyLayerID         = "layerID"
	keyLayerSection    = "layerSection"
	keyVisible         = "visible"
	keyName            = "name"
	keyColor           = "color"
	keyOpacity         = "opacity"
	keyMode            = "mode"
	keyLayerLocking    = "layerLocking"
	keySmartObject     = "smartObject"
	keySmartObjectMore = "smartObjectMore"
	keyCenterState     = "freeTransformCenterState"
	keyOffset          = "offset"
	keyHorizontal      = "horizontal"
	keyVertical        = "vertical"
	keyWidth           = "width"
	keyHeight          = "height"
)
