package ifc

import "strings"

// entityDef describes the attribute layout of an entity type. Attribute
// lists are flattened, supertype attributes first, exactly as they appear
// in a STEP instance.
type entityDef struct {
	name   string
	parent string
	attrs  []string
}

var (
	rootAttrs    = []string{"GlobalId", "OwnerHistory", "Name", "Description"}
	objectAttrs  = append(clone(rootAttrs), "ObjectType")
	productAttrs = append(clone(objectAttrs), "ObjectPlacement", "Representation")
	elementAttrs = append(clone(productAttrs), "Tag")
	profileAttrs = []string{"ProfileType", "ProfileName"}
)

func clone(s []string) []string {
	return append([]string(nil), s...)
}

func with(base []string, extra ...string) []string {
	return append(clone(base), extra...)
}

// schema covers the IFC2X3/IFC4 entities the geometry and property
// extractors navigate. Entities outside this table are still loaded; their
// attributes are reachable by index only.
var schema = map[string]entityDef{}

func define(name, parent string, attrs []string) {
	schema[strings.ToUpper(name)] = entityDef{name: name, parent: parent, attrs: attrs}
}

func init() {
	define("IfcRoot", "", rootAttrs)
	define("IfcObject", "IfcRoot", objectAttrs)
	define("IfcProduct", "IfcObject", productAttrs)
	define("IfcElement", "IfcProduct", elementAttrs)
	define("IfcBuildingElement", "IfcElement", elementAttrs)

	for _, name := range []string{
		"IfcWall", "IfcSlab", "IfcColumn", "IfcBeam", "IfcRoof", "IfcStair",
		"IfcRailing", "IfcCurtainWall", "IfcCovering", "IfcFooting", "IfcPlate",
		"IfcMember", "IfcRamp", "IfcBuildingElementProxy",
	} {
		define(name, "IfcBuildingElement", with(elementAttrs, "PredefinedType"))
	}
	define("IfcDoor", "IfcBuildingElement", with(elementAttrs, "OverallHeight", "OverallWidth", "PredefinedType", "OperationType", "UserDefinedOperationType"))
	define("IfcWindow", "IfcBuildingElement", with(elementAttrs, "OverallHeight", "OverallWidth", "PredefinedType", "PartitioningType", "UserDefinedPartitioningType"))
	for sub, parent := range map[string]string{
		"IfcWallStandardCase":   "IfcWall",
		"IfcWallElementedCase":  "IfcWall",
		"IfcSlabStandardCase":   "IfcSlab",
		"IfcSlabElementedCase":  "IfcSlab",
		"IfcColumnStandardCase": "IfcColumn",
		"IfcBeamStandardCase":   "IfcBeam",
		"IfcMemberStandardCase": "IfcMember",
		"IfcPlateStandardCase":  "IfcPlate",
	} {
		define(sub, parent, with(elementAttrs, "PredefinedType"))
	}
	define("IfcDoorStandardCase", "IfcDoor", schema["IFCDOOR"].attrs)
	define("IfcWindowStandardCase", "IfcWindow", schema["IFCWINDOW"].attrs)

	define("IfcFeatureElement", "IfcElement", elementAttrs)
	define("IfcOpeningElement", "IfcFeatureElement", with(elementAttrs, "PredefinedType"))
	define("IfcOpeningStandardCase", "IfcOpeningElement", with(elementAttrs, "PredefinedType"))

	define("IfcSpatialStructureElement", "IfcProduct", with(productAttrs, "LongName", "CompositionType"))
	define("IfcBuildingStorey", "IfcSpatialStructureElement", with(productAttrs, "LongName", "CompositionType", "Elevation"))
	define("IfcBuilding", "IfcSpatialStructureElement", with(productAttrs, "LongName", "CompositionType", "ElevationOfRefHeight", "ElevationOfTerrain", "BuildingAddress"))
	define("IfcSite", "IfcSpatialStructureElement", with(productAttrs, "LongName", "CompositionType", "RefLatitude", "RefLongitude", "RefElevation", "LandTitleNumber", "SiteAddress"))
	define("IfcProject", "IfcObject", with(objectAttrs, "LongName", "Phase", "RepresentationContexts", "UnitsInContext"))

	define("IfcRelationship", "IfcRoot", rootAttrs)
	define("IfcRelVoidsElement", "IfcRelationship", with(rootAttrs, "RelatingBuildingElement", "RelatedOpeningElement"))
	define("IfcRelFillsElement", "IfcRelationship", with(rootAttrs, "RelatingOpeningElement", "RelatedBuildingElement"))
	define("IfcRelDefinesByProperties", "IfcRelationship", with(rootAttrs, "RelatedObjects", "RelatingPropertyDefinition"))
	define("IfcRelContainedInSpatialStructure", "IfcRelationship", with(rootAttrs, "RelatedElements", "RelatingStructure"))
	define("IfcRelCoversBldgElements", "IfcRelationship", with(rootAttrs, "RelatingBuildingElement", "RelatedCoverings"))
	define("IfcRelAggregates", "IfcRelationship", with(rootAttrs, "RelatingObject", "RelatedObjects"))

	define("IfcPropertySetDefinition", "IfcRoot", rootAttrs)
	define("IfcPropertySet", "IfcPropertySetDefinition", with(rootAttrs, "HasProperties"))
	define("IfcElementQuantity", "IfcPropertySetDefinition", with(rootAttrs, "MethodOfMeasurement", "Quantities"))
	define("IfcPropertySingleValue", "", []string{"Name", "Description", "NominalValue", "Unit"})
	define("IfcQuantityLength", "", []string{"Name", "Description", "Unit", "LengthValue", "Formula"})
	define("IfcQuantityArea", "", []string{"Name", "Description", "Unit", "AreaValue", "Formula"})
	define("IfcQuantityVolume", "", []string{"Name", "Description", "Unit", "VolumeValue", "Formula"})
	define("IfcQuantityCount", "", []string{"Name", "Description", "Unit", "CountValue", "Formula"})
	define("IfcQuantityWeight", "", []string{"Name", "Description", "Unit", "WeightValue", "Formula"})
	define("IfcQuantityTime", "", []string{"Name", "Description", "Unit", "TimeValue", "Formula"})

	define("IfcObjectPlacement", "", nil)
	define("IfcLocalPlacement", "IfcObjectPlacement", []string{"PlacementRelTo", "RelativePlacement"})
	define("IfcPlacement", "", []string{"Location"})
	define("IfcGridPlacement", "IfcObjectPlacement", []string{"PlacementLocation", "PlacementRefDirection"})
	define("IfcAxis2Placement3D", "IfcPlacement", []string{"Location", "Axis", "RefDirection"})
	define("IfcAxis2Placement2D", "IfcPlacement", []string{"Location", "RefDirection"})
	define("IfcCartesianPoint", "", []string{"Coordinates"})
	define("IfcDirection", "", []string{"DirectionRatios"})

	define("IfcProductDefinitionShape", "", []string{"Name", "Description", "Representations"})
	define("IfcShapeRepresentation", "", []string{"ContextOfItems", "RepresentationIdentifier", "RepresentationType", "Items"})

	define("IfcSweptAreaSolid", "", []string{"SweptArea", "Position"})
	define("IfcExtrudedAreaSolid", "IfcSweptAreaSolid", []string{"SweptArea", "Position", "ExtrudedDirection", "Depth"})
	define("IfcBooleanResult", "", []string{"Operator", "FirstOperand", "SecondOperand"})
	define("IfcBooleanClippingResult", "IfcBooleanResult", []string{"Operator", "FirstOperand", "SecondOperand"})
	define("IfcFacetedBrep", "", []string{"Outer"})
	define("IfcHalfSpaceSolid", "", []string{"BaseSurface", "AgreementFlag"})
	define("IfcPlane", "", []string{"Position"})

	define("IfcProfileDef", "", profileAttrs)
	define("IfcParameterizedProfileDef", "IfcProfileDef", with(profileAttrs, "Position"))
	define("IfcRectangleProfileDef", "IfcParameterizedProfileDef", with(profileAttrs, "Position", "XDim", "YDim"))
	define("IfcRectangleHollowProfileDef", "IfcRectangleProfileDef", with(profileAttrs, "Position", "XDim", "YDim", "WallThickness", "InnerFilletRadius", "OuterFilletRadius"))
	define("IfcCircleProfileDef", "IfcParameterizedProfileDef", with(profileAttrs, "Position", "Radius"))
	define("IfcCircleHollowProfileDef", "IfcCircleProfileDef", with(profileAttrs, "Position", "Radius", "WallThickness"))
	define("IfcIShapeProfileDef", "IfcParameterizedProfileDef", with(profileAttrs, "Position", "OverallWidth", "OverallDepth", "WebThickness", "FlangeThickness", "FilletRadius"))
	define("IfcLShapeProfileDef", "IfcParameterizedProfileDef", with(profileAttrs, "Position", "Depth", "Width", "Thickness"))
	define("IfcArbitraryClosedProfileDef", "IfcProfileDef", with(profileAttrs, "OuterCurve"))
	define("IfcArbitraryProfileDefWithVoids", "IfcArbitraryClosedProfileDef", with(profileAttrs, "OuterCurve", "InnerCurves"))

	define("IfcPolyline", "", []string{"Points"})
	define("IfcCompositeCurve", "", []string{"Segments", "SelfIntersect"})
	define("IfcIndexedPolyCurve", "", []string{"Points", "Segments", "SelfIntersect"})
	define("IfcCartesianPointList2D", "", []string{"CoordList"})
	define("IfcCartesianPointList3D", "", []string{"CoordList"})
}

// lookup returns the definition for a type name in any letter case.
func lookup(typ string) (entityDef, bool) {
	def, ok := schema[strings.ToUpper(typ)]
	return def, ok
}

// canonicalName maps an upper-case STEP type name to its schema spelling.
func canonicalName(typ string) string {
	if def, ok := lookup(typ); ok {
		return def.name
	}
	return typ
}

// attrIndex returns the position of a named attribute for typ.
func attrIndex(typ, attr string) int {
	def, ok := lookup(typ)
	if !ok {
		return -1
	}
	for i, name := range def.attrs {
		if name == attr {
			return i
		}
	}
	return -1
}

// isSubtype reports whether typ equals want or inherits from it.
func isSubtype(typ, want string) bool {
	want = strings.ToUpper(want)
	cur := strings.ToUpper(typ)
	for steps := 0; cur != "" && steps < 16; steps++ {
		if cur == want {
			return true
		}
		def, ok := schema[cur]
		if !ok {
			return false
		}
		cur = strings.ToUpper(def.parent)
	}
	return false
}
