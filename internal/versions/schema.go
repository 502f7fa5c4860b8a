package versions

// CravingSystemDir is the nested directory created inside every version.
const CravingSystemDir = "craving_system"

// PlaceholderFile is one entry of the placeholder schema: a path relative
// to the version directory and the content written on creation.
type PlaceholderFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// PlaceholderSchema lists every file written by Create, in write order.
var PlaceholderSchema = []PlaceholderFile{
	{Path: "building_recipes.json", Content: `{"recipes":[]}`},
	{Path: "building_types.json", Content: `{"buildingTypes":[]}`},
	{Path: "commodities.json", Content: `{"commodities":[]}`},
	{Path: "worker_types.json", Content: `{"workerTypes":[]}`},
	{Path: "work_categories.json", Content: `{"workCategories":[]}`},
	{Path: CravingSystemDir + "/dimension_definitions.json", Content: `{}`},
	{Path: CravingSystemDir + "/character_classes.json", Content: `{}`},
	{Path: CravingSystemDir + "/character_traits.json", Content: `{}`},
	{Path: CravingSystemDir + "/fulfillment_vectors.json", Content: `{}`},
	{Path: CravingSystemDir + "/enablement_rules.json", Content: `{}`},
}
