package manifest

// Table names read from the catalog database.
const (
	TableItems            = "DestinyInventoryItemDefinition"
	TableSocketCategories = "DestinySocketCategoryDefinition"
	TableStats            = "DestinyStatDefinition"
	TableObjectives       = "DestinyObjectiveDefinition"
	TableEnergyTypes      = "DestinyEnergyTypeDefinition"
	TableActivities       = "DestinyActivityDefinition"
)

// RequiredTables must be present for a load to succeed.
var RequiredTables = []string{TableItems, TableSocketCategories}

// DefaultTables are indexed by every store.
var DefaultTables = []string{
	TableItems,
	TableSocketCategories,
	TableStats,
	TableObjectives,
	TableEnergyTypes,
	TableActivities,
}

type DisplayProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	HasIcon     bool   `json:"hasIcon"`
}

type ItemDefinition struct {
	Hash                       Hash              `json:"hash"`
	DisplayProperties          DisplayProperties `json:"displayProperties"`
	ItemTypeDisplayName        string            `json:"itemTypeDisplayName"`
	ItemTypeAndTierDisplayName string            `json:"itemTypeAndTierDisplayName"`
	Inventory                  ItemInventory     `json:"inventory"`
	Plug                       *ItemPlug         `json:"plug"`
	Sockets                    *ItemSockets      `json:"sockets"`
	InvestmentStats            []InvestmentStat  `json:"investmentStats"`
	DefaultDamageType          int               `json:"defaultDamageType"`
	ItemType                   int               `json:"itemType"`
}

type ItemInventory struct {
	TierTypeName   string `json:"tierTypeName"`
	TierType       int    `json:"tierType"`
	BucketTypeHash Hash   `json:"bucketTypeHash"`
}

type ItemPlug struct {
	PlugCategoryIdentifier string `json:"plugCategoryIdentifier"`
	PlugCategoryHash       Hash   `json:"plugCategoryHash"`
	UIPlugLabel            string `json:"uiPlugLabel"`
}

type ItemSockets struct {
	SocketEntries    []SocketEntry        `json:"socketEntries"`
	SocketCategories []ItemSocketCategory `json:"socketCategories"`
}

type SocketEntry struct {
	SocketTypeHash        Hash `json:"socketTypeHash"`
	SingleInitialItemHash Hash `json:"singleInitialItemHash"`
}

type ItemSocketCategory struct {
	SocketCategoryHash Hash  `json:"socketCategoryHash"`
	SocketIndexes      []int `json:"socketIndexes"`
}

type InvestmentStat struct {
	StatTypeHash          Hash `json:"statTypeHash"`
	Value                 int  `json:"value"`
	IsConditionallyActive bool `json:"isConditionallyActive"`
}

type StatDefinition struct {
	Hash              Hash              `json:"hash"`
	DisplayProperties DisplayProperties `json:"displayProperties"`
}

// ValueStyle is the declared UI style of an objective's progress value.
type ValueStyle int

const (
	ValueStyleAutomatic  ValueStyle = 0
	ValueStyleFraction   ValueStyle = 1
	ValueStyleCheckbox   ValueStyle = 2
	ValueStylePercentage ValueStyle = 3
	ValueStyleDateTime   ValueStyle = 4
	ValueStyleInteger    ValueStyle = 6
	ValueStyleDuration   ValueStyle = 7
	ValueStyleHidden     ValueStyle = 8
)

type ObjectiveDefinition struct {
	Hash                 Hash              `json:"hash"`
	DisplayProperties    DisplayProperties `json:"displayProperties"`
	ProgressDescription  string            `json:"progressDescription"`
	CompletionValue      int64             `json:"completionValue"`
	InProgressValueStyle ValueStyle        `json:"inProgressValueStyle"`
	CompletedValueStyle  ValueStyle        `json:"completedValueStyle"`
}

type EnergyTypeDefinition struct {
	Hash                Hash              `json:"hash"`
	DisplayProperties   DisplayProperties `json:"displayProperties"`
	TransparentIconPath string            `json:"transparentIconPath"`
	EnumValue           int               `json:"enumValue"`
}

type SocketCategoryDefinition struct {
	Hash              Hash              `json:"hash"`
	DisplayProperties DisplayProperties `json:"displayProperties"`
	UICategoryStyle   Hash              `json:"uiCategoryStyle"`
	CategoryStyle     int               `json:"categoryStyle"`
}

type ActivityDefinition struct {
	Hash              Hash              `json:"hash"`
	DisplayProperties DisplayProperties `json:"displayProperties"`
	ActivityTypeHash  Hash              `json:"activityTypeHash"`
	PgcrImage         string            `json:"pgcrImage"`
}
