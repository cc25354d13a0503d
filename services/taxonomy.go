package services

// The static label taxonomy the catalog is bootstrapped from. A name may be
// listed under several categories; each membership becomes its own row.
// Values are starting base rewards and decay once an object gets collected.

type taxonomyEntry struct {
	Name  string
	Value int64
}

var catalogTaxonomy = map[string][]taxonomyEntry{
	"household": {
		{"door", 40}, {"window", 40}, {"chair", 30}, {"table", 30},
		{"lamp", 35}, {"mirror", 45}, {"pillow", 30}, {"clock", 45},
		{"key", 25}, {"candle", 40}, {"vase", 55}, {"carpet", 50},
		{"bottle", 25}, {"broom", 45},
	},
	"kitchen": {
		{"cup", 25}, {"spoon", 20}, {"fork", 20}, {"plate", 25},
		{"kettle", 50}, {"pan", 40}, {"bottle", 25}, {"toaster", 55},
		{"whisk", 60}, {"colander", 70},
	},
	"electronics": {
		{"phone", 35}, {"laptop", 45}, {"headphones", 45}, {"clock", 45},
		{"keyboard", 40}, {"camera", 55}, {"router", 65}, {"microwave", 50},
	},
	"clothing": {
		{"shoe", 30}, {"hat", 35}, {"scarf", 45}, {"glove", 40},
		{"belt", 40}, {"sock", 25}, {"jacket", 35},
	},
	"nature": {
		{"plant", 30}, {"leaf", 25}, {"stone", 25}, {"flower", 30},
		{"tree", 25}, {"feather", 60}, {"pinecone", 55}, {"mushroom", 65},
	},
	"transport": {
		{"bicycle", 40}, {"car", 30}, {"bus", 45}, {"scooter", 50},
		{"helmet", 45}, {"tram", 65},
	},
	"office": {
		{"pen", 20}, {"book", 25}, {"stapler", 55}, {"scissors", 40},
		{"envelope", 45}, {"calculator", 50}, {"whiteboard", 60},
	},
	"outdoors": {
		{"umbrella", 40}, {"backpack", 35}, {"bench", 40}, {"fountain", 60},
		{"streetlight", 55}, {"mailbox", 50}, {"fence", 35},
	},
}

// onboardingLabels is the hand-authored opening sequence. New users walk this
// list before the seeded permutation takes over, so nobody's first assignment
// is something long or obscure.
var onboardingLabels = []string{
	"door", "window", "chair", "table", "cup",
	"spoon", "book", "shoe", "bottle", "key",
	"clock", "lamp", "plant", "phone", "pen",
	"pillow", "mirror", "backpack", "umbrella", "bicycle",
}

// placeholderValue is the base value auto-created catalog rows start with.
const placeholderValue = 30
